package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/ledger"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// amountValue accepts a JSON number or a string like "12.34" or "12,34".
// The raw text is kept verbatim; cents parsing happens in parseAmount so a
// malformed value surfaces as a validation error, not a decode error.
type amountValue string

func (a *amountValue) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		s = unquoted
	}
	*a = amountValue(s)
	return nil
}

type (
	accountRequest struct {
		Name  *string      `json:"name"`
		Total *amountValue `json:"total"`
	}

	categoryRequest struct {
		Name  *string `json:"name"`
		Icon  *string `json:"icon"`
		Color *string `json:"color"`
	}

	// transactionRequest covers income and expense bodies. On update, absent
	// fields keep the stored value.
	transactionRequest struct {
		Amount      *amountValue `json:"amount"`
		AccountID   *string      `json:"account_id"`
		CategoryID  *string      `json:"category_id"`
		Category    *string      `json:"category"`
		Date        *string      `json:"date"`
		Description *string      `json:"description"`
	}
)

func decodeBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseAmount accepts "12.34", "12,34" or a bare number and returns cents.
func parseAmount(v amountValue) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(string(v))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseTotal is parseAmount but permits zero. Transactions must be strictly
// positive; an account may legitimately start or end at zero.
func parseTotal(v amountValue) (core.Money, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(v)), ",", ".")
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return core.Money{}, nil
	}
	return parseAmount(v)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.Date{Time: t}, nil
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// toPatch converts a partial transaction body into the engine's patch form.
func (req transactionRequest) toPatch() (ledger.TransactionPatch, error) {
	var patch ledger.TransactionPatch

	if req.Amount != nil {
		m, err := parseAmount(*req.Amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &m
	}
	if req.AccountID != nil {
		id := strings.TrimSpace(*req.AccountID)
		patch.AccountID = &id
	}
	if req.CategoryID != nil {
		id := strings.TrimSpace(*req.CategoryID)
		patch.CategoryID = &id
	}
	if req.Category != nil {
		cat := core.IncomeCategory(strings.ToUpper(strings.TrimSpace(*req.Category)))
		patch.IncomeCategory = &cat
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		patch.Description = &desc
	}

	return patch, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
