package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome  TransactionType = "INGRESO"
	TypeExpense TransactionType = "GASTO"
)

const (
	IncomeSalarios IncomeCategory = "SALARIOS"
	IncomeRegalo   IncomeCategory = "REGALO"
	IncomeInteres  IncomeCategory = "INTERES"
	IncomeOtros    IncomeCategory = "OTROS"
)

type (
	// TransactionType discriminates income from expense records stored in the
	// shared transactions collection.
	TransactionType string

	// IncomeCategory is the closed set of income tags. It is not a stored
	// entity: unknown values collapse to OTROS.
	IncomeCategory string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account is a named balance bucket owned by a user. Total is a cached
	// running value maintained by the ledger engine, not derived by replay.
	Account struct {
		ID     string
		UserID string
		Name   string
		Total  Money
	}

	// Category is a user-defined expense tag.
	Category struct {
		ID     string
		UserID string
		Name   string
		Icon   string
		Color  string
	}

	// Transaction is a single income or expense record. CategoryID is set for
	// expenses only; IncomeCategory for incomes only. Type never changes after
	// creation.
	Transaction struct {
		ID             string
		UserID         string
		Type           TransactionType
		Amount         Money
		AccountID      string
		Date           Date
		Description    string
		CategoryID     string
		IncomeCategory IncomeCategory
	}
)

// ValidationError marks user-correctable input problems. It is raised before
// any state is mutated and must never be retried automatically.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrAccountCategoryRequired ValidationError = "account and category are required"
	ErrAmountNotPositive       ValidationError = "amount must be greater than 0"
	ErrInsufficientBalance     ValidationError = "amount cannot exceed account balance"
	ErrInsufficientNewBalance  ValidationError = "amount cannot exceed new account balance"
)

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 64 characters)")
	ErrEmptyUserID     = errors.New("empty user id")
	ErrLongDescription = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (c IncomeCategory) Valid() bool {
	switch c {
	case IncomeSalarios, IncomeRegalo, IncomeInteres, IncomeOtros:
		return true
	}
	return false
}

// NormalizeIncomeCategory collapses empty or unknown tags to OTROS so the
// aggregation side never sees a value outside the closed set.
func NormalizeIncomeCategory(c IncomeCategory) IncomeCategory {
	if c.Valid() {
		return c
	}
	return IncomeOtros
}

// Label returns the display name for an income category.
func (c IncomeCategory) Label() string {
	switch c {
	case IncomeSalarios:
		return "Salarios"
	case IncomeRegalo:
		return "Regalo"
	case IncomeInteres:
		return "Interés"
	default:
		return "Otros"
	}
}

// Color returns the chart color for an income category.
func (c IncomeCategory) Color() string {
	switch c {
	case IncomeSalarios:
		return "#22c55e"
	case IncomeRegalo:
		return "#f97316"
	case IncomeInteres:
		return "#0ea5e9"
	default:
		return "#a855f7"
	}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 64 {
		return ErrNameTooLong
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 64 {
		return ErrNameTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents <= 0 {
		return ErrAmountNotPositive
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrLongDescription
	}
	return nil
}
