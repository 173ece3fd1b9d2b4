// Package export defines the outbound ports for mirroring transactions to
// external destinations.
package export

import (
	"context"

	"github.com/tommikimmel/gestorGastos/internal/core"
)

// RowAppender appends one transaction to the export destination and returns
// a reference to the written row.
type RowAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
