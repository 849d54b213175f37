package repository

import (
	"context"

	"saas-starter-billing/internal/domain/model"
)

// InvoiceRepository is the port for payment outcomes. Inserts are not
// deduplicated on the provider invoice id.
type InvoiceRepository interface {
	Insert(ctx context.Context, tx Tx, inv *model.Invoice) (*model.Invoice, error)
	// AssignUserByEmail sets user_id on every invoice billed to email and
	// returns how many rows changed.
	AssignUserByEmail(ctx context.Context, tx Tx, email, userID string) (int64, error)
	ListByInvoiceID(ctx context.Context, tx Tx, invoiceID string) ([]*model.Invoice, error)
}
