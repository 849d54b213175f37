package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
)

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

const invoiceCols = `id, invoice_id, subscription_id, amount_paid, amount_due, currency, status, user_id, email, created_time`

type invoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *invoiceRepo {
	return &invoiceRepo{pool: pool}
}

func (r *invoiceRepo) Insert(ctx context.Context, tx repository.Tx, inv *model.Invoice) (*model.Invoice, error) {
	const q = `
INSERT INTO invoices (` + invoiceCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + invoiceCols + `;`
	row, err := pickRow(ctx, r.pool, tx, q,
		inv.ID, inv.InvoiceID, inv.SubscriptionID, inv.AmountPaid, inv.AmountDue,
		inv.Currency, inv.Status, inv.UserID, inv.Email, inv.CreatedTime)
	if err != nil {
		return nil, err
	}
	out, err := scanInvoice(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *invoiceRepo) AssignUserByEmail(ctx context.Context, tx repository.Tx, email, userID string) (int64, error) {
	const q = `UPDATE invoices SET user_id=$2 WHERE email=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, email, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *invoiceRepo) ListByInvoiceID(ctx context.Context, tx repository.Tx, invoiceID string) ([]*model.Invoice, error) {
	const q = `SELECT ` + invoiceCols + ` FROM invoices WHERE invoice_id=$1 ORDER BY created_time ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, invoiceID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	inv := &model.Invoice{}
	var status string
	if err := row.Scan(&inv.ID, &inv.InvoiceID, &inv.SubscriptionID, &inv.AmountPaid, &inv.AmountDue,
		&inv.Currency, &status, &inv.UserID, &inv.Email, &inv.CreatedTime); err != nil {
		return nil, err
	}
	inv.Status = model.InvoiceStatus(status)
	return inv, nil
}
