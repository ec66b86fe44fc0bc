package store

import (
	"context"
	"errors"

	"assistance_back_end/internal/models"
)

// ErrNotFound est renvoyée quand un enregistrement n'existe pas.
var ErrNotFound = errors.New("record not found")

// Store regroupe tous les accès aux cinq tables persistantes. L'implémentation
// de production est ScyllaStore ; MemoryStore sert aux tests des handlers.
type Store interface {
	// Tenants
	CreateCompany(ctx context.Context, c *models.Company) error
	CompanyByTagline(ctx context.Context, tagline string) (*models.Company, error)
	CompanyByID(ctx context.Context, id string) (*models.Company, error)
	UpdateCompanyPolicy(ctx context.Context, companyID, policy string) error

	// Transactions
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	TransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	TransactionByOrderRef(ctx context.Context, companyID, orderRef string) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id, status string) error

	// Refund requests
	CreateRefundRequest(ctx context.Context, r *models.RefundRequest) error
	RefundRequestByID(ctx context.Context, id string) (*models.RefundRequest, error)
	RefundRequestByTransaction(ctx context.Context, transactionID string) (*models.RefundRequest, error)
	PendingRefundRequests(ctx context.Context, companyID string) ([]models.RefundRequest, error)
	UpdateRefundRequestStatus(ctx context.Context, id, status string) error
	ClearRefundRequestContext(ctx context.Context, id string) error

	// Payout queue
	CreatePayoutEntry(ctx context.Context, p *models.PayoutEntry) error
	PayoutEntryByID(ctx context.Context, id string) (*models.PayoutEntry, error)
	ReadyPayoutEntries(ctx context.Context, companyID string) ([]models.PayoutEntry, error)
	UpdatePayoutStatus(ctx context.Context, id, status, stripeRefundID string) error

	// Escalations
	CreateEscalation(ctx context.Context, e *models.EscalationRequest) error
	EscalationByID(ctx context.Context, id string) (*models.EscalationRequest, error)
	OpenEscalations(ctx context.Context, companyID string) ([]models.EscalationRequest, error)
	UpdateEscalationStatus(ctx context.Context, id, status string) error
}
