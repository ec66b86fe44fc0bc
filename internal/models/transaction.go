package models

import "time"

// Statuts d'une transaction
const (
	TransactionCompleted = "completed"
	TransactionRefunded  = "refunded"
	TransactionDisputed  = "disputed"
)

// Transaction est un achat externe ingéré pour un tenant. Items est du JSON
// semi-structuré stocké tel quel (liste de lignes de commande).
type Transaction struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	CustomerRef     string    `json:"customer_ref,omitempty"`
	OrderRef        string    `json:"order_ref"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Items           string    `json:"items,omitempty"`
	PaymentIntentID string    `json:"-"` // optionnel, permet le refund Stripe au payout
	Status          string    `json:"status"`
	PurchasedAt     time.Time `json:"purchased_at"`
	CreatedAt       time.Time `json:"created_at"`
}
