package models

import "time"

// Statuts d'une demande de remboursement (refund_requests)
const (
	ClaimPending   = "PENDING"
	ClaimApproved  = "APPROVED"
	ClaimRejected  = "REJECTED"
	ClaimEscalated = "ESCALATED"
)

// Statuts de la file de payout (company_refund_queue)
const (
	PayoutReady     = "READY_FOR_PAYOUT"
	PayoutProcessed = "PROCESSED"
)

// Statuts d'une escalade (escalation_requests)
const (
	EscalationOpen       = "OPEN"
	EscalationInProgress = "IN_PROGRESS"
	EscalationResolved   = "RESOLVED"
)

// AIAnalysis est la décision structurée de l'IA, stockée en blob JSON opaque.
type AIAnalysis struct {
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence,omitempty"`
}

// RefundRequest est une interaction de support : transcript, preuve éventuelle
// et analyse de l'IA. Le statut n'est posé automatiquement qu'une seule fois
// (décision IA), ensuite seul un admin peut le faire évoluer.
type RefundRequest struct {
	ID               string     `json:"id"`
	TransactionID    string     `json:"transaction_id"`
	CompanyID        string     `json:"company_id"`
	Transcript       string     `json:"user_transcript,omitempty"`
	EvidenceImageURL string     `json:"evidence_image_url,omitempty"`
	AIAnalysis       AIAnalysis `json:"ai_analysis_json"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PayoutEntry est une instruction de paiement, créée uniquement quand une
// RefundRequest passe en APPROVED.
type PayoutEntry struct {
	ID             string    `json:"id"`
	TransactionID  string    `json:"transaction_id"`
	CompanyID      string    `json:"company_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	StripeRefundID string    `json:"stripe_refund_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EscalationRequest est une passation à un humain.
type EscalationRequest struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CompanyID     string    `json:"company_id"`
	CustomerRef   string    `json:"customer_ref,omitempty"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
