package models

// ChatMessage est un tour de conversation côté widget ("user" ou "assistant").
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest est le body de POST /api/chat. ImageAnalysis et
// EvidenceImageURL proviennent d'un POST /api/upload préalable du widget.
type ChatRequest struct {
	Message          string        `json:"message" binding:"required"`
	History          []ChatMessage `json:"history"`
	CompanyPolicy    string        `json:"company_policy"`
	CompanyID        string        `json:"company_id" binding:"required"`
	CustomerRef      string        `json:"customer_ref"`
	ImageAnalysis    string        `json:"image_analysis"`
	EvidenceImageURL string        `json:"evidence_image_url"`
}
