package tenant

import (
	"errors"
	"log"
	"net/http"
	"time"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ingestTransactionRequest struct {
	CompanyID       string  `json:"company_id"`
	CustomerRef     string  `json:"customer_ref"`
	OrderRef        string  `json:"order_ref" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
	Currency        string  `json:"currency"`
	Items           string  `json:"items"`
	PaymentIntentID string  `json:"payment_intent_id"`
	PurchasedAt     string  `json:"purchased_at"` // RFC 3339, optionnel
}

// IngestTransaction enregistre un achat externe pour un tenant. C'est la
// matière première du triage : sans transaction vérifiable, pas de claim.
// Le company_id vient du token admin ; le body ne peut pas le contredire.
func (h *Handler) IngestTransaction(c *gin.Context) {
	var req ingestTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_ref and amount are required"})
		return
	}

	if tokenCompany := c.GetString("company_id"); tokenCompany != "" {
		if req.CompanyID != "" && req.CompanyID != tokenCompany {
			c.JSON(http.StatusForbidden, gin.H{"error": "company_id does not match token"})
			return
		}
		req.CompanyID = tokenCompany
	}
	if req.CompanyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	ctx := c.Request.Context()

	if _, err := h.Store.CompanyByID(ctx, req.CompanyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	// order_ref unique par tenant
	if _, err := h.Store.TransactionByOrderRef(ctx, req.CompanyID, req.OrderRef); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Order reference already exists"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	purchasedAt := time.Now()
	if req.PurchasedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PurchasedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "purchased_at must be RFC 3339"})
			return
		}
		purchasedAt = parsed
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	tx := &models.Transaction{
		ID:              uuid.New().String(),
		CompanyID:       req.CompanyID,
		CustomerRef:     req.CustomerRef,
		OrderRef:        req.OrderRef,
		Amount:          req.Amount,
		Currency:        currency,
		Items:           req.Items,
		PaymentIntentID: req.PaymentIntentID,
		Status:          models.TransactionCompleted,
		PurchasedAt:     purchasedAt,
		CreatedAt:       time.Now(),
	}

	if err := h.Store.CreateTransaction(ctx, tx); err != nil {
		log.Println("❌ Erreur ingestion transaction:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}
