package admin

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/services"
	"assistance_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PendingClaims renvoie les trois files de travail de l'admin : claims en
// attente, escalades ouvertes et payouts prêts. Les payouts et escalades
// sont enrichis du contexte de la refund request liée.
func (h *Handler) PendingClaims(c *gin.Context) {
	companyID := c.GetString("company_id")
	ctx := c.Request.Context()

	refunds, err := h.Store.PendingRefundRequests(ctx, companyID)
	if err != nil {
		log.Println("❌ Erreur lecture claims:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	escalations, err := h.Store.OpenEscalations(ctx, companyID)
	if err != nil {
		log.Println("❌ Erreur lecture escalades:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	payouts, err := h.Store.ReadyPayoutEntries(ctx, companyID)
	if err != nil {
		log.Println("❌ Erreur lecture payouts:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	payoutQueue := make([]gin.H, 0, len(payouts))
	for _, p := range payouts {
		entry := gin.H{
			"id":             p.ID,
			"transaction_id": p.TransactionID,
			"company_id":     p.CompanyID,
			"amount":         p.Amount,
			"status":         p.Status,
			"created_at":     p.CreatedAt,
		}
		if related, err := h.Store.RefundRequestByTransaction(ctx, p.TransactionID); err == nil {
			entry["context"] = related.Transcript
			entry["ai_reason"] = related.AIAnalysis.Reason
			entry["evidence_image_url"] = related.EvidenceImageURL
		}
		payoutQueue = append(payoutQueue, entry)
	}

	escalationList := make([]gin.H, 0, len(escalations))
	for _, e := range escalations {
		entry := gin.H{
			"id":             e.ID,
			"transaction_id": e.TransactionID,
			"company_id":     e.CompanyID,
			"customer_ref":   e.CustomerRef,
			"reason":         e.Reason,
			"status":         e.Status,
			"created_at":     e.CreatedAt,
		}
		if e.TransactionID != "" {
			if related, err := h.Store.RefundRequestByTransaction(ctx, e.TransactionID); err == nil {
				entry["context"] = related.Transcript
				entry["evidence_image_url"] = related.EvidenceImageURL
			}
		}
		escalationList = append(escalationList, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"refund_requests": refunds,
		"escalations":     escalationList,
		"payout_queue":    payoutQueue,
	})
}

type updateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	ClearContext bool   `json:"clear_context"`
}

// Transitions autorisées sur un claim. Le statut initial est posé par l'IA,
// ensuite seul l'admin le fait évoluer.
var claimTransitions = map[string][]string{
	models.ClaimPending:   {models.ClaimApproved, models.ClaimRejected, models.ClaimEscalated},
	models.ClaimEscalated: {models.ClaimApproved, models.ClaimRejected},
}

func transitionAllowed(transitions map[string][]string, from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateClaimStatus fait évoluer un claim. Passer en APPROVED crée l'entrée
// de payout et marque la transaction remboursée (un payout n'existe jamais
// sans claim approuvé).
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	companyID := c.GetString("company_id")
	claimID := c.Param("id")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ctx := c.Request.Context()

	claim, err := h.Store.RefundRequestByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if claim.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Claim belongs to another company"})
		return
	}

	if !transitionAllowed(claimTransitions, claim.Status, req.Status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Invalid status transition",
			"from":  claim.Status,
			"to":    req.Status,
		})
		return
	}

	if err := h.Store.UpdateRefundRequestStatus(ctx, claimID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if req.Status == models.ClaimApproved {
		if err := h.createPayoutForClaim(ctx, claim); err != nil {
			log.Println("❌ Erreur création payout après approbation:", err)
		}
	}

	if req.ClearContext {
		if err := h.Store.ClearRefundRequestContext(ctx, claimID); err != nil {
			log.Println("⚠️ Contexte non purgé:", err)
		}
	}

	if h.Hub != nil {
		h.Hub.PublishEvent("gavel", "Admin Review", req.Status)
	}

	c.JSON(http.StatusOK, gin.H{"id": claimID, "status": req.Status})
}

// createPayoutForClaim matérialise l'approbation : payout READY_FOR_PAYOUT
// et transaction marquée remboursée. Idempotent si un payout existe déjà.
func (h *Handler) createPayoutForClaim(ctx context.Context, claim *models.RefundRequest) error {
	tx, err := h.Store.TransactionByID(ctx, claim.TransactionID)
	if err != nil {
		return err
	}

	existing, err := h.Store.ReadyPayoutEntries(ctx, claim.CompanyID)
	if err == nil {
		for _, p := range existing {
			if p.TransactionID == claim.TransactionID {
				return nil
			}
		}
	}

	now := time.Now()
	payout := &models.PayoutEntry{
		ID:            uuid.New().String(),
		TransactionID: claim.TransactionID,
		CompanyID:     claim.CompanyID,
		Amount:        tx.Amount,
		Status:        models.PayoutReady,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Store.CreatePayoutEntry(ctx, payout); err != nil {
		return err
	}
	return h.Store.UpdateTransactionStatus(ctx, claim.TransactionID, models.TransactionRefunded)
}

// SearchClaims recherche plein texte dans les réclamations du tenant.
func (h *Handler) SearchClaims(c *gin.Context) {
	companyID := c.GetString("company_id")
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	results, err := services.SearchClaims(companyID, query)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
