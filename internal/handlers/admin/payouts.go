package admin

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"
)

// amountToCents convertit un montant en centimes pour Stripe. Arrondi, pas
// troncature : 0.29 en float64 vaut 28.999… et perdrait un centime.
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ProcessPayout exécute un payout prêt : refund Stripe si la transaction
// porte un payment intent, puis passage en PROCESSED. Sans Stripe configuré,
// le payout est marqué traité sans mouvement d'argent (réglé hors plateforme).
func (h *Handler) ProcessPayout(c *gin.Context) {
	companyID := c.GetString("company_id")
	payoutID := c.Param("id")

	ctx := c.Request.Context()

	payout, err := h.Store.PayoutEntryByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payout not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if payout.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Payout belongs to another company"})
		return
	}

	if payout.Status != models.PayoutReady {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Payout is not ready for processing",
			"status": payout.Status,
		})
		return
	}

	stripeRefundID := ""
	tx, err := h.Store.TransactionByID(ctx, payout.TransactionID)
	if err == nil && tx.PaymentIntentID != "" && os.Getenv("STRIPE_SECRET_KEY") != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(tx.PaymentIntentID),
			Amount:        stripe.Int64(amountToCents(payout.Amount)),
			Reason:        stripe.String("requested_by_customer"),
		}

		stripeRefund, err := refund.New(params)
		if err != nil {
			log.Printf("❌ Erreur refund Stripe pour le payout %s: %v", payoutID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Stripe refund failed"})
			return
		}
		stripeRefundID = stripeRefund.ID
		log.Printf("💰 Refund Stripe %s (%.2f %s)", stripeRefund.ID, payout.Amount, tx.Currency)
	}

	if err := h.Store.UpdatePayoutStatus(ctx, payoutID, models.PayoutProcessed, stripeRefundID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if h.Hub != nil {
		h.Hub.PublishEvent("payments", "Payout Processed", fmt.Sprintf("%.2f", payout.Amount))
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               payoutID,
		"status":           models.PayoutProcessed,
		"stripe_refund_id": stripeRefundID,
	})
}
