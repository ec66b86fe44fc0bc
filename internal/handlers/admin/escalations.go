package admin

import (
	"errors"
	"net/http"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

var escalationTransitions = map[string][]string{
	models.EscalationOpen:       {models.EscalationInProgress, models.EscalationResolved},
	models.EscalationInProgress: {models.EscalationResolved},
}

// UpdateEscalationStatus fait avancer une escalade dans son cycle de vie
// OPEN → IN_PROGRESS → RESOLVED (le saut direct vers RESOLVED est permis).
func (h *Handler) UpdateEscalationStatus(c *gin.Context) {
	companyID := c.GetString("company_id")
	escalationID := c.Param("id")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ctx := c.Request.Context()

	escalation, err := h.Store.EscalationByID(ctx, escalationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Escalation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if escalation.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Escalation belongs to another company"})
		return
	}

	if !transitionAllowed(escalationTransitions, escalation.Status, req.Status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Invalid status transition",
			"from":  escalation.Status,
			"to":    req.Status,
		})
		return
	}

	if err := h.Store.UpdateEscalationStatus(ctx, escalationID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if h.Hub != nil {
		h.Hub.PublishEvent("support_agent", "Escalation Update", req.Status)
	}

	c.JSON(http.StatusOK, gin.H{"id": escalationID, "status": req.Status})
}
