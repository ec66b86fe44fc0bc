package admin

import (
	"fmt"
	"log"
	"net/http"

	"assistance_back_end/internal/cache"

	"github.com/gin-gonic/gin"
)

type updatePolicyRequest struct {
	Policy string `json:"policy" binding:"required"`
}

// UpdatePolicy remplace la politique de retour du tenant. Le cache du tenant
// est invalidé pour que le widget serve la nouvelle version immédiatement.
func (h *Handler) UpdatePolicy(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req updatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "policy is required"})
		return
	}

	ctx := c.Request.Context()

	if err := h.Store.UpdateCompanyPolicy(ctx, companyID, req.Policy); err != nil {
		log.Println("❌ Erreur mise à jour politique:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if company, err := h.Store.CompanyByID(ctx, companyID); err == nil {
		cache.InvalidateCompanyCache(company.Tagline)
	}

	c.JSON(http.StatusOK, gin.H{"policy": req.Policy})
}

type refinePolicyRequest struct {
	IssueContext       string `json:"issue_context" binding:"required"`
	CorrectionFeedback string `json:"correction_feedback" binding:"required"`
}

// RefinePolicy fait réécrire la politique par le LLM à partir d'un cas
// problématique et du feedback de l'admin. Si le LLM échoue, la politique
// actuelle reste en place et est renvoyée telle quelle.
func (h *Handler) RefinePolicy(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req refinePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue_context and correction_feedback are required"})
		return
	}

	ctx := c.Request.Context()

	company, err := h.Store.CompanyByID(ctx, companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	prompt := fmt.Sprintf(`Current Policy: %s
Issue Context: %s
Feedback: %s

TASK: Rewrite policy to incorporate feedback. Keep it professional. Output NEW POLICY text only.`,
		company.ReturnPolicy, req.IssueContext, req.CorrectionFeedback)

	newPolicy, err := h.Agent.GenerateText(ctx, prompt)
	if err != nil {
		log.Println("⚠️ Raffinage de politique échoué:", err)
		c.JSON(http.StatusOK, gin.H{"policy": company.ReturnPolicy, "refined": false})
		return
	}

	if err := h.Store.UpdateCompanyPolicy(ctx, companyID, newPolicy); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	cache.InvalidateCompanyCache(company.Tagline)

	c.JSON(http.StatusOK, gin.H{"policy": newPolicy, "refined": true})
}
