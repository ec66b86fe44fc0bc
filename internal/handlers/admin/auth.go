package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"assistance_back_end/internal/ai"
	"assistance_back_end/internal/hub"
	"assistance_back_end/internal/stats"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store store.Store
	Agent ai.Agent
	Hub   *hub.Hub
	Stats *stats.Manager
}

func NewHandler(s store.Store, agent ai.Agent, h *hub.Hub, m *stats.Manager) *Handler {
	return &Handler{Store: s, Agent: agent, Hub: h, Stats: m}
}

type loginRequest struct {
	Tagline  string `json:"tagline" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authentifie l'admin d'un tenant et émet un JWT scopé sur son
// company_id. Lecture directe du store (le cache ne porte pas les hashes).
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tagline, username and password are required"})
		return
	}

	company, err := h.Store.CompanyByTagline(c.Request.Context(), req.Tagline)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(company.AdminUsername), []byte(req.Username)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, company.AdminPassword)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWT(company.ID, company.AdminUsername)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"company_id": company.ID,
		"company":    company,
	})
}
