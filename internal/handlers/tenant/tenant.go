package tenant

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"time"

	"assistance_back_end/internal/cache"
	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Store store.Store
}

func NewHandler(s store.Store) *Handler {
	return &Handler{Store: s}
}

// GetCompany renvoie le branding public d'un tenant (widget). Passe par le
// cache Redis : le tagline est résolu à chaque chargement de page.
func (h *Handler) GetCompany(c *gin.Context) {
	tagline := c.Param("tagline")

	company, err := cache.GetCompanyByTagline(c.Request.Context(), h.Store, tagline)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, company)
}

// Page sert la page du widget de support d'un tenant.
func (h *Handler) Page(c *gin.Context) {
	tagline := c.Param("tagline")

	company, err := cache.GetCompanyByTagline(c.Request.Context(), h.Store, tagline)
	if err != nil {
		// Tenant inconnu : retour à la page d'accueil
		c.Redirect(http.StatusFound, "/")
		return
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>%s — Support</title>
</head>
<body style="margin:0; font-family: Arial, sans-serif;">
	<header style="background:%s; color:white; padding:24px;">
		<h1 style="margin:0;">%s</h1>
		<p style="margin:4px 0 0;">%s</p>
	</header>
	<div id="support-widget" data-company-id="%s" data-tagline="%s"></div>
	<script src="/static/widget.js"></script>
</body>
</html>`, company.Name, company.BannerColor, company.Name, company.Description, company.ID, company.Tagline)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

type registerRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Tagline      string `json:"tagline" binding:"required"`
	BannerColor  string `json:"banner_color"`
	Industry     string `json:"industry"`
	SupportEmail string `json:"support_email"`
	Policy       string `json:"policy" binding:"required"`
}

// Register crée un tenant : identifiants admin générés, QR code vers le
// widget, identifiants renvoyés une seule fois (le mot de passe n'est stocké
// que hashé).
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, tagline and policy are required"})
		return
	}

	ctx := c.Request.Context()

	// Tagline unique : c'est la clé publique du tenant
	if _, err := h.Store.CompanyByTagline(ctx, req.Tagline); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Tagline already exists"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	adminUser, err := generateAdminUsername()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	plainPass, err := utils.GeneratePassword(12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	hashedPass, err := utils.HashPassword(plainPass)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	bannerColor := req.BannerColor
	if bannerColor == "" {
		bannerColor = "#4F46E5"
	}

	company := &models.Company{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Tagline:       req.Tagline,
		Description:   req.Description,
		BannerColor:   bannerColor,
		Industry:      req.Industry,
		SupportEmail:  req.SupportEmail,
		ReturnPolicy:  req.Policy,
		AdminUsername: adminUser,
		AdminPassword: hashedPass,
		CreatedAt:     time.Now(),
	}

	if err := h.Store.CreateCompany(ctx, company); err != nil {
		log.Println("❌ Erreur création tenant:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	baseURL := os.Getenv("DEPLOYMENT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	websiteURL := fmt.Sprintf("%s/%s", baseURL, company.Tagline)

	qrBase64, err := utils.GenerateQRCodeBase64(websiteURL)
	if err != nil {
		log.Println("⚠️ QR code non généré:", err)
	}

	if company.SupportEmail != "" {
		go func() {
			if err := utils.SendOnboardingEmail(company.SupportEmail, company.Name, websiteURL, adminUser, plainPass); err != nil {
				log.Println("⚠️ E-mail d'onboarding non envoyé:", err)
			}
		}()
	}

	log.Printf("✅ Tenant créé : %s (%s)", company.Name, company.Tagline)

	// Seule réponse qui contient le mot de passe en clair
	c.JSON(http.StatusCreated, gin.H{
		"company":        company,
		"admin_username": adminUser,
		"admin_password": plainPass,
		"website_url":    websiteURL,
		"qr_code_base64": qrBase64,
	})
}

// generateAdminUsername produit un identifiant de la forme admin_NNNNN.
func generateAdminUsername() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("admin_%05d", n.Int64()), nil
}
