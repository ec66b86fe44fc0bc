package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"assistance_back_end/internal/ai"
	"assistance_back_end/internal/models"
	"assistance_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxEvidenceSize = 5 << 20 // 5 MiB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Upload reçoit une photo de preuve avec le reste du tour de conversation :
// analyse IA de l'image, stockage, puis le même déroulé que /api/chat avec
// l'analyse injectée. La validation (taille, type) se fait avant tout effet
// de bord.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	if fileHeader.Size > maxEvidenceSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large (max 5 MB)"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only image files are accepted"})
		return
	}

	req := models.ChatRequest{
		Message:       c.PostForm("message"),
		CompanyPolicy: c.PostForm("company_policy"),
		CompanyID:     c.PostForm("company_id"),
		CustomerRef:   c.PostForm("customer_ref"),
	}
	if req.CompanyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	if raw := c.PostForm("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "history must be a JSON array"})
			return
		}
	}

	company, ok := h.resolveTenant(c, req.CompanyID)
	if !ok {
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxEvidenceSize+1))
	if err != nil || len(data) > maxEvidenceSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large (max 5 MB)"})
		return
	}

	ctx := c.Request.Context()

	analysis, err := h.Agent.AnalyzeImage(ctx, ai.ImageAnalysisPrompt, contentType, data)
	if err != nil {
		log.Println("❌ Erreur analyse d'image:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image analysis unavailable"})
		return
	}

	// Stockage best-effort : l'analyse vaut même si MinIO est down
	evidenceURL := ""
	objectName := fmt.Sprintf("%s/%s%s", time.Now().Format("2006-01-02"), uuid.New().String(), filepath.Ext(fileHeader.Filename))
	if url, err := services.UploadEvidence(ctx, objectName, contentType, data); err == nil {
		evidenceURL = url
	} else {
		log.Println("⚠️ Preuve non stockée:", err)
	}

	if h.Hub != nil {
		subtitle := "Completed"
		icon := "image"
		if strings.Contains(analysis, "Failed") {
			subtitle = "Rejected"
			icon = "block"
		}
		h.Hub.PublishEvent(icon, "Image Analysis", subtitle)
	}

	req.ImageAnalysis = analysis
	req.EvidenceImageURL = evidenceURL

	h.completeTurn(c, &req, company, gin.H{
		"analysis":           analysis,
		"evidence_image_url": evidenceURL,
	})
}
