package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"assistance_back_end/internal/ai"
	"assistance_back_end/internal/hub"
	"assistance_back_end/internal/models"
	"assistance_back_end/internal/services"
	"assistance_back_end/internal/stats"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Réponse servie quand le LLM est injoignable. Aucune écriture en base dans
// ce cas.
const fallbackReply = "I'm having a little trouble thinking right now. Please try again in a moment."

type Handler struct {
	Store store.Store
	Agent ai.Agent
	Hub   *hub.Hub
	Stats *stats.Manager
}

func NewHandler(s store.Store, agent ai.Agent, h *hub.Hub, m *stats.Manager) *Handler {
	return &Handler{Store: s, Agent: agent, Hub: h, Stats: m}
}

// Les références de commande sont des tokens alphanumériques d'au moins 4
// caractères, éventuellement préfixés par # ou "order id:".
var orderRefRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9\-]{3,}`)

// Chat est le tour de conversation du widget : détection de référence de
// commande, appel du LLM, exécution de l'action finale et diffusion dashboard.
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message and company_id are required"})
		return
	}

	company, ok := h.resolveTenant(c, req.CompanyID)
	if !ok {
		return
	}

	h.completeTurn(c, &req, company, nil)
}

// resolveTenant charge le tenant du tour de conversation et répond lui-même
// en cas d'échec. Le widget peut fournir sa propre politique, mais jamais un
// tenant inexistant.
func (h *Handler) resolveTenant(c *gin.Context, companyID string) (*models.Company, bool) {
	company, err := h.Store.CompanyByID(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown tenant"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return nil, false
	}
	return company, true
}

// completeTurn déroule le tour : injection [SYSTEM], appel du LLM, action
// finale, diffusion dashboard. extra est fusionné dans la réponse JSON
// (l'upload y ajoute l'analyse d'image et l'URL de la preuve).
func (h *Handler) completeTurn(c *gin.Context, req *models.ChatRequest, company *models.Company, extra gin.H) {
	ctx := c.Request.Context()
	start := time.Now()

	respond := func(reply string) {
		out := gin.H{"reply": reply}
		for k, v := range extra {
			out[k] = v
		}
		c.JSON(http.StatusOK, out)
	}

	policy := req.CompanyPolicy
	if policy == "" {
		policy = company.ReturnPolicy
	}

	injection := h.buildSystemInjection(ctx, req.CompanyID, req.Message)

	userContent := req.Message
	if req.ImageAnalysis != "" {
		userContent += "\n\n[IMAGE ANALYSIS]: " + req.ImageAnalysis
	}
	userContent += injection

	reply, err := h.Agent.Chat(ctx, ai.SystemPrompt(policy), req.History, userContent)
	if err != nil {
		log.Println("❌ Erreur agent IA:", err)
		h.Stats.Record(time.Since(start), "")
		respond(fallbackReply)
		return
	}

	cleanReply := ai.StripAction(reply)
	transcript := buildTranscript(req.History, req.Message, cleanReply)

	action, ok := ai.ExtractAction(reply)
	if !ok && ai.HasActionBlock(reply) {
		// Bloc d'action présent mais inexploitable : même traitement
		// qu'une panne IA, aucune écriture
		log.Println("⚠️ Bloc d'action IA malformé, réponse dégradée")
		h.Stats.Record(time.Since(start), "")
		respond(fallbackReply)
		return
	}

	actionType := ""
	if ok {
		actionType = action.Action
		h.handleAction(ctx, action, req, transcript)

		if h.Hub != nil {
			h.Hub.PublishEvent("receipt_long", action.Action, action.Reason)
		}
	}

	h.Stats.Record(time.Since(start), actionType)
	if h.Hub != nil {
		h.Hub.PublishStats()
	}

	respond(cleanReply)
}

// buildSystemInjection vérifie chaque token du message qui ressemble à une
// référence de commande et annote le contexte pour le LLM.
func (h *Handler) buildSystemInjection(ctx context.Context, companyID, message string) string {
	// Borné : une requête de vérification par token, pas plus de 8
	candidates := orderRefRe.FindAllString(message, 8)
	if len(candidates) == 0 {
		return ""
	}

	for _, ref := range candidates {
		tx, err := h.Store.TransactionByOrderRef(ctx, companyID, ref)
		if err != nil {
			continue
		}

		if existing, err := h.Store.RefundRequestByTransaction(ctx, tx.ID); err == nil {
			return fmt.Sprintf("\n[SYSTEM]: Tx %s Verified. Claim EXISTS: %s.", ref, existing.Status)
		}
		return fmt.Sprintf("\n[SYSTEM]: Tx %s Verified. Valid for claim. UUID: %s.", ref, tx.ID)
	}

	// Aucun token vérifié, mais le client parle visiblement de sa commande
	lower := strings.ToLower(message)
	if strings.Contains(lower, "order") || strings.Contains(message, "#") {
		return fmt.Sprintf("\n[SYSTEM]: Tx %s NOT FOUND.", candidates[0])
	}
	return ""
}

// handleAction matérialise la décision finale du LLM : claim, payout,
// escalade. Les erreurs sont tracées mais la réponse client part quand même.
func (h *Handler) handleAction(ctx context.Context, action *ai.Action, req *models.ChatRequest, transcript string) {
	tid := action.TransactionID

	// Le LLM renvoie parfois la référence de commande au lieu de l'UUID
	if tid != "" {
		if _, err := uuid.Parse(tid); err != nil {
			if tx, lookupErr := h.Store.TransactionByOrderRef(ctx, req.CompanyID, tid); lookupErr == nil {
				tid = tx.ID
			} else {
				tid = ""
			}
		}
	}
	if tid == "" {
		return
	}

	tx, err := h.Store.TransactionByID(ctx, tid)
	if err != nil {
		log.Println("⚠️ Transaction introuvable pour l'action IA:", tid)
		return
	}

	// Un seul claim par transaction
	if _, err := h.Store.RefundRequestByTransaction(ctx, tid); err == nil {
		log.Println("⚠️ Claim déjà existant pour la transaction", tid)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Println("❌ Erreur vérification claim existant:", err)
		return
	}

	status := ""
	switch action.Action {
	case ai.ActionRefund:
		status = models.ClaimApproved
	case ai.ActionEscalate:
		status = models.ClaimEscalated
	case ai.ActionReject:
		status = models.ClaimRejected
	default:
		return
	}

	now := time.Now()
	claim := &models.RefundRequest{
		ID:               uuid.New().String(),
		TransactionID:    tx.ID,
		CompanyID:        tx.CompanyID,
		Transcript:       transcript,
		EvidenceImageURL: req.EvidenceImageURL,
		AIAnalysis:       models.AIAnalysis{Reason: action.Reason, Confidence: action.Confidence},
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.Store.CreateRefundRequest(ctx, claim); err != nil {
		log.Println("❌ Erreur création claim:", err)
		return
	}
	services.IndexClaim(*claim)

	switch action.Action {
	case ai.ActionRefund:
		payout := &models.PayoutEntry{
			ID:            uuid.New().String(),
			TransactionID: tx.ID,
			CompanyID:     tx.CompanyID,
			Amount:        tx.Amount,
			Status:        models.PayoutReady,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := h.Store.CreatePayoutEntry(ctx, payout); err != nil {
			log.Println("❌ Erreur création payout:", err)
		}
		if err := h.Store.UpdateTransactionStatus(ctx, tx.ID, models.TransactionRefunded); err != nil {
			log.Println("❌ Erreur mise à jour transaction:", err)
		}

	case ai.ActionEscalate:
		escalation := &models.EscalationRequest{
			ID:            uuid.New().String(),
			TransactionID: tx.ID,
			CompanyID:     tx.CompanyID,
			CustomerRef:   req.CustomerRef,
			Reason:        action.Reason,
			Status:        models.EscalationOpen,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := h.Store.CreateEscalation(ctx, escalation); err != nil {
			log.Println("❌ Erreur création escalade:", err)
			return
		}

		if company, err := h.Store.CompanyByID(ctx, tx.CompanyID); err == nil && company.SupportEmail != "" {
			go func(email, name, reason string) {
				if err := utils.SendEscalationEmail(email, name, reason); err != nil {
					log.Println("⚠️ E-mail d'escalade non envoyé:", err)
				}
			}(company.SupportEmail, company.Name, action.Reason)
		}
	}
}

// buildTranscript aplatit les 3 derniers tours d'historique plus l'échange
// courant, bloc d'action retiré.
func buildTranscript(history []models.ChatMessage, message, cleanReply string) string {
	var sb strings.Builder

	startIdx := 0
	if len(history) > 3 {
		startIdx = len(history) - 3
	}
	for _, m := range history[startIdx:] {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	sb.WriteString("User: ")
	sb.WriteString(message)
	sb.WriteString("\nAI: ")
	sb.WriteString(cleanReply)
	return sb.String()
}
