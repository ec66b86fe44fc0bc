package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/stats"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAgent struct {
	reply string
	err   error
}

func (a *scriptedAgent) Chat(_ context.Context, _ string, _ []models.ChatMessage, _ string) (string, error) {
	return a.reply, a.err
}
func (a *scriptedAgent) AnalyzeImage(_ context.Context, _, _ string, _ []byte) (string, error) {
	return a.reply, a.err
}
func (a *scriptedAgent) GenerateText(_ context.Context, _ string) (string, error) {
	return a.reply, a.err
}

const (
	companyID      = "3f1c2a9e-0000-4000-8000-00000000c001"
	otherCompanyID = "3f1c2a9e-0000-4000-8000-00000000c002"
)

// newTestRouter monte la surface admin avec un middleware qui pose le
// company_id comme le ferait AuthRequired.
func newTestRouter(h *Handler, authedCompanyID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.POST("/api/admin/login", h.Login)

	authed := r.Group("/api/admin")
	authed.Use(func(c *gin.Context) {
		c.Set("company_id", authedCompanyID)
		c.Next()
	})
	{
		authed.GET("/claims", h.PendingClaims)
		authed.PUT("/claims/:id", h.UpdateClaimStatus)
		authed.PUT("/escalations/:id", h.UpdateEscalationStatus)
		authed.POST("/payouts/:id/process", h.ProcessPayout)
		authed.PUT("/policy", h.UpdatePolicy)
		authed.POST("/policy/refine", h.RefinePolicy)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func seedStore(t *testing.T) (*store.MemoryStore, *models.Transaction, *models.RefundRequest) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateCompany(ctx, &models.Company{
		ID:           companyID,
		Name:         "TechNova",
		Tagline:      "technova",
		ReturnPolicy: "Strict policy",
	}))

	tx := &models.Transaction{
		ID:        "3f1c2a9e-0000-4000-8000-0000000000a1",
		CompanyID: companyID,
		OrderRef:  "TN-1001",
		Amount:    249.99,
		Currency:  "EUR",
		Status:    models.TransactionCompleted,
	}
	require.NoError(t, s.CreateTransaction(ctx, tx))

	claim := &models.RefundRequest{
		ID:            "3f1c2a9e-0000-4000-8000-0000000000f1",
		TransactionID: tx.ID,
		CompanyID:     companyID,
		Transcript:    "User: it broke\nAI: sorry to hear",
		AIAnalysis:    models.AIAnalysis{Reason: "Needs review"},
		Status:        models.ClaimPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, s.CreateRefundRequest(ctx, claim))

	return s, tx, claim
}

// --- Login ---

func TestLogin(t *testing.T) {
	s := store.NewMemoryStore()
	hash, err := utils.HashPassword("s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, s.CreateCompany(context.Background(), &models.Company{
		ID:            companyID,
		Name:          "TechNova",
		Tagline:       "technova",
		AdminUsername: "admin_00042",
		AdminPassword: hash,
	}))

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{
			"tagline": "technova", "username": "admin_00042", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["token"])
		assert.Equal(t, companyID, resp["company_id"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{
			"tagline": "technova", "username": "admin_00042", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong username", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{
			"tagline": "technova", "username": "admin_99999", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown tagline", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{
			"tagline": "ghost", "username": "admin_00042", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// --- Claims ---

func TestPendingClaimsEnrichment(t *testing.T) {
	s, tx, claim := seedStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePayoutEntry(ctx, &models.PayoutEntry{
		ID:            "3f1c2a9e-0000-4000-8000-0000000000b1",
		TransactionID: tx.ID,
		CompanyID:     companyID,
		Amount:        tx.Amount,
		Status:        models.PayoutReady,
	}))
	require.NoError(t, s.CreateEscalation(ctx, &models.EscalationRequest{
		ID:            "3f1c2a9e-0000-4000-8000-0000000000e1",
		TransactionID: tx.ID,
		CompanyID:     companyID,
		Reason:        "Ambiguous",
		Status:        models.EscalationOpen,
	}))

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodGet, "/api/admin/claims", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RefundRequests []models.RefundRequest `json:"refund_requests"`
		Escalations    []map[string]any       `json:"escalations"`
		PayoutQueue    []map[string]any       `json:"payout_queue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.RefundRequests, 1)
	require.Len(t, resp.PayoutQueue, 1)
	require.Len(t, resp.Escalations, 1)

	// Payouts et escalades portent le contexte du claim lié
	assert.Equal(t, claim.Transcript, resp.PayoutQueue[0]["context"])
	assert.Equal(t, "Needs review", resp.PayoutQueue[0]["ai_reason"])
	assert.Equal(t, claim.Transcript, resp.Escalations[0]["context"])
}

func TestUpdateClaimStatusApproveCreatesPayout(t *testing.T) {
	s, tx, claim := seedStore(t)

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/"+claim.ID, gin.H{"status": models.ClaimApproved})
	require.Equal(t, http.StatusOK, w.Code)

	ctx := context.Background()

	updated, err := s.RefundRequestByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, updated.Status)

	payouts, err := s.ReadyPayoutEntries(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, tx.Amount, payouts[0].Amount)

	refreshedTx, err := s.TransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionRefunded, refreshedTx.Status)
}

func TestUpdateClaimStatusRejectCreatesNoPayout(t *testing.T) {
	s, _, claim := seedStore(t)

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/"+claim.ID, gin.H{"status": models.ClaimRejected})
	require.Equal(t, http.StatusOK, w.Code)

	payouts, err := s.ReadyPayoutEntries(context.Background(), companyID)
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func TestUpdateClaimStatusInvalidTransition(t *testing.T) {
	s, _, claim := seedStore(t)
	require.NoError(t, s.UpdateRefundRequestStatus(context.Background(), claim.ID, models.ClaimRejected))

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/"+claim.ID, gin.H{"status": models.ClaimApproved})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateClaimStatusNotFound(t *testing.T) {
	s, _, _ := seedStore(t)
	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/3f1c2a9e-0000-4000-8000-00000000dead", gin.H{"status": models.ClaimApproved})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateClaimStatusWrongCompany(t *testing.T) {
	s, _, claim := seedStore(t)
	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, otherCompanyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/"+claim.ID, gin.H{"status": models.ClaimApproved})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateClaimStatusClearContext(t *testing.T) {
	s, _, claim := seedStore(t)
	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/claims/"+claim.ID, gin.H{
		"status":        models.ClaimRejected,
		"clear_context": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := s.RefundRequestByID(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Transcript)
	assert.Empty(t, updated.EvidenceImageURL)
}

// --- Escalations ---

func TestUpdateEscalationStatus(t *testing.T) {
	s, tx, _ := seedStore(t)
	ctx := context.Background()

	escalation := &models.EscalationRequest{
		ID:            "3f1c2a9e-0000-4000-8000-0000000000e1",
		TransactionID: tx.ID,
		CompanyID:     companyID,
		Reason:        "Needs a human",
		Status:        models.EscalationOpen,
	}
	require.NoError(t, s.CreateEscalation(ctx, escalation))

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/escalations/"+escalation.ID, gin.H{"status": models.EscalationInProgress})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/admin/escalations/"+escalation.ID, gin.H{"status": models.EscalationResolved})
	require.Equal(t, http.StatusOK, w.Code)

	// RESOLVED est terminal
	w = doJSON(t, r, http.MethodPut, "/api/admin/escalations/"+escalation.ID, gin.H{"status": models.EscalationOpen})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// --- Payouts ---

func TestProcessPayout(t *testing.T) {
	s, tx, _ := seedStore(t)
	ctx := context.Background()

	payout := &models.PayoutEntry{
		ID:            "3f1c2a9e-0000-4000-8000-0000000000b1",
		TransactionID: tx.ID,
		CompanyID:     companyID,
		Amount:        tx.Amount,
		Status:        models.PayoutReady,
	}
	require.NoError(t, s.CreatePayoutEntry(ctx, payout))

	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/admin/payouts/%s/process", payout.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	processed, err := s.PayoutEntryByID(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutProcessed, processed.Status)

	// Déjà traité : pas de double paiement
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/admin/payouts/%s/process", payout.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAmountToCentsRounds(t *testing.T) {
	// 0.29 et 0.58 tombent juste sous le centime en float64 : la troncature
	// rendrait 28 et 57
	assert.Equal(t, int64(29), amountToCents(0.29))
	assert.Equal(t, int64(58), amountToCents(0.58))
	assert.Equal(t, int64(24999), amountToCents(249.99))
	assert.Equal(t, int64(100), amountToCents(1.0))
}

// --- Policy ---

func TestUpdatePolicy(t *testing.T) {
	s, _, _ := seedStore(t)
	h := NewHandler(s, &scriptedAgent{}, nil, stats.NewManager())
	r := newTestRouter(h, companyID)

	w := doJSON(t, r, http.MethodPut, "/api/admin/policy", gin.H{"policy": "New lenient policy"})
	require.Equal(t, http.StatusOK, w.Code)

	company, err := s.CompanyByID(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "New lenient policy", company.ReturnPolicy)
}

func TestRefinePolicy(t *testing.T) {
	s, _, _ := seedStore(t)

	t.Run("agent rewrites policy", func(t *testing.T) {
		h := NewHandler(s, &scriptedAgent{reply: "Refined policy text"}, nil, stats.NewManager())
		r := newTestRouter(h, companyID)

		w := doJSON(t, r, http.MethodPost, "/api/admin/policy/refine", gin.H{
			"issue_context":       "A valid claim was rejected",
			"correction_feedback": "Accept photos taken in low light",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Refined policy text", resp["policy"])
		assert.Equal(t, true, resp["refined"])

		company, err := s.CompanyByID(context.Background(), companyID)
		require.NoError(t, err)
		assert.Equal(t, "Refined policy text", company.ReturnPolicy)
	})

	t.Run("agent failure keeps current policy", func(t *testing.T) {
		h := NewHandler(s, &scriptedAgent{err: fmt.Errorf("upstream down")}, nil, stats.NewManager())
		r := newTestRouter(h, companyID)

		before, err := s.CompanyByID(context.Background(), companyID)
		require.NoError(t, err)

		w := doJSON(t, r, http.MethodPost, "/api/admin/policy/refine", gin.H{
			"issue_context":       "context",
			"correction_feedback": "feedback",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, before.ReturnPolicy, resp["policy"])
		assert.Equal(t, false, resp["refined"])
	})
}
