package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/company/:tagline", h.GetCompany)
	r.POST("/api/company/register", h.Register)
	r.POST("/api/transactions", h.IngestTransaction)
	r.GET("/:tagline", h.Page)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const strictPolicy = "STRICT: refunds only with photographic proof of damage, within 7 days."

func seedCompany(t *testing.T, s *store.MemoryStore) *models.Company {
	t.Helper()
	company := &models.Company{
		ID:           "3f1c2a9e-0000-4000-8000-00000000c001",
		Name:         "TechNova",
		Tagline:      "technova",
		Description:  "Electronics support",
		BannerColor:  "#1E3A8A",
		ReturnPolicy: strictPolicy,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateCompany(context.Background(), company))
	return company
}

func TestGetCompanyReturnsExactPolicy(t *testing.T) {
	s := store.NewMemoryStore()
	seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodGet, "/api/company/technova", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "TechNova", got.Name)
	// La politique doit sortir mot pour mot : c'est elle qui pilote l'IA
	assert.Equal(t, strictPolicy, got.ReturnPolicy)
	// Les identifiants admin ne sortent jamais
	assert.NotContains(t, w.Body.String(), "admin_password")
}

func TestGetCompanyIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	first := doJSON(t, r, http.MethodGet, "/api/company/technova", nil)
	second := doJSON(t, r, http.MethodGet, "/api/company/technova", nil)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestGetCompanyUnknownTagline(t *testing.T) {
	r := newTestRouter(NewHandler(store.NewMemoryStore()))

	w := doJSON(t, r, http.MethodGet, "/api/company/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageRendersBranding(t *testing.T) {
	s := store.NewMemoryStore()
	seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodGet, "/technova", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TechNova")
	assert.Contains(t, w.Body.String(), "#1E3A8A")
}

func TestPageUnknownTaglineRedirectsHome(t *testing.T) {
	r := newTestRouter(NewHandler(store.NewMemoryStore()))

	w := doJSON(t, r, http.MethodGet, "/ghost", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	s := store.NewMemoryStore()
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodPost, "/api/company/register", gin.H{
		"name":    "CozyWear",
		"tagline": "cozywear",
		"policy":  "LENIENT: when in doubt, refund.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Company       models.Company `json:"company"`
		AdminUsername string         `json:"admin_username"`
		AdminPassword string         `json:"admin_password"`
		WebsiteURL    string         `json:"website_url"`
		QRCodeBase64  string         `json:"qr_code_base64"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Regexp(t, `^admin_\d{5}$`, resp.AdminUsername)
	assert.Len(t, resp.AdminPassword, 12)
	assert.Contains(t, resp.WebsiteURL, "/cozywear")
	assert.NotEmpty(t, resp.QRCodeBase64)

	// Le mot de passe n'est stocké que hashé, et le hash vérifie le clair
	stored, err := s.CompanyByTagline(context.Background(), "cozywear")
	require.NoError(t, err)
	assert.NotEqual(t, resp.AdminPassword, stored.AdminPassword)

	ok, err := utils.VerifyPassword(resp.AdminPassword, stored.AdminPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterDuplicateTagline(t *testing.T) {
	s := store.NewMemoryStore()
	seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodPost, "/api/company/register", gin.H{
		"name":    "Impostor",
		"tagline": "technova",
		"policy":  "whatever",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(NewHandler(store.NewMemoryStore()))

	w := doJSON(t, r, http.MethodPost, "/api/company/register", gin.H{"name": "NoTagline"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Transactions ---

func TestIngestTransaction(t *testing.T) {
	s := store.NewMemoryStore()
	company := seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"company_id": company.ID,
		"order_ref":  "TN-1001",
		"amount":     249.99,
		"items":      `[{"name":"Headphones","qty":1}]`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tx, err := s.TransactionByOrderRef(context.Background(), company.ID, "TN-1001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, tx.Status)
	assert.Equal(t, 249.99, tx.Amount)
	assert.Equal(t, "EUR", tx.Currency)
}

func TestIngestTransactionDuplicateOrderRef(t *testing.T) {
	s := store.NewMemoryStore()
	company := seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	payload := gin.H{"company_id": company.ID, "order_ref": "TN-1001", "amount": 10.0}
	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/transactions", payload).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPost, "/api/transactions", payload).Code)
}

func TestIngestTransactionUnknownCompany(t *testing.T) {
	r := newTestRouter(NewHandler(store.NewMemoryStore()))

	w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"company_id": "3f1c2a9e-0000-4000-8000-00000000dead",
		"order_ref":  "X-1",
		"amount":     5.0,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngestTransactionTokenScopesTenant(t *testing.T) {
	s := store.NewMemoryStore()
	company := seedCompany(t, s)
	h := NewHandler(s)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Simule le middleware JWT : le token porte le company_id du tenant
	r.POST("/api/transactions", func(c *gin.Context) {
		c.Set("company_id", company.ID)
	}, h.IngestTransaction)

	// Un body qui désigne un autre tenant est refusé
	w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"company_id": "3f1c2a9e-0000-4000-8000-00000000beef",
		"order_ref":  "TN-3001",
		"amount":     42.0,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Sans company_id dans le body, celui du token fait foi
	w = doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"order_ref": "TN-3001",
		"amount":    42.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tx, err := s.TransactionByOrderRef(context.Background(), company.ID, "TN-3001")
	require.NoError(t, err)
	assert.Equal(t, company.ID, tx.CompanyID)
}

func TestIngestTransactionRejectsNonPositiveAmount(t *testing.T) {
	s := store.NewMemoryStore()
	company := seedCompany(t, s)
	r := newTestRouter(NewHandler(s))

	w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"company_id": company.ID,
		"order_ref":  "TN-NEG",
		"amount":     -3.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
