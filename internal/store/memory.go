package store

import (
	"context"
	"sync"
	"time"

	"assistance_back_end/internal/models"
)

// MemoryStore est une implémentation en mémoire de Store, utilisée par les
// tests des handlers (pas de cluster ScyllaDB requis).
type MemoryStore struct {
	mu           sync.RWMutex
	companies    map[string]*models.Company
	transactions map[string]*models.Transaction
	refunds      map[string]*models.RefundRequest
	payouts      map[string]*models.PayoutEntry
	escalations  map[string]*models.EscalationRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:    make(map[string]*models.Company),
		transactions: make(map[string]*models.Transaction),
		refunds:      make(map[string]*models.RefundRequest),
		payouts:      make(map[string]*models.PayoutEntry),
		escalations:  make(map[string]*models.EscalationRequest),
	}
}

// --- Tenants ---

func (m *MemoryStore) CreateCompany(_ context.Context, c *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.companies[c.ID] = &cp
	return nil
}

func (m *MemoryStore) CompanyByTagline(_ context.Context, tagline string) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.companies {
		if c.Tagline == tagline {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CompanyByID(_ context.Context, id string) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) UpdateCompanyPolicy(_ context.Context, companyID, policy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return ErrNotFound
	}
	c.ReturnPolicy = policy
	return nil
}

// --- Transactions ---

func (m *MemoryStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *MemoryStore) TransactionByID(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) TransactionByOrderRef(_ context.Context, companyID, orderRef string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.OrderRef == orderRef && (companyID == "" || t.CompanyID == companyID) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateTransactionStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	return nil
}

// --- Refund requests ---

func (m *MemoryStore) CreateRefundRequest(_ context.Context, r *models.RefundRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.refunds[r.ID] = &cp
	return nil
}

func (m *MemoryStore) RefundRequestByID(_ context.Context, id string) (*models.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.refunds[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) RefundRequestByTransaction(_ context.Context, transactionID string) (*models.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.refunds {
		if r.TransactionID == transactionID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) PendingRefundRequests(_ context.Context, companyID string) ([]models.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RefundRequest
	for _, r := range m.refunds {
		if r.CompanyID == companyID && r.Status == models.ClaimPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateRefundRequestStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refunds[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ClearRefundRequestContext(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refunds[id]
	if !ok {
		return ErrNotFound
	}
	r.Transcript = ""
	r.EvidenceImageURL = ""
	r.UpdatedAt = time.Now()
	return nil
}

// --- Payout queue ---

func (m *MemoryStore) CreatePayoutEntry(_ context.Context, p *models.PayoutEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payouts[p.ID] = &cp
	return nil
}

func (m *MemoryStore) PayoutEntryByID(_ context.Context, id string) (*models.PayoutEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ReadyPayoutEntries(_ context.Context, companyID string) ([]models.PayoutEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PayoutEntry
	for _, p := range m.payouts {
		if p.CompanyID == companyID && p.Status == models.PayoutReady {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdatePayoutStatus(_ context.Context, id, status, stripeRefundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	if stripeRefundID != "" {
		p.StripeRefundID = stripeRefundID
	}
	p.UpdatedAt = time.Now()
	return nil
}

// --- Escalations ---

func (m *MemoryStore) CreateEscalation(_ context.Context, e *models.EscalationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.escalations[e.ID] = &cp
	return nil
}

func (m *MemoryStore) EscalationByID(_ context.Context, id string) (*models.EscalationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.escalations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) OpenEscalations(_ context.Context, companyID string) ([]models.EscalationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.EscalationRequest
	for _, e := range m.escalations {
		if e.CompanyID == companyID && e.Status == models.EscalationOpen {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateEscalationStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escalations[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}
