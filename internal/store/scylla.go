package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"assistance_back_end/internal/database"
	"assistance_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// ScyllaStore implémente Store au-dessus des keyspaces tenants et claims.
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

func toUUID(id string) (gocql.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return gocql.UUID{}, ErrNotFound
	}
	return gocql.UUID(uid), nil
}

func mapErr(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// =============================================
// TENANTS
// =============================================

func (s *ScyllaStore) CreateCompany(_ context.Context, c *models.Company) error {
	session, err := database.GetTenantsSession()
	if err != nil {
		return err
	}

	cid, err := toUUID(c.ID)
	if err != nil {
		return err
	}

	// Double écriture : companies + companies_by_tagline (lookup par slug)
	if err := session.Query(`INSERT INTO companies (company_id, name, tagline, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cid, c.Name, c.Tagline, c.Description, c.BannerColor, c.Industry, c.SupportEmail, c.ReturnPolicy, c.AdminUsername, c.AdminPassword, c.CreatedAt).Exec(); err != nil {
		return err
	}

	return session.Query(`INSERT INTO companies_by_tagline (tagline, company_id, name, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Tagline, cid, c.Name, c.Description, c.BannerColor, c.Industry, c.SupportEmail, c.ReturnPolicy, c.AdminUsername, c.AdminPassword, c.CreatedAt).Exec()
}

func (s *ScyllaStore) CompanyByTagline(_ context.Context, tagline string) (*models.Company, error) {
	q := database.GetPreparedCompanyByTagline()
	if q == nil {
		session, err := database.GetTenantsSession()
		if err != nil {
			return nil, err
		}
		q = session.Query(`SELECT company_id, name, tagline, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at
			FROM companies_by_tagline WHERE tagline = ?`)
	}

	var (
		cid       gocql.UUID
		c         models.Company
		createdAt time.Time
	)
	err := q.Bind(tagline).Scan(&cid, &c.Name, &c.Tagline, &c.Description, &c.BannerColor, &c.Industry, &c.SupportEmail, &c.ReturnPolicy, &c.AdminUsername, &c.AdminPassword, &createdAt)
	if err != nil {
		return nil, mapErr(err)
	}
	c.ID = cid.String()
	c.CreatedAt = createdAt
	return &c, nil
}

func (s *ScyllaStore) CompanyByID(_ context.Context, id string) (*models.Company, error) {
	cid, err := toUUID(id)
	if err != nil {
		return nil, err
	}

	q := database.GetPreparedCompanyByID()
	if q == nil {
		session, err := database.GetTenantsSession()
		if err != nil {
			return nil, err
		}
		q = session.Query(`SELECT name, tagline, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at
			FROM companies WHERE company_id = ?`)
	}

	var (
		c         models.Company
		createdAt time.Time
	)
	err = q.Bind(cid).Scan(&c.Name, &c.Tagline, &c.Description, &c.BannerColor, &c.Industry, &c.SupportEmail, &c.ReturnPolicy, &c.AdminUsername, &c.AdminPassword, &createdAt)
	if err != nil {
		return nil, mapErr(err)
	}
	c.ID = id
	c.CreatedAt = createdAt
	return &c, nil
}

func (s *ScyllaStore) UpdateCompanyPolicy(_ context.Context, companyID, policy string) error {
	session, err := database.GetTenantsSession()
	if err != nil {
		return err
	}

	cid, err := toUUID(companyID)
	if err != nil {
		return err
	}

	var tagline string
	if err := session.Query("SELECT tagline FROM companies WHERE company_id = ?", cid).Scan(&tagline); err != nil {
		return mapErr(err)
	}

	if err := session.Query("UPDATE companies SET return_policy = ? WHERE company_id = ?", policy, cid).Exec(); err != nil {
		return err
	}
	return session.Query("UPDATE companies_by_tagline SET return_policy = ? WHERE tagline = ?", policy, tagline).Exec()
}

// =============================================
// TRANSACTIONS
// =============================================

func (s *ScyllaStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	tid, err := toUUID(t.ID)
	if err != nil {
		return err
	}
	cid, err := toUUID(t.CompanyID)
	if err != nil {
		return err
	}

	if err := session.Query(`INSERT INTO transactions (transaction_id, company_id, customer_ref, order_ref, amount, currency, items, payment_intent_id, status, purchased_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tid, cid, t.CustomerRef, t.OrderRef, t.Amount, t.Currency, t.Items, t.PaymentIntentID, t.Status, t.PurchasedAt, t.CreatedAt).Exec(); err != nil {
		return err
	}

	return session.Query(`INSERT INTO transactions_by_order_ref (order_ref, transaction_id, company_id, customer_ref, amount, currency, items, payment_intent_id, status, purchased_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderRef, tid, cid, t.CustomerRef, t.Amount, t.Currency, t.Items, t.PaymentIntentID, t.Status, t.PurchasedAt, t.CreatedAt).Exec()
}

func (s *ScyllaStore) TransactionByID(_ context.Context, id string) (*models.Transaction, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	tid, err := toUUID(id)
	if err != nil {
		return nil, err
	}

	var (
		cid gocql.UUID
		t   models.Transaction
	)
	err = session.Query(`SELECT company_id, customer_ref, order_ref, amount, currency, items, payment_intent_id, status, purchased_at, created_at
		FROM transactions WHERE transaction_id = ?`, tid).Scan(
		&cid, &t.CustomerRef, &t.OrderRef, &t.Amount, &t.Currency, &t.Items, &t.PaymentIntentID, &t.Status, &t.PurchasedAt, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	t.ID = id
	t.CompanyID = cid.String()
	return &t, nil
}

func (s *ScyllaStore) TransactionByOrderRef(_ context.Context, companyID, orderRef string) (*models.Transaction, error) {
	q := database.GetPreparedTxByOrderRef()
	if q == nil {
		session, err := database.GetClaimsSession()
		if err != nil {
			return nil, err
		}
		q = session.Query(`SELECT transaction_id, company_id, customer_ref, order_ref, amount, currency, items, payment_intent_id, status, purchased_at, created_at
			FROM transactions_by_order_ref WHERE order_ref = ?`)
	}

	iter := q.Bind(orderRef).Iter()
	var (
		tid, cid gocql.UUID
		t        models.Transaction
	)
	for iter.Scan(&tid, &cid, &t.CustomerRef, &t.OrderRef, &t.Amount, &t.Currency, &t.Items, &t.PaymentIntentID, &t.Status, &t.PurchasedAt, &t.CreatedAt) {
		// Le même order_ref peut exister chez plusieurs tenants
		if companyID == "" || cid.String() == companyID {
			t.ID = tid.String()
			t.CompanyID = cid.String()
			iter.Close()
			return &t, nil
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func (s *ScyllaStore) UpdateTransactionStatus(_ context.Context, id, status string) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	tid, err := toUUID(id)
	if err != nil {
		return err
	}

	var orderRef string
	if err := session.Query("SELECT order_ref FROM transactions WHERE transaction_id = ?", tid).Scan(&orderRef); err != nil {
		return mapErr(err)
	}

	if err := session.Query("UPDATE transactions SET status = ? WHERE transaction_id = ?", status, tid).Exec(); err != nil {
		return err
	}
	return session.Query("UPDATE transactions_by_order_ref SET status = ? WHERE order_ref = ? AND transaction_id = ?", status, orderRef, tid).Exec()
}

// =============================================
// REFUND REQUESTS
// =============================================

func (s *ScyllaStore) CreateRefundRequest(_ context.Context, r *models.RefundRequest) error {
	rid, err := toUUID(r.ID)
	if err != nil {
		return err
	}
	tid, err := toUUID(r.TransactionID)
	if err != nil {
		return err
	}
	cid, err := toUUID(r.CompanyID)
	if err != nil {
		return err
	}

	analysisJSON, _ := json.Marshal(r.AIAnalysis)

	q := database.GetPreparedInsertRefundRequest()
	if q == nil {
		session, err := database.GetClaimsSession()
		if err != nil {
			return err
		}
		q = session.Query(`INSERT INTO refund_requests (request_id, transaction_id, company_id, user_transcript, evidence_image_url, ai_analysis_json, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	}
	return q.Bind(rid, tid, cid, r.Transcript, r.EvidenceImageURL, string(analysisJSON), r.Status, r.CreatedAt, r.UpdatedAt).Exec()
}

func scanRefundRequest(iter *gocql.Iter, r *models.RefundRequest) bool {
	var (
		rid, tid, cid gocql.UUID
		analysisJSON  string
	)
	if !iter.Scan(&rid, &tid, &cid, &r.Transcript, &r.EvidenceImageURL, &analysisJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt) {
		return false
	}
	r.ID = rid.String()
	r.TransactionID = tid.String()
	r.CompanyID = cid.String()
	r.AIAnalysis = models.AIAnalysis{}
	json.Unmarshal([]byte(analysisJSON), &r.AIAnalysis)
	return true
}

const refundRequestColumns = `request_id, transaction_id, company_id, user_transcript, evidence_image_url, ai_analysis_json, status, created_at, updated_at`

func (s *ScyllaStore) RefundRequestByID(_ context.Context, id string) (*models.RefundRequest, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	rid, err := toUUID(id)
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT "+refundRequestColumns+" FROM refund_requests WHERE request_id = ?", rid).Iter()
	var r models.RefundRequest
	if !scanRefundRequest(iter, &r) {
		if err := iter.Close(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	iter.Close()
	return &r, nil
}

func (s *ScyllaStore) RefundRequestByTransaction(_ context.Context, transactionID string) (*models.RefundRequest, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	tid, err := toUUID(transactionID)
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT "+refundRequestColumns+" FROM refund_requests WHERE transaction_id = ? ALLOW FILTERING", tid).Iter()
	var r models.RefundRequest
	if !scanRefundRequest(iter, &r) {
		if err := iter.Close(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	iter.Close()
	return &r, nil
}

func (s *ScyllaStore) PendingRefundRequests(_ context.Context, companyID string) ([]models.RefundRequest, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	cid, err := toUUID(companyID)
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT "+refundRequestColumns+" FROM refund_requests WHERE company_id = ? AND status = ? ALLOW FILTERING", cid, models.ClaimPending).Iter()

	var requests []models.RefundRequest
	var r models.RefundRequest
	for scanRefundRequest(iter, &r) {
		requests = append(requests, r)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *ScyllaStore) UpdateRefundRequestStatus(_ context.Context, id, status string) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	rid, err := toUUID(id)
	if err != nil {
		return err
	}
	return session.Query("UPDATE refund_requests SET status = ?, updated_at = ? WHERE request_id = ?", status, time.Now(), rid).Exec()
}

func (s *ScyllaStore) ClearRefundRequestContext(_ context.Context, id string) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	rid, err := toUUID(id)
	if err != nil {
		return err
	}
	return session.Query("UPDATE refund_requests SET user_transcript = '', evidence_image_url = '', updated_at = ? WHERE request_id = ?", time.Now(), rid).Exec()
}

// =============================================
// PAYOUT QUEUE
// =============================================

func (s *ScyllaStore) CreatePayoutEntry(_ context.Context, p *models.PayoutEntry) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	pid, err := toUUID(p.ID)
	if err != nil {
		return err
	}
	tid, err := toUUID(p.TransactionID)
	if err != nil {
		return err
	}
	cid, err := toUUID(p.CompanyID)
	if err != nil {
		return err
	}

	return session.Query(`INSERT INTO company_refund_queue (payout_id, transaction_id, company_id, amount, status, stripe_refund_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, tid, cid, p.Amount, p.Status, p.StripeRefundID, p.CreatedAt, p.UpdatedAt).Exec()
}

func (s *ScyllaStore) PayoutEntryByID(_ context.Context, id string) (*models.PayoutEntry, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	pid, err := toUUID(id)
	if err != nil {
		return nil, err
	}

	var (
		tid, cid gocql.UUID
		p        models.PayoutEntry
	)
	err = session.Query(`SELECT transaction_id, company_id, amount, status, stripe_refund_id, created_at, updated_at
		FROM company_refund_queue WHERE payout_id = ?`, pid).Scan(&tid, &cid, &p.Amount, &p.Status, &p.StripeRefundID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	p.ID = id
	p.TransactionID = tid.String()
	p.CompanyID = cid.String()
	return &p, nil
}

func (s *ScyllaStore) ReadyPayoutEntries(_ context.Context, companyID string) ([]models.PayoutEntry, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	cid, err := toUUID(companyID)
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT payout_id, transaction_id, company_id, amount, status, stripe_refund_id, created_at, updated_at
		FROM company_refund_queue WHERE company_id = ? AND status = ? ALLOW FILTERING`, cid, models.PayoutReady).Iter()

	var entries []models.PayoutEntry
	var (
		pid, tid, ecid gocql.UUID
		p              models.PayoutEntry
	)
	for iter.Scan(&pid, &tid, &ecid, &p.Amount, &p.Status, &p.StripeRefundID, &p.CreatedAt, &p.UpdatedAt) {
		p.ID = pid.String()
		p.TransactionID = tid.String()
		p.CompanyID = ecid.String()
		entries = append(entries, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ScyllaStore) UpdatePayoutStatus(_ context.Context, id, status, stripeRefundID string) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	pid, err := toUUID(id)
	if err != nil {
		return err
	}
	return session.Query("UPDATE company_refund_queue SET status = ?, stripe_refund_id = ?, updated_at = ? WHERE payout_id = ?",
		status, stripeRefundID, time.Now(), pid).Exec()
}

// =============================================
// ESCALATIONS
// =============================================

func (s *ScyllaStore) CreateEscalation(_ context.Context, e *models.EscalationRequest) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	eid, err := toUUID(e.ID)
	if err != nil {
		return err
	}
	cid, err := toUUID(e.CompanyID)
	if err != nil {
		return err
	}

	var tid *gocql.UUID
	if e.TransactionID != "" {
		t, err := toUUID(e.TransactionID)
		if err != nil {
			return err
		}
		tid = &t
	}

	return session.Query(`INSERT INTO escalation_requests (escalation_id, transaction_id, company_id, customer_ref, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		eid, tid, cid, e.CustomerRef, e.Reason, e.Status, e.CreatedAt, e.UpdatedAt).Exec()
}

func (s *ScyllaStore) EscalationByID(_ context.Context, id string) (*models.EscalationRequest, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	eid, err := toUUID(id)
	if err != nil {
		return nil, err
	}

	var (
		tid *gocql.UUID
		cid gocql.UUID
		e   models.EscalationRequest
	)
	err = session.Query(`SELECT transaction_id, company_id, customer_ref, reason, status, created_at, updated_at
		FROM escalation_requests WHERE escalation_id = ?`, eid).Scan(&tid, &cid, &e.CustomerRef, &e.Reason, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	e.ID = id
	e.CompanyID = cid.String()
	if tid != nil {
		e.TransactionID = tid.String()
	}
	return &e, nil
}

func (s *ScyllaStore) OpenEscalations(_ context.Context, companyID string) ([]models.EscalationRequest, error) {
	session, err := database.GetClaimsSession()
	if err != nil {
		return nil, err
	}

	cid, err := toUUID(companyID)
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT escalation_id, transaction_id, company_id, customer_ref, reason, status, created_at, updated_at
		FROM escalation_requests WHERE company_id = ? AND status = ? ALLOW FILTERING`, cid, models.EscalationOpen).Iter()

	var escalations []models.EscalationRequest
	var (
		eid, ecid gocql.UUID
		tid       *gocql.UUID
		e         models.EscalationRequest
	)
	for iter.Scan(&eid, &tid, &ecid, &e.CustomerRef, &e.Reason, &e.Status, &e.CreatedAt, &e.UpdatedAt) {
		e.ID = eid.String()
		e.CompanyID = ecid.String()
		e.TransactionID = ""
		if tid != nil {
			e.TransactionID = tid.String()
		}
		escalations = append(escalations, e)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return escalations, nil
}

func (s *ScyllaStore) UpdateEscalationStatus(_ context.Context, id, status string) error {
	session, err := database.GetClaimsSession()
	if err != nil {
		return err
	}

	eid, err := toUUID(id)
	if err != nil {
		return err
	}
	return session.Query("UPDATE escalation_requests SET status = ?, updated_at = ? WHERE escalation_id = ?", status, time.Now(), eid).Exec()
}
