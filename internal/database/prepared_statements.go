package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour les requêtes fréquentes du flow de chat
	stmtGetCompanyByTagline *gocql.Query
	stmtGetCompanyByID      *gocql.Query
	stmtGetTxByOrderRef     *gocql.Query
	stmtInsertRefundRequest *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		tenants, err := GetTenantsSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements (tenants): %v", err)
			return
		}

		stmtGetCompanyByTagline = tenants.Query(`SELECT company_id, name, tagline, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at
			FROM companies_by_tagline WHERE tagline = ?`)

		stmtGetCompanyByID = tenants.Query(`SELECT name, tagline, description, banner_color, industry, support_email, return_policy, admin_username, admin_password, created_at
			FROM companies WHERE company_id = ?`)

		claims, err := GetClaimsSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements (claims): %v", err)
			return
		}

		stmtGetTxByOrderRef = claims.Query(`SELECT transaction_id, company_id, customer_ref, order_ref, amount, currency, items, payment_intent_id, status, purchased_at, created_at
			FROM transactions_by_order_ref WHERE order_ref = ?`)

		stmtInsertRefundRequest = claims.Query(`INSERT INTO refund_requests (request_id, transaction_id, company_id, user_transcript, evidence_image_url, ai_analysis_json, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		log.Println("✅ Prepared statements initialisés")
	})
}

func GetPreparedCompanyByTagline() *gocql.Query {
	return stmtGetCompanyByTagline
}

func GetPreparedCompanyByID() *gocql.Query {
	return stmtGetCompanyByID
}

func GetPreparedTxByOrderRef() *gocql.Query {
	return stmtGetTxByOrderRef
}

func GetPreparedInsertRefundRequest() *gocql.Query {
	return stmtInsertRefundRequest
}
