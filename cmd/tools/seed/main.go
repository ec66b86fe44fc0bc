// Commande de seed : crée deux tenants de démonstration avec des politiques
// opposées (TechNova stricte, CozyWear permissive) et quelques transactions.
package main

import (
	"context"
	"log"
	"time"

	"assistance_back_end/internal/config"
	"assistance_back_end/internal/database"
	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"
	"assistance_back_end/internal/utils"

	"github.com/google/uuid"
)

const techNovaPolicy = `TechNova Return Policy (STRICT):
- Refunds are ONLY issued for items that arrive physically damaged, with photographic proof.
- Proof must be a real photo of the damaged item. Screenshots are NOT accepted.
- Claims must be filed within 7 days of delivery.
- Change of mind, wrong size or "no longer needed" are NOT eligible.
- Any ambiguous case MUST be escalated to human review.`

const cozyWearPolicy = `CozyWear Return Policy (LENIENT):
- We want happy customers: refunds are issued for damaged items, wrong sizes and change of mind.
- Photographic proof is appreciated for damage claims but not mandatory.
- Claims are accepted within 30 days of delivery.
- When in doubt, refund the customer.`

func main() {
	config.Load()
	database.ConnectDatabases()

	s := store.NewScyllaStore()
	ctx := context.Background()

	seedCompany(ctx, s, "TechNova", "technova", "#1E3A8A", "Electronics",
		"support@technova.example", techNovaPolicy, []seedTx{
			{order: "TN-1001", amount: 249.99, items: `[{"name":"Wireless Headphones","qty":1}]`},
			{order: "TN-1002", amount: 89.50, items: `[{"name":"Mechanical Keyboard","qty":1}]`},
		})

	seedCompany(ctx, s, "CozyWear", "cozywear", "#B45309", "Apparel",
		"hello@cozywear.example", cozyWearPolicy, []seedTx{
			{order: "CW-2001", amount: 59.90, items: `[{"name":"Wool Sweater","qty":1}]`},
			{order: "CW-2002", amount: 34.00, items: `[{"name":"Knit Beanie","qty":2}]`},
		})

	log.Println("✅ Seed terminé")
}

type seedTx struct {
	order  string
	amount float64
	items  string
}

func seedCompany(ctx context.Context, s store.Store, name, tagline, color, industry, email, policy string, txs []seedTx) {
	if existing, err := s.CompanyByTagline(ctx, tagline); err == nil {
		log.Printf("⚠️ Tenant %s déjà présent (%s), transactions seulement", name, existing.ID)
		seedTransactions(ctx, s, existing.ID, txs)
		return
	}

	password, err := utils.GeneratePassword(12)
	if err != nil {
		log.Fatalf("❌ Génération mot de passe: %v", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("❌ Hash mot de passe: %v", err)
	}

	company := &models.Company{
		ID:            uuid.New().String(),
		Name:          name,
		Tagline:       tagline,
		Description:   name + " customer support",
		BannerColor:   color,
		Industry:      industry,
		SupportEmail:  email,
		ReturnPolicy:  policy,
		AdminUsername: "admin_" + tagline,
		AdminPassword: hash,
		CreatedAt:     time.Now(),
	}

	if err := s.CreateCompany(ctx, company); err != nil {
		log.Fatalf("❌ Création tenant %s: %v", name, err)
	}

	log.Printf("✅ Tenant %s créé — login: %s / %s", name, company.AdminUsername, password)
	seedTransactions(ctx, s, company.ID, txs)
}

func seedTransactions(ctx context.Context, s store.Store, companyID string, txs []seedTx) {
	for _, t := range txs {
		if _, err := s.TransactionByOrderRef(ctx, companyID, t.order); err == nil {
			continue
		}

		tx := &models.Transaction{
			ID:          uuid.New().String(),
			CompanyID:   companyID,
			CustomerRef: "demo-customer",
			OrderRef:    t.order,
			Amount:      t.amount,
			Currency:    "EUR",
			Items:       t.items,
			Status:      models.TransactionCompleted,
			PurchasedAt: time.Now().AddDate(0, 0, -3),
			CreatedAt:   time.Now(),
		}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			log.Printf("❌ Transaction %s: %v", t.order, err)
			continue
		}
		log.Printf("💰 Transaction %s (%.2f €)", t.order, t.amount)
	}
}
