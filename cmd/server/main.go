package main

import (
	"context"
	"log"
	"os"
	"time"

	"assistance_back_end/internal/ai"
	"assistance_back_end/internal/config"
	"assistance_back_end/internal/database"
	"assistance_back_end/internal/handlers/admin"
	"assistance_back_end/internal/handlers/chat"
	"assistance_back_end/internal/handlers/dashboard"
	"assistance_back_end/internal/handlers/tenant"
	"assistance_back_end/internal/hub"
	"assistance_back_end/internal/routes"
	"assistance_back_end/internal/stats"
	"assistance_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Println("⚠️ STRIPE_SECRET_KEY manquante : les payouts seront traités sans refund Stripe")
	} else {
		log.Println("✅ Stripe initialisé")
	}

	database.ConnectDatabases()

	// Prepared statements pour les requêtes chaudes du flow de chat
	database.InitPreparedStatements()

	// Pré-chauffer le cache Redis
	warmupRedisCache()

	dataStore := store.NewScyllaStore()
	agent := ai.NewClient()
	statsManager := stats.NewManager()
	dashboardHub := hub.New(statsManager)

	// Rafraîchissement périodique des stats du dashboard
	go dashboardHub.StartStatsLoop(10 * time.Second)

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Chat:      chat.NewHandler(dataStore, agent, dashboardHub, statsManager),
		Tenant:    tenant.NewHandler(dataStore),
		Admin:     admin.NewHandler(dataStore, agent, dashboardHub, statsManager),
		Dashboard: dashboard.NewHandler(dashboardHub),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Assistance lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
