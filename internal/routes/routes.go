package routes

import (
	"net/http"
	"time"

	"assistance_back_end/internal/handlers/admin"
	"assistance_back_end/internal/handlers/chat"
	"assistance_back_end/internal/handlers/dashboard"
	"assistance_back_end/internal/handlers/tenant"
	"assistance_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps regroupe les handlers câblés par le main (ou par les tests).
type Deps struct {
	Chat      *chat.Handler
	Tenant    *tenant.Handler
	Admin     *admin.Handler
	Dashboard *dashboard.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Le widget est embarqué sur les sites des tenants : cross-origin partout
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Page d'accueil, cible des redirections tenant-inconnu
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "assistance", "status": "ok"})
	})

	// Widget public
	r.POST("/api/chat", middleware.ChatRateLimit(), d.Chat.Chat)
	r.POST("/api/upload", middleware.ChatRateLimit(), d.Chat.Upload)
	r.GET("/api/company/:tagline", d.Tenant.GetCompany)
	r.POST("/api/company/register", d.Tenant.Register)

	// Ingestion de commandes : réservée aux admins du tenant
	r.POST("/api/transactions", middleware.AuthRequired(), d.Tenant.IngestTransaction)

	// Dashboard temps réel
	r.GET("/ws", d.Dashboard.Serve)

	// Surface admin
	r.POST("/api/admin/login", middleware.LoginRateLimit(), d.Admin.Login)

	authorized := r.Group("/api/admin")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/claims", d.Admin.PendingClaims)
		authorized.GET("/claims/search", d.Admin.SearchClaims)
		authorized.PUT("/claims/:id", d.Admin.UpdateClaimStatus)
		authorized.PUT("/escalations/:id", d.Admin.UpdateEscalationStatus)
		authorized.POST("/payouts/:id/process", d.Admin.ProcessPayout)
		authorized.PUT("/policy", d.Admin.UpdatePolicy)
		authorized.POST("/policy/refine", d.Admin.RefinePolicy)
	}

	// Page du widget, en dernier : les routes statiques ci-dessus priment
	r.GET("/:tagline", d.Tenant.Page)
}
