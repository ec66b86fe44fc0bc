package dashboard

import (
	"log"
	"net/http"
	"time"

	"assistance_back_end/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS géré au niveau du routeur
	},
}

type Handler struct {
	Hub *hub.Hub
}

func NewHandler(h *hub.Hub) *Handler {
	return &Handler{Hub: h}
}

// Serve upgrade la connexion du dashboard et l'enregistre auprès du hub.
// La boucle de lecture ne sert qu'à détecter la déconnexion : le dashboard
// n'envoie rien, il écoute.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("❌ Erreur upgrade websocket:", err)
		return
	}

	h.Hub.Register(conn)

	// Ping périodique pour garder les connexions derrière proxy en vie
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}()

	go func() {
		defer h.Hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
