// Package hub diffuse les événements temps réel du dashboard à tous les
// clients websocket connectés. Best-effort : pas de backlog ni de replay,
// un client connecté après coup ne reçoit que les événements suivants.
package hub

import (
	"log"
	"sync"
	"time"

	"assistance_back_end/internal/stats"

	"github.com/gorilla/websocket"
)

// Event est le payload "event" envoyé au dashboard.
type Event struct {
	Type     string `json:"type"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Time     string `json:"time"`
}

// StatsUpdate est le payload "stats" envoyé au dashboard.
type StatsUpdate struct {
	Type string         `json:"type"`
	Data stats.Snapshot `json:"data"`
}

type Hub struct {
	mu      sync.Mutex
	writeMu sync.Mutex // gorilla n'autorise qu'un writer concurrent par connexion
	conns   map[*websocket.Conn]bool
	stats   *stats.Manager
}

func New(statsManager *stats.Manager) *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		stats: statsManager,
	}
}

// Register ajoute une connexion dashboard et lui pousse immédiatement un
// snapshot des stats courantes.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	total := len(h.conns)
	h.mu.Unlock()

	log.Printf("🔌 Dashboard connecté (%d actifs)", total)

	h.sendTo(conn, StatsUpdate{Type: "stats", Data: h.stats.Snapshot()})
}

// Unregister retire une connexion (déconnexion ou erreur d'écriture).
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	total := len(h.conns)
	h.mu.Unlock()

	log.Printf("🔌 Dashboard déconnecté (%d actifs)", total)
}

// PublishEvent diffuse un événement d'activité à tous les dashboards.
func (h *Hub) PublishEvent(icon, title, subtitle string) {
	h.broadcast(Event{
		Type:     "event",
		Icon:     icon,
		Title:    title,
		Subtitle: subtitle,
		Time:     time.Now().Format("15:04:05"),
	})
}

// PublishStats diffuse le snapshot courant des stats.
func (h *Hub) PublishStats() {
	h.broadcast(StatsUpdate{Type: "stats", Data: h.stats.Snapshot()})
}

// StartStatsLoop pousse les stats à intervalle régulier tant que le serveur
// tourne. À lancer dans sa propre goroutine.
func (h *Hub) StartStatsLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		h.PublishStats()
	}
}

func (h *Hub) sendTo(conn *websocket.Conn, payload any) {
	h.writeMu.Lock()
	err := conn.WriteJSON(payload)
	h.writeMu.Unlock()
	if err != nil {
		h.Unregister(conn)
	}
}

// broadcast écrit vers toutes les connexions ; une écriture qui échoue ne
// retire que cette connexion-là.
func (h *Hub) broadcast(payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.writeMu.Lock()
		err := c.WriteJSON(payload)
		h.writeMu.Unlock()
		if err != nil {
			log.Printf("⚠️ Écriture websocket échouée, connexion retirée: %v", err)
			h.Unregister(c)
		}
	}
}
