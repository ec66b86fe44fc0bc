package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"assistance_back_end/internal/stats"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		h.Register(conn)
	}))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsMessage struct {
	Type     string         `json:"type"`
	Icon     string         `json:"icon"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Time     string         `json:"time"`
	Data     stats.Snapshot `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestRegisterSendsInitialStats(t *testing.T) {
	h := New(stats.NewManager())
	srv := newTestServer(t, h)
	defer srv.Close()

	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, "stats", msg.Type)
	assert.Equal(t, "4.8★", msg.Data.Satisfaction)
}

func TestPublishEventReachesConnectedClients(t *testing.T) {
	h := New(stats.NewManager())
	srv := newTestServer(t, h)
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn) // snapshot initial

	h.PublishEvent("💰", "REFUND", "Valid claim (Damage verified)")

	msg := readMessage(t, conn)
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "💰", msg.Icon)
	assert.Equal(t, "REFUND", msg.Title)
	assert.Equal(t, "Valid claim (Damage verified)", msg.Subtitle)
	assert.NotEmpty(t, msg.Time)
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	h := New(stats.NewManager())
	srv := newTestServer(t, h)
	defer srv.Close()

	// Événement publié avant toute connexion : perdu, pas de replay
	h.PublishEvent("⚠️", "ESCALATE", "Needs human review")

	conn := dial(t, srv)
	readMessage(t, conn) // snapshot initial

	h.PublishEvent("✅", "REJECT", "Fake evidence")

	msg := readMessage(t, conn)
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "REJECT", msg.Title)
}

func TestClosedConnectionIsDropped(t *testing.T) {
	h := New(stats.NewManager())
	srv := newTestServer(t, h)
	defer srv.Close()

	good := dial(t, srv)
	readMessage(t, good)

	bad := dial(t, srv)
	readMessage(t, bad)
	bad.Close()

	// La première diffusion peut encore réussir côté serveur (buffer TCP),
	// on insiste jusqu'à ce que l'écriture échoue et retire la connexion.
	for i := 0; i < 10; i++ {
		h.PublishEvent("💰", "REFUND", "ping")
		time.Sleep(20 * time.Millisecond)
	}

	// Le client sain reçoit toujours
	msg := readMessage(t, good)
	assert.Equal(t, "event", msg.Type)
}
