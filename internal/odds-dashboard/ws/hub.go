package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 2 * time.Second

// conn serializa as escritas: gorilla/websocket não aceita escritas concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por liga
// subs: mapeia o nome da liga para o conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*conn]struct{}

	OnSent func() // métricas
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em ligas e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			league := leagueKey(msg.League)
			h.mu.Lock()
			if _, ok := h.subs[league]; !ok {
				h.subs[league] = make(map[*conn]struct{})
			}
			h.subs[league][c] = struct{}{}
			h.mu.Unlock()
			_ = c.write(ServerMsg{Type: "subscribed", League: league})
		case "unsubscribe":
			league := leagueKey(msg.League)
			h.remove(league, c)
			_ = c.write(ServerMsg{Type: "unsubscribed", League: league})
		case "ping":
			_ = c.write(ServerMsg{Type: "pong"})
		default:
			_ = c.write(ServerMsg{Type: "error"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for league, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, league)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(league string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[league]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, league)
		}
	}
}

// Subscribers conta as conexões inscritas numa liga
func (h *Hub) Subscribers(league string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[leagueKey(league)])
}

// Broadcast envia a atualização para todos os inscritos na liga correspondente
func (h *Hub) Broadcast(update LeagueUpdate) {
	h.mu.RLock()
	set := h.subs[leagueKey(update.League)]
	conns := make([]*conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(update); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			continue
		}
		if h.OnSent != nil {
			h.OnSent()
		}
	}
}

func leagueKey(league string) string {
	if league == "" {
		return AllLeagues
	}
	return league
}
