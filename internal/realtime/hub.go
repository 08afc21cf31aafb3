// 文件路径: internal/realtime/hub.go
// 模块说明: 这是 internal 模块里的 realtime 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// Options 控制推送通道的缓冲与心跳。
type Options struct {
	AllowedOrigins []string // 空表示只允许同源；"*" 表示全部
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	Logger         *slog.Logger
}

// Hub 把广告回调广播给 /ws/ad-logs 的订阅者。
// 推送是尽力而为：发送缓冲满了的订阅者会被直接断开，不做重试。
type Hub struct {
	mu       sync.RWMutex
	clients  map[*subscriber]struct{}
	upgrader websocket.Upgrader
	opts     Options
	logger   *slog.Logger
	dropped  atomic.Int64
	closed   bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

var _ service.Publisher = (*Hub)(nil)

// NewHub builds a hub; zero options fall back to sane defaults.
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients: make(map[*subscriber]struct{}),
		opts:    opts,
		logger:  logger.With("component", "ws_hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin 没有 Origin 头的请求（CLI、服务端客户端）一律放行。
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin) {
		return true
	}
	if len(h.opts.AllowedOrigins) > 0 {
		return false
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Publish implements service.Publisher. It never blocks.
func (h *Hub) Publish(event service.AdEvent) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("encode ad event failed", "error", err)
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for s := range h.clients {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.dropped.Add(1)
		h.logger.Warn("dropping slow subscriber")
		h.remove(s)
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped reports how many subscribers were cut off for being slow.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写好了错误响应
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, h.opts.SendBuffer)}
	if !h.add(s) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(h.opts.WriteTimeout))
		conn.Close()
		return
	}
	h.logger.Info("subscriber connected", "remote_addr", r.RemoteAddr, "subscribers", h.Subscribers())

	go h.writePump(s)
	h.readPump(s)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*subscriber, 0, len(h.clients))
	for s := range h.clients {
		clients = append(clients, s)
	}
	clear(h.clients)
	h.mu.Unlock()
	for _, s := range clients {
		s.close()
	}
}

func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[s] = struct{}{}
	return true
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.clients, s)
	h.mu.Unlock()
	s.close()
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.WriteTimeout)); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

// readPump 订阅者不发业务消息，这里只处理 pong 和断开。
func (h *Hub) readPump(s *subscriber) {
	defer h.remove(s)
	pongWait := h.opts.PingInterval * 2
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
