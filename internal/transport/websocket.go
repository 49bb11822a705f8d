package transport

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	maxFrameBytes    = 1 << 20
)

// Client is a websocket Channel a worker uses to reach the coordinator.
// The connection is established lazily and re-dialed after a failed
// write; a Send that cannot deliver returns its error and the frame is
// gone.
type Client struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	sent    int64
	dropped int64
}

// NewClient creates a Client for the coordinator's websocket URL.
func NewClient(url string, logger *slog.Logger) *Client {
	if logger != nil {
		logger = logger.With("component", "transport")
	}
	return &Client{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger: logger,
	}
}

// Send writes one frame, dialing first if no connection is open.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.dropped++
			return err
		}
		c.conn = conn
		if c.logger != nil {
			c.logger.Debug("connected to coordinator", "url", c.url)
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.dropped++
		return err
	}
	c.sent++
	return nil
}

// Stats returns how many frames were sent and dropped.
func (c *Client) Stats() (sent, dropped int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.dropped
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Listener accepts worker connections on the coordinator and feeds every
// inbound frame to a handler.
type Listener struct {
	handler  Handler
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewListener creates an idle Listener.
func NewListener(handler Handler, logger *slog.Logger) *Listener {
	if logger != nil {
		logger = logger.With("component", "transport")
	}
	return &Listener{
		handler:  handler,
		logger:   logger,
		upgrader: websocket.Upgrader{},
	}
}

// Start begins accepting worker connections on addr. An addr with port 0
// picks a free port; Addr reports the bound address.
func (l *Listener) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", l.serveWS)
	srv := &http.Server{Handler: mux}

	l.mu.Lock()
	l.listener = ln
	l.srv = srv
	l.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			if l.logger != nil {
				l.logger.Error("listener stopped", "error", err)
			}
		}
	}()

	if l.logger != nil {
		l.logger.Info("listening for worker reports", "addr", ln.Addr().String())
	}
	return nil
}

// Addr returns the bound address, or empty before Start.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return ""
	}
	return l.listener.Addr().String()
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	l.mu.Lock()
	srv := l.srv
	l.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (l *Listener) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if l.logger != nil {
			l.logger.Debug("upgrade failed", "error", err)
		}
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	go l.readLoop(conn)
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if l.handler != nil {
			l.handler(data)
		}
	}
}
