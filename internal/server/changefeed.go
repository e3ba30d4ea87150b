package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"championship-ledger/internal/constants"
	"championship-ledger/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type changeMessage struct {
	Type string `json:"type"`
}

// ChangeFeed pushes a "ledger_updated" message to every connected WebSocket
// client after each successful mutation. Clients reread the aggregate over
// the JSON API; the message carries no other payload.
type ChangeFeed struct {
	notifier *service.Notifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewChangeFeed(notifier *service.Notifier, logger zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  constants.WSReadBufferSize,
			WriteBufferSize: constants.WSWriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// local single-user app, same policy as the permissive CORS setup
				return true
			},
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Run consumes change notifications until the context is cancelled.
func (f *ChangeFeed) Run(ctx context.Context) {
	id, ch := f.notifier.Subscribe()
	defer f.notifier.Unsubscribe(id)

	ticker := time.NewTicker(constants.WSPingInterval)
	defer ticker.Stop()

	f.logger.Info().Msg("change feed started")
	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			f.logger.Info().Msg("change feed stopped")
			return
		case <-ch:
			f.broadcast()
		case <-ticker.C:
			f.ping()
		}
	}
}

// Handle upgrades the request and keeps the connection registered until the
// client goes away.
func (f *ChangeFeed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	total := len(f.conns)
	f.mu.Unlock()
	f.logger.Debug().Int("connections", total).Msg("websocket client connected")

	// Clients never send data; the read loop only detects disconnects.
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *ChangeFeed) broadcast() {
	conns := f.snapshot()
	if len(conns) == 0 {
		return
	}

	msg := changeMessage{Type: "ledger_updated"}
	g := new(errgroup.Group)
	for _, conn := range conns {
		g.Go(func() error {
			conn.SetWriteDeadline(time.Now().Add(constants.WSWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				f.drop(conn)
			}
			return nil
		})
	}
	g.Wait()

	f.logger.Debug().Int("clients", len(conns)).Msg("ledger update pushed")
}

func (f *ChangeFeed) ping() {
	for _, conn := range f.snapshot() {
		deadline := time.Now().Add(constants.WSWriteTimeout)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			f.drop(conn)
		}
	}
}

func (f *ChangeFeed) snapshot() []*websocket.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*websocket.Conn, 0, len(f.conns))
	for conn := range f.conns {
		out = append(out, conn)
	}
	return out
}

func (f *ChangeFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, ok := f.conns[conn]
	delete(f.conns, conn)
	f.mu.Unlock()

	if ok {
		conn.Close()
		f.logger.Debug().Msg("websocket client disconnected")
	}
}

func (f *ChangeFeed) closeAll() {
	for _, conn := range f.snapshot() {
		f.drop(conn)
	}
}
