package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// ProgramFeed names one program to watch and which feed its events belong to.
type ProgramFeed struct {
	Address string
	Source  domain.FeedSource
}

// WSConfig configures WebSocket source behavior.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSSource subscribes to program logs over a JSON-RPC websocket and emits
// the assets its parser recognizes. It reconnects with exponential backoff
// and resubscribes every program feed after each reconnect.
type WSSource struct {
	endpoint string
	config   WSConfig
	programs []ProgramFeed
	parser   Parser
	logger   zerolog.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pending maps subscribe request ID to the feed it was issued for;
	// subs maps confirmed subscription ID to that feed.
	pending map[uint64]domain.FeedSource
	subs    map[int64]domain.FeedSource
	subsMu  sync.Mutex

	out  chan *domain.AssetDescriptor
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSSource connects to the endpoint and subscribes to all program feeds.
func NewWSSource(ctx context.Context, endpoint string, programs []ProgramFeed, parser Parser, config *WSConfig, logger zerolog.Logger) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSSource{
		endpoint: endpoint,
		config:   cfg,
		programs: programs,
		parser:   parser,
		logger:   logger,
		pending:  make(map[uint64]domain.FeedSource),
		subs:     make(map[int64]domain.FeedSource),
		out:      make(chan *domain.AssetDescriptor, 256),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.subscribeAll(); err != nil {
		s.closeConn()
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Compile-time interface check.
var _ Source = (*WSSource)(nil)

// Assets returns the event channel.
func (s *WSSource) Assets() <-chan *domain.AssetDescriptor {
	return s.out
}

// Close stops the source, closes the connection and the event channel.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)
	s.closeConn()
	s.wg.Wait()
	close(s.out)
	return nil
}

func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

func (s *WSSource) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// subscribeAll issues a logsSubscribe for every program feed. Confirmations
// arrive asynchronously through the read loop.
func (s *WSSource) subscribeAll() error {
	s.subsMu.Lock()
	s.pending = make(map[uint64]domain.FeedSource)
	s.subs = make(map[int64]domain.FeedSource)
	s.subsMu.Unlock()

	for _, feed := range s.programs {
		reqID := s.requestID.Add(1)

		req := wsRequest{
			JSONRPC: "2.0",
			ID:      reqID,
			Method:  "logsSubscribe",
			Params: []interface{}{
				map[string]interface{}{"mentions": []string{feed.Address}},
				map[string]string{"commitment": "confirmed"},
			},
		}

		s.subsMu.Lock()
		s.pending[reqID] = feed.Source
		s.subsMu.Unlock()

		s.connMu.Lock()
		if s.conn == nil {
			s.connMu.Unlock()
			return fmt.Errorf("not connected")
		}
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		err := s.conn.WriteJSON(req)
		s.connMu.Unlock()

		if err != nil {
			return fmt.Errorf("write subscribe for %s: %w", feed.Address, err)
		}
	}

	return nil
}

// readLoop reads messages and drives reconnection on failure.
func (s *WSSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Warn().Err(err).Msg("websocket read failed, reconnecting")
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

// reconnect waits for the backoff delay and re-establishes the connection
// and subscriptions. Returns false when the source is shutting down.
func (s *WSSource) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("websocket reconnect failed")
		return true
	}
	if err := s.subscribeAll(); err != nil {
		s.logger.Warn().Err(err).Msg("resubscribe after reconnect failed")
		s.closeConn()
		return true
	}

	s.logger.Info().Msg("websocket reconnected")
	return true
}

func (s *WSSource) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 && resp.ID > 0 {
		s.subsMu.Lock()
		if source, ok := s.pending[resp.ID]; ok {
			delete(s.pending, resp.ID)
			s.subs[resp.Result] = source
		}
		s.subsMu.Unlock()
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "logsNotification" && notif.Params != nil {
		s.handleLogsNotification(&notif)
		return
	}
}

func (s *WSSource) handleLogsNotification(notif *wsNotification) {
	s.subsMu.Lock()
	source, ok := s.subs[notif.Params.Subscription]
	s.subsMu.Unlock()
	if !ok {
		return
	}

	value := notif.Params.Result.Value
	event := LogEvent{
		Signature: value.Signature,
		Logs:      value.Logs,
		Source:    source,
	}
	if notif.Params.Result.Context != nil {
		event.Slot = notif.Params.Result.Context.Slot
	}

	asset, ok := s.parser.Parse(event)
	if !ok {
		return
	}

	select {
	case s.out <- asset:
	case <-s.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.logger.Debug().Err(err).Msg("ping failed, reader will reconnect")
				}
			}
			s.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
