package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream maintains a latest-quote snapshot from a finnhub-style trade
// websocket and summarizes it into the market context injected into
// strategy prompts.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn *websocket.Conn

	mu        sync.RWMutex
	connected bool
	quotes    map[string]models.Quote
}

// NewStream creates a market data stream.
func NewStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		quotes:         make(map[string]models.Quote),
	}
}

// Run connects, subscribes and consumes trades until ctx is cancelled,
// reconnecting after read failures.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			if s.log != nil {
				s.log.Warn("market stream connect failed", logger.Error(err))
			}
		} else {
			s.consume(ctx)
		}

		select {
		case <-ctx.Done():
			s.close()
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("market stream connect: %w", err)
	}
	s.conn = conn

	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			s.close()
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("market stream connected", logger.Int("symbols", len(s.symbols)))
	}
	return nil
}

type trade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type frame struct {
	Type string  `json:"type"`
	Data []trade `json:"data"`
}

func (s *Stream) consume(ctx context.Context) {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		default:
		}

		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if s.log != nil {
				s.log.Warn("market stream read failed", logger.Error(err))
			}
			s.close()
			return
		}

		var f frame
		if err := json.Unmarshal(b, &f); err != nil || f.Type != "trade" {
			// ignore non-trade frames
			continue
		}

		s.mu.Lock()
		for _, t := range f.Data {
			s.quotes[t.S] = models.Quote{
				Symbol:    t.S,
				Price:     t.P,
				Volume:    t.V,
				Timestamp: time.UnixMilli(t.T),
			}
		}
		s.mu.Unlock()
	}
}

func (s *Stream) close() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// IsConnected reports whether the stream is live.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Context summarizes the latest quotes for the strategy prompt. Returns
// nil when no quotes have been observed, so the pipeline degrades.
func (s *Stream) Context() *models.MarketContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.quotes) == 0 {
		return nil
	}

	indicators := make(map[string]string, len(s.quotes))
	var latest time.Time
	for sym, q := range s.quotes {
		indicators[sym] = fmt.Sprintf("%.2f", q.Price)
		if q.Timestamp.After(latest) {
			latest = q.Timestamp
		}
	}

	conditions := "live quotes available"
	if !s.connected {
		conditions = "stream disconnected, quotes may be stale"
	}

	return &models.MarketContext{
		Conditions: conditions,
		Indicators: indicators,
		AsOf:       latest,
	}
}
