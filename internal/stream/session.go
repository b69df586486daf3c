// Package stream owns the long-lived streaming session with the
// brokerage's real-time market data channel and the tick
// publish/subscribe hub fed by it.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	domainerrors "krx-trader/internal/errors"
)

// State is the streaming session state. Transitions are serialized:
// no two transitions run concurrently.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateLoggedIn     State = "LOGGED_IN"
	StateSubscribed   State = "SUBSCRIBED"
	StateClosing      State = "CLOSING"
)

// SessionConfig holds tunables of the streaming session.
type SessionConfig struct {
	// MaxReconnectAttempts bounds automatic reconnection after an
	// unplanned close. Exceeding it leaves the session Disconnected
	// until a new explicit Connect.
	MaxReconnectAttempts int
	// ReconnectDelay is the fixed delay between reconnect attempts.
	ReconnectDelay time.Duration
	// LoginTimeout bounds the wait for the login acknowledgement.
	LoginTimeout time.Duration
}

// DefaultSessionConfig returns the default session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxReconnectAttempts: 5,
		ReconnectDelay:       3 * time.Second,
		LoginTimeout:         10 * time.Second,
	}
}

// Session manages exactly one websocket transport to the market data
// channel: handshake and login, subscription registration, liveness
// probe echo, inbound frame dispatch, and bounded automatic
// reconnection with the stored credentials.
type Session struct {
	cfg    SessionConfig
	hub    *Hub
	logger zerolog.Logger

	// mu serializes state transitions (connect, close, subscribe,
	// reconnect). stateMu guards only the state value for readers.
	mu      sync.Mutex
	stateMu sync.RWMutex
	state   State

	conn         *websocket.Conn
	gen          int
	endpoint     string
	token        string
	subscribed   map[string]struct{}
	subOrder     []string
	explicit     bool
	loginFailed  bool
	reconnecting bool
	attempts     int

	writeMu sync.Mutex

	lostMu sync.Mutex
	onLost func(error)
}

// NewSession creates a disconnected session publishing ticks to hub.
func NewSession(cfg SessionConfig, hub *Hub, logger zerolog.Logger) *Session {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = 10 * time.Second
	}
	return &Session{
		cfg:        cfg,
		hub:        hub,
		logger:     logger.With().Str("component", "session").Logger(),
		state:      StateDisconnected,
		subscribed: make(map[string]struct{}),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	prev := s.state
	s.state = st
	s.stateMu.Unlock()
	if prev != st {
		s.logger.Debug().Str("from", string(prev)).Str("to", string(st)).Msg("session state")
	}
}

// OnSessionLost registers a callback invoked when the reconnection
// budget is exhausted or the stored credentials stop being accepted.
func (s *Session) OnSessionLost(fn func(error)) {
	s.lostMu.Lock()
	defer s.lostMu.Unlock()
	s.onLost = fn
}

func (s *Session) notifyLost(err error) {
	s.lostMu.Lock()
	fn := s.onLost
	s.lostMu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Connect opens the transport to endpoint and logs in with token.
// Calling Connect while already connected or logged in is a no-op
// returning success. The credentials are stored for automatic
// reconnection.
func (s *Session) Connect(ctx context.Context, endpoint, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateConnected, StateLoggedIn, StateSubscribed:
		return nil
	case StateConnecting, StateClosing:
		return fmt.Errorf("%w: transition in progress", domainerrors.ErrConnectionFailed)
	}

	s.endpoint = endpoint
	s.token = token
	s.explicit = false
	s.loginFailed = false
	s.attempts = 0

	return s.dialLocked(ctx)
}

// dialLocked opens the transport, starts the read loop, sends the
// login frame and waits for its acknowledgement. Caller holds mu.
func (s *Session) dialLocked(ctx context.Context) error {
	s.setState(StateConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: %v", domainerrors.ErrConnectionFailed, err)
	}

	s.conn = conn
	s.gen++
	s.setState(StateConnected)

	loginCh := make(chan error, 1)
	go s.readLoop(conn, s.gen, loginCh)

	if err := s.writeJSON(conn, loginRequest{Trnm: frameLogin, Token: s.token}); err != nil {
		conn.Close()
		s.setState(StateDisconnected)
		return fmt.Errorf("sending login frame: %w", err)
	}

	select {
	case err := <-loginCh:
		if err != nil {
			if errors.Is(err, domainerrors.ErrLoginRejected) {
				s.loginFailed = true
			}
			conn.Close()
			s.setState(StateDisconnected)
			return err
		}
		s.setState(StateLoggedIn)
		s.attempts = 0
		s.logger.Info().Str("endpoint", s.endpoint).Msg("session logged in")
		return nil
	case <-ctx.Done():
		conn.Close()
		s.setState(StateDisconnected)
		return ctx.Err()
	case <-time.After(s.cfg.LoginTimeout):
		conn.Close()
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: login acknowledgement timed out", domainerrors.ErrConnectionFailed)
	}
}

// Subscribe registers real-time updates for the instrument codes.
// It may be invoked repeatedly to add more instruments without leaving
// the Subscribed state.
func (s *Session) Subscribe(codes ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateLoggedIn, StateSubscribed:
	default:
		return domainerrors.ErrNotLoggedIn
	}

	fresh := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := s.subscribed[code]; ok {
			continue
		}
		s.subscribed[code] = struct{}{}
		s.subOrder = append(s.subOrder, code)
		fresh = append(fresh, code)
	}

	if len(fresh) > 0 {
		if err := s.writeJSON(s.conn, regRequest{Trnm: frameReg, GrpNo: "1", Codes: fresh}); err != nil {
			// Codes that never went out must not look subscribed, or
			// resubscription after a reconnect is their only way in.
			for _, code := range fresh {
				delete(s.subscribed, code)
			}
			s.subOrder = s.subOrder[:len(s.subOrder)-len(fresh)]
			return fmt.Errorf("sending registration frame: %w", err)
		}
	}

	s.setState(StateSubscribed)
	return nil
}

// Close disconnects the session. It clears pending reconnection
// attempts and subscriptions and is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.explicit = true
	s.setState(StateClosing)

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.subscribed = make(map[string]struct{})
	s.subOrder = nil
	s.attempts = 0

	s.setState(StateDisconnected)
	return nil
}

func (s *Session) readLoop(conn *websocket.Conn, gen int, loginCh chan error) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case loginCh <- fmt.Errorf("%w: %v", domainerrors.ErrConnectionFailed, err):
			default:
			}
			s.handleDisconnect(gen, err)
			return
		}
		s.dispatch(conn, raw, loginCh)
	}
}

// dispatch routes one inbound frame by its discriminant. Malformed and
// unrecognized frames are dropped, never an error.
func (s *Session) dispatch(conn *websocket.Conn, raw []byte, loginCh chan error) {
	var head frameHeader
	if err := json.Unmarshal(raw, &head); err != nil {
		s.logger.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	switch head.Trnm {
	case framePing:
		// Liveness probes are echoed verbatim within the same
		// message-handling turn.
		if err := s.writeRaw(conn, raw); err != nil {
			s.logger.Debug().Err(err).Msg("ping echo failed")
		}
	case frameLogin:
		var ack ackFrame
		if err := json.Unmarshal(raw, &ack); err != nil {
			return
		}
		var result error
		if ack.ReturnCode != 0 {
			result = domainerrors.NewSessionError(ack.ReturnCode, ack.ReturnMsg, domainerrors.ErrLoginRejected)
		}
		select {
		case loginCh <- result:
		default:
		}
	case frameReg:
		var ack ackFrame
		if err := json.Unmarshal(raw, &ack); err != nil {
			return
		}
		if ack.ReturnCode != 0 {
			s.logger.Warn().Int("return_code", ack.ReturnCode).Str("return_msg", ack.ReturnMsg).
				Msg("subscription registration rejected")
			return
		}
		s.logger.Debug().Msg("subscription registered")
	case frameReal:
		var rf realFrame
		if err := json.Unmarshal(raw, &rf); err != nil {
			s.logger.Debug().Err(err).Msg("dropping malformed data frame")
			return
		}
		now := time.Now()
		for _, it := range rf.Data {
			s.hub.Publish(it.tick(now))
		}
	default:
		// Unrecognized discriminants are ignored.
	}
}

func (s *Session) handleDisconnect(gen int, cause error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.setState(StateDisconnected)
	// A dial that fails mid-reconnect kills its own read loop; only one
	// reconnect loop may exist per unplanned close, and none once the
	// attempt budget is spent.
	if s.explicit || s.loginFailed || s.reconnecting || s.attempts >= s.cfg.MaxReconnectAttempts {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	s.logger.Warn().Err(cause).Msg("transport closed, scheduling reconnect")
	go s.reconnectLoop()
}

// reconnectLoop retries the stored connect request on a fixed delay
// until it succeeds, the budget runs out, or an explicit disconnect
// intervenes.
func (s *Session) reconnectLoop() {
	defer func() {
		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if s.explicit || s.loginFailed {
			s.mu.Unlock()
			return
		}
		if s.attempts >= s.cfg.MaxReconnectAttempts {
			s.mu.Unlock()
			s.logger.Error().Int("attempts", s.cfg.MaxReconnectAttempts).Msg("reconnection budget exhausted")
			s.notifyLost(domainerrors.ErrSessionLost)
			return
		}
		s.attempts++
		attempt := s.attempts
		s.mu.Unlock()

		time.Sleep(s.cfg.ReconnectDelay)

		s.mu.Lock()
		if s.explicit {
			s.mu.Unlock()
			return
		}
		switch s.State() {
		case StateConnected, StateLoggedIn, StateSubscribed:
			s.mu.Unlock()
			return
		}
		err := s.dialLocked(context.Background())
		if err == nil {
			s.resubscribeLocked()
			s.mu.Unlock()
			s.logger.Info().Int("attempt", attempt).Msg("reconnected")
			return
		}
		rejected := s.loginFailed
		s.mu.Unlock()

		if rejected {
			s.notifyLost(err)
			return
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
	}
}

// resubscribeLocked re-registers every stored subscription after a
// reconnect. Caller holds mu.
func (s *Session) resubscribeLocked() {
	if len(s.subOrder) == 0 {
		return
	}
	codes := make([]string, len(s.subOrder))
	copy(codes, s.subOrder)
	if err := s.writeJSON(s.conn, regRequest{Trnm: frameReg, GrpNo: "1", Codes: codes}); err != nil {
		s.logger.Warn().Err(err).Msg("resubscription failed")
		return
	}
	s.setState(StateSubscribed)
}

func (s *Session) writeJSON(conn *websocket.Conn, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeRaw(conn, raw)
}

func (s *Session) writeRaw(conn *websocket.Conn, raw []byte) error {
	if conn == nil {
		return domainerrors.ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}
