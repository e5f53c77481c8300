package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"tcpchat/commands"
	"tcpchat/domain"
	"tcpchat/moderation"
	"tcpchat/repositories"
	"tcpchat/wire"

	"github.com/google/uuid"
)

// State is the session lifecycle position. Transitions only ever move
// forward; Closed is terminal.
type State int

const (
	StateConnecting State = iota // accepted, nickname requested
	StateNamed                   // first nickname processed, join broadcast out
	StateActive                  // steady state
	StateClosing                 // fault or shutdown observed
	StateClosed                  // socket closed, removed from registry
)

// History request bounds are protocol constants, not deployment knobs:
// a client may ask for at most this many messages, at most this far
// back.
const (
	historyMaxLimit         = 100
	historyMaxWindowSeconds = 1800
)

const commandPrefix = "/"

// SessionDeps groups the shared collaborators every session needs.
type SessionDeps struct {
	Store       repositories.IMessageStore
	Index       *repositories.SearchIndex // nil disables /search indexing
	Dispatcher  *commands.Dispatcher
	Moderator   *moderation.Moderator // nil disables censoring
	ReadTimeout time.Duration
	MinContrast float64
}

// Session is the server-side state and handling loop for one client
// connection. The handling goroutine owns all mutable fields; other
// goroutines only read nickname/color/state through the mutex while
// building rosters.
type Session struct {
	id       uuid.UUID
	conn     net.Conn
	log      *slog.Logger
	registry *Registry
	deps     SessionDeps

	mu                 sync.RWMutex
	state              State
	nickname           string
	color              domain.Color
	lastNicknameChange *time.Time

	firstSeen time.Time

	writeMu sync.Mutex
}

// NewSession assigns a fresh connection id and a legible display color.
// The initial nickname is a truncated form of the id until the client
// answers the nickname request.
func NewSession(conn net.Conn, log *slog.Logger, registry *Registry, deps SessionDeps) *Session {
	id := uuid.New()
	return &Session{
		id:        id,
		conn:      conn,
		log:       log.With("session", id.String()[:8]),
		registry:  registry,
		deps:      deps,
		state:     StateConnecting,
		nickname:  id.String()[:8],
		color:     domain.RandomLegible(deps.MinContrast),
		firstSeen: time.Now().UTC(),
	}
}

func (s *Session) ID() string { return s.id.String() }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

func (s *Session) Color() domain.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.color
}

func (s *Session) SetColor(c domain.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
}

// Roster is the session's entry in USER_LIST frames.
func (s *Session) Roster() wire.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wire.User{Nickname: s.nickname, Color: s.color.Hex}
}

// Send writes one encoded frame to this session's socket. Broadcast
// fan-out and the session's own replies share the connection, so writes
// are serialized.
func (s *Session) Send(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(frame)
	return err
}

// Notify pushes a direct server notice to this session only. Direct
// notices carry the sentinel identifier and are never persisted.
func (s *Session) Notify(content string) error {
	frame, err := wire.NewMessage(domain.Message{
		ID:        domain.DirectNoticeID,
		Nickname:  domain.SenderServer,
		ColorHex:  domain.Black.Hex,
		Content:   content,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.Send(frame)
}

// BroadcastServerMessage persists content as a server message and fans
// it out to every live session.
func (s *Session) BroadcastServerMessage(content string) error {
	msg, err := s.persist(domain.SenderServer, "server", domain.Black.Hex, content)
	if err != nil {
		return err
	}
	frame, err := wire.NewMessage(msg)
	if err != nil {
		return err
	}
	s.registry.Broadcast(frame)
	return nil
}

// persist appends one message to the durable log and, best-effort, to
// the search index.
func (s *Session) persist(nickname, connectionID, colorHex, content string) (domain.Message, error) {
	msg := domain.Message{
		Nickname:     nickname,
		ConnectionID: connectionID,
		ColorHex:     colorHex,
		Content:      content,
		Timestamp:    time.Now().Unix(),
	}
	id, err := s.deps.Store.AddMessage(nickname, connectionID, colorHex, content, msg.Timestamp)
	if err != nil {
		return domain.Message{}, err
	}
	msg.ID = id

	if s.deps.Index != nil {
		if err := s.deps.Index.Index(msg); err != nil {
			s.log.Warn("Search indexing failed", "id", id, "err", err)
		}
	}
	return msg, nil
}

// Run is the session's receive/handle loop. It returns only once the
// session is fully closed; the close path runs exactly once, on every
// exit.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	if err := s.requestNickname(); err != nil {
		s.log.Warn("Nickname request failed", "err", err)
		return
	}

	for {
		if ctx.Err() != nil {
			s.log.Info("Shutdown signal observed")
			return
		}

		// Short read deadlines keep the loop responsive to shutdown
		// even on an idle connection.
		_ = s.conn.SetReadDeadline(time.Now().Add(s.deps.ReadTimeout))

		var env wire.Envelope
		err := wire.ReadFrame(s.conn, &env)
		switch {
		case err == nil:
		case errors.Is(err, wire.ErrIdle):
			continue
		default:
			s.logFault(err)
			return
		}

		if err := s.handle(env); err != nil {
			s.log.Warn("Frame handling failed, closing session", "type", env.Type, "err", err)
			return
		}
	}
}

// logFault separates the closed set of receive faults: framing faults
// are protocol violations, everything else is a connection fault.
func (s *Session) logFault(err error) {
	var framingErr *wire.FramingError
	if errors.As(err, &framingErr) {
		s.log.Warn("Framing fault, closing session", "err", err)
		return
	}
	s.log.Info("Connection fault, closing session", "err", err)
}

func (s *Session) requestNickname() error {
	frame, err := wire.NewRequest(wire.RequestNick)
	if err != nil {
		return err
	}
	return s.Send(frame)
}

// handle routes one decoded frame. Unknown or irrelevant frame types
// are ignored without error.
func (s *Session) handle(env wire.Envelope) error {
	switch env.Type {
	case wire.TypeNickname:
		return s.handleNickname(env.Nickname)
	case wire.TypeMessage:
		return s.handleMessage(env.Content)
	case wire.TypeRequest:
		switch env.Request {
		case wire.RequestRefreshList:
			return s.handleRosterRequest()
		case wire.RequestHistory:
			return s.handleHistoryRequest(env.Limit, env.TimeLimit)
		}
	default:
		s.log.Debug("Ignoring frame", "type", env.Type)
	}
	return nil
}

// handleNickname covers both the initial handshake and later renames.
// Only the first nickname emits a join broadcast; every change pushes a
// fresh roster to all sessions.
func (s *Session) handleNickname(nickname string) error {
	s.mu.Lock()
	first := s.lastNicknameChange == nil
	previous := s.nickname
	s.nickname = nickname
	if first {
		now := time.Now().UTC()
		s.lastNicknameChange = &now
		s.state = StateNamed
	}
	s.mu.Unlock()

	if first {
		s.log.Info("Nickname set", "nickname", nickname)
		if err := s.BroadcastServerMessage(nickname + " joined!"); err != nil {
			return err
		}
	} else {
		s.log.Info("Nickname changed", "from", previous, "to", nickname)
	}
	return s.pushRosterToAll()
}

func (s *Session) handleMessage(content string) error {
	s.markActive()

	if s.deps.Moderator != nil {
		content = s.deps.Moderator.Censor(content)
	}

	s.mu.RLock()
	nickname, colorHex := s.nickname, s.color.Hex
	s.mu.RUnlock()

	msg, err := s.persist(nickname, s.ID(), colorHex, content)
	if err != nil {
		// A store fault loses this message but not the session.
		s.log.Error("Persisting message failed", "err", err)
		return nil
	}

	frame, err := wire.NewMessage(msg)
	if err != nil {
		return err
	}
	s.registry.Broadcast(frame)

	if trimmed := strings.TrimSpace(content); strings.HasPrefix(trimmed, commandPrefix) {
		return s.runCommand(trimmed)
	}
	return nil
}

// runCommand tokenizes a slash message and hands it to the dispatcher.
// A non-empty dispatcher result is echoed to chat as a server message.
func (s *Session) runCommand(trimmed string) error {
	tokens := strings.Fields(trimmed)
	tokens[0] = strings.ToLower(strings.TrimPrefix(tokens[0], commandPrefix))

	if result := s.deps.Dispatcher.Process(s, tokens); result != "" {
		return s.BroadcastServerMessage(result)
	}
	return nil
}

func (s *Session) handleRosterRequest() error {
	s.markActive()
	frame, err := wire.NewUserList(s.registry.Roster())
	if err != nil {
		return err
	}
	return s.Send(frame)
}

// handleHistoryRequest replies with up to limit messages no older than
// the requested window, both clamped to the protocol bounds.
func (s *Session) handleHistoryRequest(limit *int, timeLimit *int64) error {
	s.markActive()

	bounded := historyMaxLimit
	if limit != nil {
		bounded = clamp(*limit, 0, historyMaxLimit)
	}
	window := int64(historyMaxWindowSeconds)
	if timeLimit != nil {
		window = clamp(*timeLimit, 0, historyMaxWindowSeconds)
	}

	messages, err := s.deps.Store.QueryRecent(time.Now().Unix()-window, bounded)
	if err != nil {
		s.log.Error("History query failed", "err", err)
		messages = nil
	}

	frame, err := wire.NewMessageHistory(messages)
	if err != nil {
		return err
	}
	return s.Send(frame)
}

func (s *Session) markActive() {
	s.mu.Lock()
	if s.state == StateNamed {
		s.state = StateActive
	}
	s.mu.Unlock()
}

// close runs the single teardown path: close the socket, leave the
// registry, announce the departure, push the shrunken roster. Called
// exactly once, from Run's defer.
func (s *Session) close() {
	s.mu.Lock()
	s.state = StateClosing
	nickname := s.nickname
	s.mu.Unlock()

	_ = s.conn.Close()
	s.registry.Remove(s.ID())

	if err := s.BroadcastServerMessage(nickname + " left!"); err != nil {
		s.log.Error("Leave broadcast failed", "err", err)
	}
	if err := s.pushRosterToAll(); err != nil {
		s.log.Warn("Roster push failed", "err", err)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.log.Info("Session closed", "nickname", nickname, "connected_for", time.Since(s.firstSeen).Round(time.Second))
}

func (s *Session) pushRosterToAll() error {
	frame, err := wire.NewUserList(s.registry.Roster())
	if err != nil {
		return err
	}
	s.registry.Broadcast(frame)
	return nil
}

func clamp[T int | int64](v, low, high T) T {
	return min(max(v, low), high)
}

var _ commands.Session = (*Session)(nil)
var _ Peer = (*Session)(nil)
