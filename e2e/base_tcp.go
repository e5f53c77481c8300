package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"tcpchat/commands"
	"tcpchat/repositories"
	"tcpchat/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

const frameTimeout = 5 * time.Second

// BaseTCPSuite spins up a full server (durable log, dispatcher,
// listener) unless SERVER_ADDR points at a running one, and hands
// scenarios raw TCP connections speaking the wire protocol.
type BaseTCPSuite struct {
	suite.Suite
	Config Config

	addr   string
	cancel context.CancelFunc
	db     *badger.DB
}

// SetupSuite loads the environment configuration and, when no external
// server is configured, boots an in-process one on a random port.
func (s *BaseTCPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		s.addr = s.Config.ServerAddr
		return
	}

	log := slog.Default()
	s.db, err = badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	store, err := repositories.NewMessageStore(s.db, log)
	s.Require().NoError(err)

	registry := runtime.NewRegistry(log)
	listener := runtime.NewListener(log, "127.0.0.1:0", registry, runtime.SessionDeps{
		Store:       store,
		Dispatcher:  commands.NewDispatcher(log, 4.5),
		ReadTimeout: 100 * time.Millisecond,
		MinContrast: 4.5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = listener.Run(ctx) }()

	s.Require().Eventually(func() bool {
		return listener.Addr() != nil
	}, frameTimeout, 10*time.Millisecond, "listener never bound")
	s.addr = listener.Addr().String()
}

func (s *BaseTCPSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Dial opens one protocol connection with a colorized step header in
// the logs.
func (s *BaseTCPSuite) Dial(t *testing.T, name string) *ChatConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := net.Dial("tcp", s.addr)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.addr)
	t.Cleanup(func() { _ = conn.Close() })

	return &ChatConn{t: t, suite: s, conn: conn}
}

// WithClient runs one scenario step against a fresh connection.
func (s *BaseTCPSuite) WithClient(name string, fn func(c *ChatConn)) {
	c := s.Dial(s.T(), name)
	defer c.Close()
	fn(c)
}

func (s *BaseTCPSuite) debugFrame(t *testing.T, direction string, body any) {
	if !s.Config.DebugFrames {
		return
	}
	dump, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return
	}
	t.Logf("%s:\n%s", direction, dump)
}
