package runtime

import (
	"context"
	"log/slog"
	"net"
	"sync"
)

// Listener accepts TCP connections and turns each one into a
// registered, running session. It is a supervised worker: Run blocks
// until the context is done or the accept loop fails.
type Listener struct {
	log      *slog.Logger
	addr     string
	registry *Registry
	deps     SessionDeps
	wg       sync.WaitGroup

	mu    sync.Mutex
	bound net.Addr
}

func NewListener(log *slog.Logger, addr string, registry *Registry, deps SessionDeps) *Listener {
	return &Listener{log: log, addr: addr, registry: registry, deps: deps}
}

// Addr reports the bound address once Run has opened the socket, nil
// before that. Useful when listening on port 0.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bound
}

func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.bound = ln.Addr()
	l.mu.Unlock()

	// Closing the listener is the only way to unblock Accept.
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	l.log.Info("Listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info("Listener stopped, waiting for sessions to close")
				l.wg.Wait()
				return nil
			}
			return err
		}

		sess := NewSession(conn, l.log, l.registry, l.deps)
		l.log.Info("New connection", "remote", conn.RemoteAddr().String())
		l.registry.Add(sess)

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			sess.Run(ctx)
		}()
	}
}
