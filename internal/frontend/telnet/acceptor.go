package telnet

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/culturebot/rpg/internal/config"
)

// SessionHandler runs the interaction with one connected client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor listens for Telnet connections and runs each one through a
// SessionHandler on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	// slots bounds concurrent sessions; nil means unbounded.
	slots chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewAcceptor creates a Telnet acceptor.
//
// Precondition: handler and logger must be non-nil.
// Postcondition: Returns an Acceptor ready for ListenAndServe.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.MaxSessions > 0 {
		a.slots = make(chan struct{}, cfg.MaxSessions)
	}
	return a
}

// ListenAndServe accepts connections until Stop is called.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("max_sessions", a.cfg.MaxSessions),
	)

	for {
		raw, err := listener.Accept()
		if err != nil {
			if a.ctx.Err() != nil {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}
		if !a.acquire() {
			a.reject(raw)
			continue
		}
		a.wg.Add(1)
		go a.handleConn(raw)
	}
}

func (a *Acceptor) acquire() bool {
	if a.slots == nil {
		return true
	}
	select {
	case a.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (a *Acceptor) release() {
	if a.slots != nil {
		<-a.slots
	}
}

// reject tells a client the server is full and hangs up.
func (a *Acceptor) reject(raw net.Conn) {
	a.logger.Warn("rejecting client, server full", zap.String("remote_addr", raw.RemoteAddr().String()))
	conn := NewConn(raw, 0, a.cfg.WriteTimeout)
	_ = conn.WriteLine(Colorize(Yellow, "The dungeon is full, try again later."))
	_ = conn.Close()
}

func (a *Acceptor) handleConn(raw net.Conn) {
	defer a.wg.Done()
	defer a.release()
	start := time.Now()
	addr := raw.RemoteAddr().String()
	a.logger.Info("client connected", zap.String("remote_addr", addr))

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()

	if err := conn.Negotiate(); err != nil {
		a.logger.Error("telnet negotiation failed", zap.String("remote_addr", addr), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	if err := a.handler.HandleSession(ctx, conn); err != nil {
		a.logger.Debug("session ended",
			zap.String("remote_addr", addr),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}
	a.logger.Info("session ended cleanly",
		zap.String("remote_addr", addr),
		zap.Duration("duration", time.Since(start)),
	)
}

// Stop closes the listener, cancels every session context and waits for
// the sessions to return.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.cancel()
	if a.listener != nil {
		_ = a.listener.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped")
}

// Addr returns the listening address, or "" before ListenAndServe binds.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// IsRunning reports whether the acceptor is accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
