package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/culturebot/rpg/internal/config"
)

// echoHandler echoes lines back until the client says quit or the session
// context ends.
type echoHandler struct {
	sessionCount atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessionCount.Add(1)
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		if err := conn.WriteLine("echo: " + line); err != nil {
			return err
		}
	}
}

func startAcceptor(t *testing.T, cfg config.TelnetConfig, h SessionHandler) *Acceptor {
	t.Helper()
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	errCh := make(chan error, 1)
	go func() { errCh <- acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.IsRunning() && acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		acc.Stop()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("acceptor did not stop in time")
		}
	})
	return acc
}

func testTelnetConfig() config.TelnetConfig {
	return config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn)
}

func readLineContaining(t *testing.T, r *bufio.Reader, substr string) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(line, substr) {
			return line
		}
	}
}

func TestAcceptor_EchoSession(t *testing.T) {
	handler := &echoHandler{}
	acc := startAcceptor(t, testTelnetConfig(), handler)

	conn, r := dial(t, acc.Addr())
	_, err := conn.Write([]byte("hello\r\n"))
	require.NoError(t, err)
	assert.Contains(t, readLineContaining(t, r, "echo:"), "echo: hello")

	_, err = conn.Write([]byte("quit\r\n"))
	require.NoError(t, err)
	assert.Contains(t, readLineContaining(t, r, "bye"), "bye")
	assert.Eventually(t, func() bool { return handler.sessionCount.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestAcceptor_StopCancelsOpenSessions(t *testing.T) {
	handler := &echoHandler{}
	cfg := testTelnetConfig()
	cfg.ReadTimeout = 0
	acc := NewAcceptor(cfg, handler, zaptest.NewLogger(t))
	errCh := make(chan error, 1)
	go func() { errCh <- acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	_, _ = dial(t, acc.Addr())
	require.Eventually(t, func() bool { return handler.sessionCount.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		acc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on an idle session")
	}
	assert.NoError(t, <-errCh)
	assert.False(t, acc.IsRunning())
}

func TestAcceptor_RejectsBeyondMaxSessions(t *testing.T) {
	cfg := testTelnetConfig()
	cfg.MaxSessions = 1
	handler := &echoHandler{}
	acc := startAcceptor(t, cfg, handler)

	first, r1 := dial(t, acc.Addr())
	_, err := first.Write([]byte("ping\r\n"))
	require.NoError(t, err)
	readLineContaining(t, r1, "echo: ping")

	_, r2 := dial(t, acc.Addr())
	assert.Contains(t, readLineContaining(t, r2, "full"), "The dungeon is full")
	assert.Equal(t, int32(1), handler.sessionCount.Load())
}
