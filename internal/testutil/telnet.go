package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// TelnetClient is a line-oriented Telnet client for driving the game server
// in tests.
type TelnetClient struct {
	conn net.Conn
	t    *testing.T
	// pending holds bytes read past the last ReadUntil match.
	pending string
}

// NewTelnetClient dials addr and returns a client closed on test cleanup.
//
// Precondition: addr must be a listening "host:port".
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until substr appears or timeout elapses. Output after the
// match is kept for the next call, so consecutive calls never skip text.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the output up to and including substr, or fails the test.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	buf := c.pending
	c.pending = ""
	tmp := make([]byte, 1024)
	for {
		if i := strings.Index(buf, substr); i >= 0 {
			end := i + len(substr)
			c.pending = buf[end:]
			return buf[:end]
		}
		n, err := c.conn.Read(tmp)
		buf += string(tmp[:n])
		if err != nil && !strings.Contains(buf, substr) {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, buf, err)
		}
	}
}

// Send writes text followed by CRLF.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
