package telnet

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return NewConn(server, 0, time.Second), client
}

func sendAsync(client net.Conn, data []byte) {
	go func() { _, _ = client.Write(data) }()
}

func TestReadLine_StripsTerminatorsAndCommands(t *testing.T) {
	conn, client := pipeConn(t)
	input := []byte{IAC, WILL, OptSuppressGoAhead}
	input = append(input, []byte("att")...)
	input = append(input, IAC, SB, 24, 0, 'x', 't', IAC, SE)
	input = append(input, []byte("ack\x07\r\nrest\n")...)
	sendAsync(client, input)

	line, err := conn.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "attack", line)

	line, err = conn.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rest", line)
}

func TestReadLine_BareCarriageReturn(t *testing.T) {
	conn, client := pipeConn(t)
	sendAsync(client, []byte("a\rb\r\n"))

	first, err := conn.ReadLine(context.Background())
	require.NoError(t, err)
	second, err := conn.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{first, second})
}

func TestReadLine_ContextCancelInterruptsRead(t *testing.T) {
	conn, _ := pipeConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := conn.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadLine_ContextDeadline(t *testing.T) {
	conn, _ := pipeConn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := conn.ReadLine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadLine_ClosedPeer(t *testing.T) {
	conn, client := pipeConn(t)
	require.NoError(t, client.Close())
	_, err := conn.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteLine_ConvertsNewlines(t *testing.T) {
	conn, client := pipeConn(t)
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := io.ReadAtLeast(client, buf, len("a\r\nb\r\n"))
		done <- buf[:n]
	}()
	require.NoError(t, conn.WriteLine("a\nb"))
	assert.Equal(t, "a\r\nb\r\n", string(<-done))
}

func TestReadLine_Property_PlainLinesRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,60}`).Draw(rt, "text")
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		conn := NewConn(server, time.Second, time.Second)
		go func() { _, _ = client.Write([]byte(text + "\r\n")) }()

		line, err := conn.ReadLine(context.Background())
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		assert.Equal(rt, text, line)
	})
}
