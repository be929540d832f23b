package telnet

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240

	OptSuppressGoAhead byte = 3
)

// Conn wraps a TCP connection with the Telnet handling the game needs:
// IAC sequences are dropped from input and output lines end in CRLF.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. A zero timeout disables that deadline.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine reads one line of input without its line terminator. The read
// is abandoned when ctx is done or the read timeout expires, whichever
// comes first.
//
// Postcondition: When ctx ended the read, the returned error is ctx.Err().
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	deadline := time.Time{}
	if c.readTimeout > 0 {
		deadline = time.Now().Add(c.readTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = c.raw.SetReadDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = c.raw.SetReadDeadline(time.Now())
	})
	defer stop()

	line, err := c.readLine()
	if err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// The socket deadline can fire just before ctx records its own.
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return "", context.DeadlineExceeded
		}
		return "", err
	}
	return line, nil
}

func (c *Conn) readLine() (string, error) {
	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b < 32 && b != '\t':
			// control characters are dropped
		default:
			line.WriteByte(b)
		}
	}
}

// skipCommand consumes the rest of a command after its IAC byte.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = c.reader.ReadByte()
		return err
	case SB:
		var prev byte
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if prev == IAC && b == SE {
				return nil
			}
			prev = b
		}
	}
	return nil
}

// WriteLine sends text followed by CRLF. Embedded newlines are converted so
// multi-line text renders correctly on Telnet clients.
func (c *Conn) WriteLine(text string) error {
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")
	return c.Write([]byte(text + "\r\n"))
}

// WritePrompt sends prompt without a trailing newline.
func (c *Conn) WritePrompt(prompt string) error {
	return c.Write([]byte(prompt))
}

// Write sends raw bytes to the client.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
