package handlers

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// Terminal is a line-oriented player connection. *telnet.Conn and *Console
// both satisfy it.
type Terminal interface {
	// ReadLine blocks for one line of input or until ctx is done.
	ReadLine(ctx context.Context) (string, error)
	WriteLine(text string) error
	WritePrompt(prompt string) error
}

// Console is a Terminal over a plain reader and writer, such as stdin and
// stdout. ReadLine must not be called concurrently.
type Console struct {
	r io.Reader
	w io.Writer

	wmu   sync.Mutex
	once  sync.Once
	lines chan consoleLine
	err   error
}

type consoleLine struct {
	text string
	err  error
}

// NewConsole creates a Console. Reading starts on the first ReadLine.
func NewConsole(r io.Reader, w io.Writer) *Console {
	return &Console{r: r, w: w, lines: make(chan consoleLine)}
}

// scan feeds lines to ReadLine until r fails. It outlives a cancelled
// ReadLine so that no input is lost between prompts.
func (c *Console) scan() {
	sc := bufio.NewScanner(c.r)
	for sc.Scan() {
		c.lines <- consoleLine{text: strings.TrimRight(sc.Text(), "\r")}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	c.lines <- consoleLine{err: err}
}

// ReadLine returns the next input line. Once the reader fails every later
// call returns the same error.
//
// Postcondition: When ctx ended the read, the returned error is ctx.Err().
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.once.Do(func() { go c.scan() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-c.lines:
		if l.err != nil {
			c.err = l.err
		}
		return l.text, l.err
	}
}

// WriteLine writes text and a newline.
func (c *Console) WriteLine(text string) error {
	return c.write(text + "\n")
}

// WritePrompt writes prompt without a newline.
func (c *Console) WritePrompt(prompt string) error {
	return c.write(prompt)
}

func (c *Console) write(s string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.w, s)
	return err
}
