package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Console reads command lines from an input stream and writes prompts and
// results to an output stream. A single pump goroutine owns the reader so
// that ReadLine can honor context cancellation.
type Console struct {
	reader   *bufio.Reader
	writer   io.Writer
	prompt   string
	style    func(string) string
	maxInput int

	lines     chan consoleLine
	startOnce sync.Once
}

type consoleLine struct {
	text string
	err  error
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPromptStyle decorates the prompt before it is printed, e.g. with
// terminal colors.
func WithPromptStyle(style func(string) string) ConsoleOption {
	return func(c *Console) {
		c.style = style
	}
}

// WithLineLimit bounds one console line, in bytes.
func WithLineLimit(n int) ConsoleOption {
	return func(c *Console) {
		c.maxInput = n
	}
}

// NewConsole creates a console. Nil streams default to stdin and stdout.
func NewConsole(r io.Reader, w io.Writer, prompt string, opts ...ConsoleOption) *Console {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}
	c := &Console{
		reader: bufio.NewReader(r),
		writer: w,
		prompt: prompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prompt returns the plain prompt text.
func (c *Console) Prompt() string { return c.prompt }

// Writer returns the output stream.
func (c *Console) Writer() io.Writer { return c.writer }

func (c *Console) initPump() {
	c.startOnce.Do(func() {
		c.lines = make(chan consoleLine)
		go c.pump()
	})
}

func (c *Console) pump() {
	for {
		text, err := c.reader.ReadString('\n')
		if text != "" {
			c.lines <- consoleLine{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(c.lines)
				return
			}
			c.lines <- consoleLine{err: err}
			// Avoid spinning on a persistently failing reader.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// ReadLine prints the prompt and waits for the next sanitized line.
// It returns io.EOF when the input stream is exhausted and ctx.Err() when
// ctx is done first.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(c.writer, c.styledPrompt()+">")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-c.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text), c.maxInput)
			if err != nil {
				fmt.Fprintf(c.writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (c *Console) styledPrompt() string {
	if c.style == nil {
		return c.prompt
	}
	return c.style(c.prompt)
}
