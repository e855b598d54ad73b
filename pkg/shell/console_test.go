package shell

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_ReadLine(t *testing.T) {
	var out strings.Builder
	c := NewConsole(strings.NewReader("  -of json  \r\nlast"), &out, "PPTC")

	line, err := c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-of json", line)

	line, err = c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "PPTC>PPTC>PPTC>", out.String())
}

func TestConsole_PromptStyle(t *testing.T) {
	var out strings.Builder
	c := NewConsole(strings.NewReader("x\n"), &out, "Input", WithPromptStyle(strings.ToUpper))

	_, err := c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INPUT>", out.String())
	assert.Equal(t, "Input", c.Prompt())
}

func TestConsole_SanitizeRetry(t *testing.T) {
	var out strings.Builder
	c := NewConsole(strings.NewReader("bad\xff\n-v\n"), &out, "Input")

	line, err := c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-v", line)
	assert.Contains(t, out.String(), "Error: input contains invalid UTF-8 sequences. Please try again.")
}

func TestConsole_LineLimit(t *testing.T) {
	var out strings.Builder
	c := NewConsole(strings.NewReader("-of json\n-v\n"), &out, "Input", WithLineLimit(4))

	line, err := c.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-v", line)
	assert.Contains(t, out.String(), "input exceeds maximum allowed size")
}

func TestConsole_Canceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := NewConsole(pr, io.Discard, "Input")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ReadLine(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
