package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/tokenizer"
	"github.com/aretw0/conshell/pkg/transport"
)

// NetworkHandler is the default ports.DataHandler: every line of a payload is
// echoed on the console and dispatched with the connection as origin.
type NetworkHandler struct {
	// MaxInputSize bounds one received line; zero means DefaultMaxInputSize.
	MaxInputSize int

	dispatcher registry.Dispatcher
	codec      *transport.TextCodec
	console    io.Writer
	prompt     string
	reply      ports.ReplyFunc
	logger     *slog.Logger
}

var _ ports.DataHandler = (*NetworkHandler)(nil)

// NewNetworkHandler creates a handler. reply may be nil, in which case the
// output of remote commands only goes to the console.
func NewNetworkHandler(d registry.Dispatcher, codec *transport.TextCodec, console io.Writer, prompt string, reply ports.ReplyFunc, logger *slog.Logger) *NetworkHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NetworkHandler{
		dispatcher: d,
		codec:      codec,
		console:    console,
		prompt:     prompt,
		reply:      reply,
		logger:     logger,
	}
}

func (h *NetworkHandler) OnData(ctx context.Context, t ports.Transport, id domain.ConnID, payload []byte) {
	text := string(payload)
	if h.codec != nil {
		decoded, err := h.codec.Decode(payload)
		if err != nil {
			h.logger.Warn("cannot decode payload", "transport", t.Kind(), "conn", id, "err", err)
			return
		}
		text = decoded
	}

	origin := domain.OriginFor(t.Kind(), id)
	for _, line := range splitLines(text) {
		clean, err := SanitizeInput(line, h.MaxInputSize)
		if err != nil {
			fmt.Fprintf(h.console, "Error: %v\n", err)
			continue
		}
		tokens := tokenizer.Tokenize(clean)
		if len(tokens) == 0 {
			continue
		}
		fmt.Fprintf(h.console, "%s>%s\n", h.prompt, clean)

		if h.reply == nil {
			_ = h.dispatcher.Dispatch(ctx, tokens, origin, h.console)
			continue
		}
		var captured bytes.Buffer
		_ = h.dispatcher.Dispatch(ctx, tokens, origin, io.MultiWriter(h.console, &captured))
		if captured.Len() > 0 {
			h.reply(t, id, captured.Bytes())
		}
	}
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
}
