package transport

import (
	"fmt"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// TextCodec converts between socket bytes and text in a named encoding.
type TextCodec struct {
	name string
	enc  encoding.Encoding
}

// NewTextCodec resolves name using the WHATWG encoding labels
// ("utf-8", "gbk", "windows-1252", ...). An empty name means utf-8.
func NewTextCodec(name string) (*TextCodec, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", domain.ErrValidation, name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return &TextCodec{name: canonical, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (c *TextCodec) Name() string { return c.name }

// Decode converts payload to a UTF-8 string.
func (c *TextCodec) Decode(payload []byte) (string, error) {
	b, err := c.enc.NewDecoder().Bytes(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode converts text to the codec's encoding.
func (c *TextCodec) Encode(text string) ([]byte, error) {
	return c.enc.NewEncoder().Bytes([]byte(text))
}

// EchoReply writes the output of a remote dispatch back to the connection it
// came from, unchanged.
func EchoReply(t ports.Transport, id domain.ConnID, output []byte) {
	t.WriteTo(id, output)
}

// EncodedReply is EchoReply with the output converted to the codec's encoding.
func EncodedReply(c *TextCodec) ports.ReplyFunc {
	return func(t ports.Transport, id domain.ConnID, output []byte) {
		b, err := c.Encode(string(output))
		if err != nil {
			b = output
		}
		t.WriteTo(id, b)
	}
}
