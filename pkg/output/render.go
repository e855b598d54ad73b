package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
)

// RootElement is the element that wraps results in the XML form.
const RootElement = "Root"

// Render formats r in the requested form. The returned text has no trailing newline.
func Render(r *Result, f Format) (string, error) {
	if r == nil {
		r = NewResult()
	}
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render json: %w", err)
		}
		return string(data), nil
	case FormatXML:
		return renderXML(r)
	default:
		return renderLines(r)
	}
}

func renderLines(r *Result) (string, error) {
	var b strings.Builder
	var err error
	r.Each(func(key string, value any) {
		if err != nil {
			return
		}
		var text string
		text, err = scalarText(value)
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(text)
	})
	if err != nil {
		return "", fmt.Errorf("render default: %w", err)
	}
	return b.String(), nil
}

// scalarText renders strings verbatim and everything else as compact JSON.
func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderXML(r *Result) (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := encodeElement(enc, RootElement, r); err != nil {
		return "", fmt.Errorf("render xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("render xml: %w", err)
	}
	return buf.String(), nil
}

func encodeElement(enc *xml.Encoder, name string, value any) error {
	name = xmlName(name)

	switch v := value.(type) {
	case *Result:
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		var err error
		v.Each(func(key string, child any) {
			if err == nil {
				err = encodeElement(enc, key, child)
			}
		})
		if err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	case map[string]any:
		nested := NewResult()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nested.Set(k, v[k])
		}
		return encodeElement(enc, name, nested)
	case string, nil:
		// handled below
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 || rv.Kind() == reflect.Array {
			// Arrays repeat the element once per item.
			for i := 0; i < rv.Len(); i++ {
				if err := encodeElement(enc, name, rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
	}

	text, err := scalarText(value)
	if err != nil {
		return err
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// xmlName replaces characters that are not valid in an XML element name.
func xmlName(key string) string {
	if key == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range key {
		valid := unicode.IsLetter(r) || r == '_' ||
			(i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'))
		if !valid {
			if i == 0 && (unicode.IsDigit(r) || r == '-' || r == '.') {
				b.WriteRune('_')
				b.WriteRune(r)
				continue
			}
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
