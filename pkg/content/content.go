// Package content turns heterogeneous backend payloads into canonical markdown.
//
// Decode is the only place payload shapes are inspected. Everything past it
// works on a Payload, never on the raw value.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackText is shown when a structured payload cannot be printed
const FallbackText = "[Content could not be displayed]"

const fence = "```"

// candidateKeys are scanned in order; the first present, non-null key wins
var candidateKeys = []string{"raw", "code", "content", "text", "output", "data"}

var langKeys = []string{"lang", "language", "format"}

// Kind identifies which variant a Payload holds
type Kind int

const (
	KindText Kind = iota
	KindCode
	KindJSON
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCode:
		return "code"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Payload is a decoded backend payload
type Payload struct {
	Kind  Kind
	Text  string // KindText and KindCode
	Lang  string // KindCode
	Value any    // KindJSON
}

// Text returns a plain text payload
func Text(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

// CodeBlock returns a payload rendered as a fenced block tagged with lang
func CodeBlock(lang, code string) Payload {
	return Payload{Kind: KindCode, Text: code, Lang: lang}
}

// JSON returns a payload rendered as a pretty-printed json fence
func JSON(v any) Payload {
	return Payload{Kind: KindJSON, Value: v}
}

// Decode classifies v. It never fails.
func Decode(v any) Payload {
	switch t := v.(type) {
	case nil:
		return Text("")
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err != nil {
			return Text(string(t))
		}
		return Decode(decoded)
	case map[string]any:
		return decodeObject(t)
	case []any:
		return JSON(t)
	default:
		return Text(fmt.Sprint(t))
	}
}

func decodeObject(obj map[string]any) Payload {
	for _, key := range candidateKeys {
		val, ok := obj[key]
		if !ok || val == nil {
			continue
		}
		switch inner := val.(type) {
		case string:
			if strings.HasPrefix(inner, fence) {
				return Text(inner)
			}
			trimmed := strings.TrimSpace(inner)
			if lang := languageHint(obj); lang != "" {
				return CodeBlock(lang, trimmed)
			}
			return Text(trimmed)
		case map[string]any, []any:
			return JSON(inner)
		default:
			return Text(fmt.Sprint(inner))
		}
	}
	return JSON(obj)
}

func languageHint(obj map[string]any) string {
	for _, key := range langKeys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Markdown renders the payload as canonical markdown
func (p Payload) Markdown() string {
	switch p.Kind {
	case KindCode:
		return fence + p.Lang + "\n" + p.Text + "\n" + fence
	case KindJSON:
		pretty, err := prettyJSON(p.Value)
		if err != nil {
			return FallbackText
		}
		return fence + "json\n" + pretty + "\n" + fence
	default:
		return p.Text
	}
}

// Empty reports whether the payload renders to nothing
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.Markdown()) == ""
}

// Normalize converts any backend payload into canonical markdown
func Normalize(v any) string {
	return Decode(v).Markdown()
}

// Stringify coerces artifact content to text: strings as-is, structured
// values as pretty JSON, everything else via fmt.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any, []any:
		pretty, err := prettyJSON(t)
		if err != nil {
			return FallbackText
		}
		return pretty
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func prettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
