// Package directive classifies incremental model output as prose, a tool-call
// directive, or a malformed directive.
//
// The call grammar is a fenced block:
//
//	<tool_call>{"name": "weather", "arguments": {"location": "Paris, FR"}}</tool_call>
//
// The body must be a single JSON object with a non-empty string "name" and an
// optional object "arguments". Text that could still turn out to be a marker
// prefix is withheld from the content stream until the grammar is confirmed
// or refuted, so a directive never leaks to the user as prose. A fully opened
// block that is unterminated at end of stream, or whose body fails the JSON
// shape above, is Malformed.
package directive

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/breezebot/breezebot/internal/core"
)

const (
	openMarker  = "<tool_call>"
	closeMarker = "</tool_call>"
)

type Kind int

const (
	KindContent Kind = iota
	KindToolCall
	KindMalformed
)

// Directive is one classification produced while scanning model output.
type Directive struct {
	Kind Kind
	Text string        // KindContent
	Call core.ToolCall // KindToolCall
	Raw  string        // KindMalformed: the full directive text
}

func Content(text string) Directive {
	return Directive{Kind: KindContent, Text: text}
}

// Parser is an incremental scanner over the model's token stream. It is not
// safe for concurrent use; each generation segment gets its own Parser.
type Parser struct {
	pending string // text not yet classified, outside a directive
	body    string // accumulated directive body, inside a directive
	inBody  bool
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes the next increment and returns zero or more directives in
// order. Content may be withheld across calls while a marker prefix is
// ambiguous.
func (p *Parser) Feed(chunk string) []Directive {
	if p.inBody {
		p.body += chunk
	} else {
		p.pending += chunk
	}

	var out []Directive
	for {
		if p.inBody {
			idx := strings.Index(p.body, closeMarker)
			if idx < 0 {
				break
			}
			raw := p.body[:idx]
			rest := p.body[idx+len(closeMarker):]
			out = append(out, classifyBody(raw))
			p.body = ""
			p.inBody = false
			p.pending = rest
			continue
		}

		lt := strings.IndexByte(p.pending, '<')
		if lt < 0 {
			if p.pending != "" {
				out = appendContent(out, p.pending)
				p.pending = ""
			}
			break
		}
		if lt > 0 {
			out = appendContent(out, p.pending[:lt])
			p.pending = p.pending[lt:]
		}

		if strings.HasPrefix(p.pending, openMarker) {
			p.body = p.pending[len(openMarker):]
			p.pending = ""
			p.inBody = true
			continue
		}
		if len(p.pending) < len(openMarker) && strings.HasPrefix(openMarker, p.pending) {
			// Could still become an opening marker: hold.
			break
		}

		// The '<' does not open a directive. Release it together with
		// everything up to the next candidate.
		next := strings.IndexByte(p.pending[1:], '<')
		if next < 0 {
			out = appendContent(out, p.pending)
			p.pending = ""
		} else {
			out = appendContent(out, p.pending[:1+next])
			p.pending = p.pending[1+next:]
		}
	}
	return out
}

// Flush ends the stream. Withheld text that never completed an opening marker
// is released as content; an open directive body becomes Malformed.
func (p *Parser) Flush() []Directive {
	if p.inBody {
		raw := openMarker + p.body
		p.body = ""
		p.inBody = false
		return []Directive{{Kind: KindMalformed, Raw: raw}}
	}
	if p.pending != "" {
		text := p.pending
		p.pending = ""
		return []Directive{Content(text)}
	}
	return nil
}

func classifyBody(raw string) Directive {
	malformed := Directive{Kind: KindMalformed, Raw: openMarker + raw + closeMarker}

	body := strings.TrimSpace(raw)
	if !gjson.Valid(body) {
		return malformed
	}
	v := gjson.Parse(body)
	if !v.IsObject() {
		return malformed
	}

	name := v.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return malformed
	}

	args := map[string]any{}
	if a := v.Get("arguments"); a.Exists() {
		if !a.IsObject() {
			return malformed
		}
		if m, ok := a.Value().(map[string]any); ok {
			args = m
		}
	}

	return Directive{Kind: KindToolCall, Call: core.ToolCall{Name: name.Str, Arguments: args}}
}

func appendContent(out []Directive, text string) []Directive {
	if n := len(out); n > 0 && out[n-1].Kind == KindContent {
		out[n-1].Text += text
		return out
	}
	return append(out, Content(text))
}
