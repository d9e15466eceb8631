package template

import "strings"

// tokenKind distinguishes the linear tokens produced by scanning a template
// string before they are assembled into the conditional block tree.
type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokExpr
	tokIf
	tokElse
	tokEndif
)

// token is one linear piece of a scanned template: either literal text or a
// `${...}` clause. src is the raw clause body (without the `${`/`}` or the
// `if`/`endif` keywords) for tokExpr and tokIf; it is unused otherwise.
type token struct {
	kind     tokenKind
	text     string // literal text, for tokLiteral
	src      string // clause source, for tokExpr/tokIf
	raw      string // the verbatim "${...}" (plus trailing "?"), for tokExpr
	optional bool   // true if the clause carried the `}?` suffix
}

// scan splits src into a linear token stream, honoring the `$${` escape
// (which produces a literal "${" fragment) and the `}?` optional suffix.
func scan(src string) ([]token, error) {
	var toks []token
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{kind: tokLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	n := len(src)
	for i < n {
		// Escape: "$${" is kept verbatim so that re-resolving the output is
		// idempotent; only Options.Unescape collapses it to a literal "${"
		// at the very end, once no further resolution passes will occur.
		if i+2 < n && src[i] == '$' && src[i+1] == '$' && src[i+2] == '{' {
			lit.WriteString("$${")
			i += 3
			continue
		}
		if i+1 < n && src[i] == '$' && src[i+1] == '{' {
			// Find the matching closing brace, respecting nested braces that
			// can appear inside string literals within the clause.
			end, err := findClauseEnd(src, i+2)
			if err != nil {
				return nil, err
			}
			body := src[i+2 : end]
			rest := src[end+1:]
			optional := false
			if strings.HasPrefix(rest, "?") {
				optional = true
			}

			flushLiteral()
			trimmed := strings.TrimSpace(body)
			switch {
			case trimmed == "else":
				toks = append(toks, token{kind: tokElse})
			case trimmed == "endif":
				toks = append(toks, token{kind: tokEndif})
			case strings.HasPrefix(trimmed, "if "):
				toks = append(toks, token{kind: tokIf, src: strings.TrimSpace(trimmed[3:])})
			case strings.HasPrefix(trimmed, "if\t"):
				toks = append(toks, token{kind: tokIf, src: strings.TrimSpace(trimmed[3:])})
			default:
				rawEnd := end + 1
				if optional {
					rawEnd++
				}
				toks = append(toks, token{kind: tokExpr, src: trimmed, optional: optional, raw: src[i:rawEnd]})
			}

			i = end + 1
			if optional {
				i++
			}
			continue
		}
		lit.WriteByte(src[i])
		i++
	}
	flushLiteral()
	return toks, nil
}

// findClauseEnd returns the index of the `}` that closes the clause opened at
// the position just after "${", skipping over brace characters that occur
// inside single- or double-quoted string literals.
func findClauseEnd(src string, from int) (int, error) {
	depth := 1
	inString := byte(0)
	i := from
	for i < len(src) {
		c := src[i]
		switch {
		case inString != 0:
			if c == '\\' && i+1 < len(src) {
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
		case c == '\'' || c == '"':
			inString = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, newErr(ErrTemplateStructure, src[from:], "unterminated \"${\" clause")
}
