package gradle

// A small tokenizer over the constrained task-registration grammar. It only
// needs to be precise about the things that break naive scanning: string
// literals (so braces inside strings do not affect nesting depth), comments,
// and identifier boundaries. Everything it does not care about comes back as
// single-character punct tokens.

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokNumber
	tokLBrace
	tokRBrace
	tokPunct
)

type token struct {
	kind tokKind
	text string // for strings: the unescaped content
	off  int    // byte offset in the source
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// next returns the next token, skipping whitespace and comments.
func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, off: l.pos}
	}
	off := l.pos
	c := l.src[l.pos]

	switch {
	case c == '{':
		l.pos++
		return token{kind: tokLBrace, text: "{", off: off}
	case c == '}':
		l.pos++
		return token{kind: tokRBrace, text: "}", off: off}
	case c == '\'' || c == '"':
		return l.scanString(c)
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[off:l.pos], off: off}
	case c >= '0' && c <= '9':
		for l.pos < len(l.src) && (l.src[l.pos] == '.' || (l.src[l.pos] >= '0' && l.src[l.pos] <= '9')) {
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[off:l.pos], off: off}
	default:
		l.pos++
		return token{kind: tokPunct, text: string(c), off: off}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
}

func (l *lexer) scanString(delim byte) token {
	off := l.pos
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if c == delim {
			raw := l.src[start:l.pos]
			l.pos++
			return token{kind: tokString, text: unescape(raw), off: off}
		}
		l.pos++
	}
	// Unterminated string: consume to EOF. The surrounding block extraction
	// reports the malformed block.
	return token{kind: tokString, text: unescape(l.src[start:]), off: off}
}

// skipBlock consumes tokens after an opening brace until its matching close,
// returning the byte offsets just inside the braces. Braces inside string
// literals and comments have already been absorbed by the tokenizer, so a
// plain depth count suffices. ok is false when the block never closes.
func (l *lexer) skipBlock(open token) (bodyStart, bodyEnd int, ok bool) {
	depth := 1
	bodyStart = open.off + 1
	for {
		t := l.next()
		switch t.kind {
		case tokEOF:
			return bodyStart, len(l.src), false
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth == 0 {
				return bodyStart, t.off, true
			}
		}
	}
}
