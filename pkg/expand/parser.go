package expand

import (
	"os"
	"strconv"
	"strings"

	varerrors "github.com/nimbusconf/varstore/errors"
)

const escapeChar = '\\'

// parser holds one expansion call's configuration and lookup; it is built
// fresh by Expander.Expand so concurrent calls against the same Expander
// never share mutable state.
type parser struct {
	varSymbol   rune
	strict      bool
	pid         PIDValue
	recoverNull *string
	lookup      Lookup
}

func isValidChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

func isInt(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func atoiTrim(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// pyIndex normalizes a Python slice bound against a sequence of length n: a
// negative value counts back from the end (clamped to 0), a value past the
// end clamps to n.
func pyIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
		return i
	}
	if i > n {
		return n
	}
	return i
}

// pySlice mirrors Python's s[start:end] semantics, including negative
// indices counting back from the end of s.
func pySlice(s string, start, end int) string {
	r := []rune(s)
	n := len(r)
	start = pyIndex(start, n)
	end = pyIndex(end, n)
	if end <= start {
		return ""
	}
	return string(r[start:end])
}

// pySliceFrom mirrors Python's s[start:] (no upper bound).
func pySliceFrom(s string, start int) string {
	n := len([]rune(s))
	return pySlice(s, start, n)
}

// expand is the top-level recursive scan: plain text accumulates until a
// var symbol or escape character is found, at which point the remainder is
// handed off and the result is spliced back in.
func (p *parser) expand(s []rune) (string, error) {
	var buff []rune
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case p.varSymbol:
			rest, err := p.expandVar(s[i+1:])
			if err != nil {
				return "", err
			}
			return string(buff) + rest, nil
		case escapeChar:
			rest, err := p.escape(s[i+1:])
			if err != nil {
				return "", err
			}
			return string(buff) + rest, nil
		default:
			buff = append(buff, c)
		}
	}
	return string(buff), nil
}

// escape handles the text immediately following a backslash.
func (p *parser) escape(s []rune) (string, error) {
	if len(s) == 0 {
		return "", newParseErr(varerrors.ErrMissingEscapedChar, string(s))
	}
	if len(s) == 1 {
		return string(s[0]), nil
	}
	if s[0] == p.varSymbol {
		rest, err := p.expand(s[1:])
		if err != nil {
			return "", err
		}
		return string(s[0]) + rest, nil
	}
	if s[0] == escapeChar {
		if s[1] == p.varSymbol {
			rest, err := p.expand(s[1:])
			if err != nil {
				return "", err
			}
			return string(escapeChar) + rest, nil
		}
		if s[1] == escapeChar {
			rest, err := p.escape(s[2:])
			if err != nil {
				return "", err
			}
			return string(escapeChar) + rest, nil
		}
	}
	rest, err := p.expand(s[1:])
	if err != nil {
		return "", err
	}
	return string(escapeChar) + string(s[0]) + rest, nil
}

// expandVar handles the text immediately following the var symbol.
func (p *parser) expandVar(s []rune) (string, error) {
	if len(s) == 0 {
		return string(p.varSymbol), nil
	}

	if s[0] == escapeChar {
		rest, err := p.escape(s[1:])
		if err != nil {
			return "", err
		}
		return string(p.varSymbol) + rest, nil
	}

	if s[0] == p.varSymbol {
		times := 2
		for _, c := range s[1:] {
			if c != p.varSymbol {
				break
			}
			times++
		}

		if times == 2 {
			switch p.pid.Mode {
			case PIDProcess:
				rest, err := p.expand(s[1:])
				if err != nil {
					return "", err
				}
				return strconv.Itoa(os.Getpid()) + rest, nil
			case PIDLiteral:
				rest, err := p.expand(s[1:])
				if err != nil {
					return "", err
				}
				return p.pid.Literal + rest, nil
			}
		}

		rest, err := p.expand(s[times-1:])
		if err != nil {
			return "", err
		}
		return strings.Repeat(string(p.varSymbol), times) + rest, nil
	}

	if s[0] == '{' {
		return p.expandModifierVar(s[1:])
	}

	var buff []rune
	i := 0
	for i < len(s) && isValidChar(s[i]) {
		buff = append(buff, s[i])
		i++
	}

	if i < len(s) {
		if len(buff) > 0 {
			val, err := p.getenv(string(buff), false, nil)
			if err != nil {
				return "", err
			}
			rest, err := p.expand(s[len(buff):])
			if err != nil {
				return "", err
			}
			return val + rest, nil
		}
		rest, err := p.expand(s)
		if err != nil {
			return "", err
		}
		return string(p.varSymbol) + rest, nil
	}

	return p.getenv(string(buff), false, nil)
}

// expandModifierVar handles the text immediately following "${", up to and
// including dispatch on the modifier character.
func (p *parser) expandModifierVar(s []rune) (string, error) {
	if len(s) <= 1 {
		return "", newParseErr(varerrors.ErrBadSubstitution, string(s))
	}

	indirect := false
	if s[0] == '!' {
		indirect = true
		s = s[1:]
	}

	var buff []rune
	i := 0
	for i < len(s) {
		c := s[i]
		if isValidChar(c) {
			buff = append(buff, c)
			i++
			continue
		}
		if c == '}' {
			n := len(buff) + 1
			val, err := p.getenv(string(buff), indirect, nil)
			if err != nil {
				return "", err
			}
			rest, err := p.expand(s[n:])
			if err != nil {
				return "", err
			}
			return val + rest, nil
		}
		n := len(buff)
		if c == ':' {
			n++
		}
		return p.expandAdvanced(string(buff), s[n:], indirect)
	}

	return "", newParseErr(varerrors.ErrMissingClosingBrace, string(buff))
}

// expandAdvanced parses the balanced-brace modifier text following a NAME
// (or NAME:) and dispatches on its leading character.
func (p *parser) expandAdvanced(name string, s []rune, indirect bool) (string, error) {
	if len(s) == 0 {
		return "", newParseErr(varerrors.ErrMissingClosingBrace, name)
	}

	var modRunes []rune
	depth := 1
	closed := false
	for _, c := range s {
		switch c {
		case '{':
			depth++
			modRunes = append(modRunes, c)
		case '}':
			depth--
			if depth == 0 {
				closed = true
			} else {
				modRunes = append(modRunes, c)
			}
		default:
			modRunes = append(modRunes, c)
		}
		if closed {
			break
		}
	}
	if depth != 0 {
		return "", newParseErr(varerrors.ErrMissingClosingBrace, name)
	}

	rest := s[len(modRunes)+1:]
	modifier, err := p.expand(modRunes)
	if err != nil {
		return "", err
	}
	if modifier == "" {
		return "", newParseErr(varerrors.ErrBadSubstitution, name)
	}

	modChars := []rune(modifier)
	var val string
	switch modChars[0] {
	case '-':
		val, err = p.expandDefault(name, string(modChars[1:]), false, indirect)
	case '=':
		val, err = p.expandDefault(name, string(modChars[1:]), true, indirect)
	case '+':
		val, err = p.expandSubstitute(name, string(modChars[1:]))
	case '?':
		val, err = p.expandStrict(name, string(modChars[1:]))
	default:
		val, err = p.expandOffset(name, modifier)
	}
	if err != nil {
		return "", err
	}

	r2, err := p.expand(rest)
	if err != nil {
		return "", err
	}
	return val + r2, nil
}

// expandDefault implements "-default" (set=false) and "=default" (set=true).
func (p *parser) expandDefault(name, modifier string, set, indirect bool) (string, error) {
	if set {
		cur, ok := p.lookup.Get(name)
		if !ok || cur == "" {
			if mutable, ok := p.lookup.(MutableLookup); ok {
				mutable.Set(name, modifier)
			}
		}
	}
	return p.getenv(name, indirect, &modifier)
}

// expandSubstitute implements "+alt".
func (p *parser) expandSubstitute(name, modifier string) (string, error) {
	if val, ok := p.lookup.Get(name); ok && val != "" {
		return modifier, nil
	}
	return "", nil
}

// expandStrict implements "?msg".
func (p *parser) expandStrict(name, modifier string) (string, error) {
	val, ok := p.lookup.Get(name)
	if ok && val != "" {
		return val, nil
	}
	if p.recoverNull != nil {
		return *p.recoverNull, nil
	}
	return "", newParamErr(name, modifier)
}

// expandOffset implements "OFFSET" and "OFFSET:LENGTH" substring access.
func (p *parser) expandOffset(name, modifier string) (string, error) {
	runes := []rune(modifier)
	var buff []rune
	for i, c := range runes {
		if c == ':' {
			offsetStr := string(buff)
			offset := 0
			if offsetStr != "" && isInt(offsetStr) {
				offset = atoiTrim(offsetStr)
			}
			return p.expandLength(name, string(runes[i+1:]), offset)
		}
		buff = append(buff, c)
	}

	offsetStr := strings.TrimSpace(string(buff))
	offset := 0
	if offsetStr != "" && isInt(offsetStr) {
		offset = atoiTrim(offsetStr)
	}
	val, err := p.getenv(name, false, nil)
	if err != nil {
		return "", err
	}
	return pySliceFrom(val, offset), nil
}

// expandLength implements the LENGTH half of "OFFSET:LENGTH".
func (p *parser) expandLength(name, modifier string, offset int) (string, error) {
	lengthStr := strings.TrimSpace(modifier)

	var length *int
	switch {
	case lengthStr == "":
		length = nil
	case !isInt(lengthStr):
		for _, c := range lengthStr {
			if !isValidChar(c) {
				return "", newParseErrDetail(varerrors.ErrOperandExpected, name, lengthStr)
			}
		}
		length = nil
	default:
		n := atoiTrim(lengthStr)
		if n < 0 {
			return "", newParseErrDetail(varerrors.ErrNegativeSubstring, name, lengthStr)
		}
		length = &n
	}

	val, err := p.getenv(name, false, nil)
	if err != nil {
		return "", err
	}

	width := 0
	if length != nil {
		width = offset + *length
	}
	return pySlice(val, offset, width), nil
}

// getenv is the single point where a NAME resolves to its final string,
// honoring indirection, an optional default, and strict/recover_null.
func (p *parser) getenv(name string, indirect bool, def *string) (string, error) {
	val, ok := p.lookup.Get(name)
	if ok && indirect {
		val, ok = p.lookup.Get(val)
	}
	if ok && val != "" {
		return val, nil
	}
	if def != nil {
		return *def, nil
	}
	if p.strict {
		if p.recoverNull != nil {
			return *p.recoverNull, nil
		}
		return "", newParseErr(varerrors.ErrUnboundVariable, name)
	}
	return "", nil
}
