package payload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errPHPSyntax = errors.New("php unserialize: syntax error")

// unserializePHP decodes the subset of PHP's serialize() format the LMS writes
// to the log: scalars, arrays and plain objects. Arrays and objects become
// map[string]any keyed by the string form of their keys. References and
// custom-serialized classes are rejected.
func unserializePHP(s string) (any, error) {
	p := &phpParser{src: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", errPHPSyntax, p.pos)
	}
	return v, nil
}

type phpParser struct {
	src string
	pos int
}

func (p *phpParser) fail(what string) error {
	return fmt.Errorf("%w: %s at offset %d", errPHPSyntax, what, p.pos)
}

func (p *phpParser) expect(b byte) error {
	if p.pos >= len(p.src) || p.src[p.pos] != b {
		return p.fail(fmt.Sprintf("expected %q", b))
	}
	p.pos++
	return nil
}

// until returns the text up to the next delim and consumes the delimiter.
func (p *phpParser) until(delim byte) (string, error) {
	i := strings.IndexByte(p.src[p.pos:], delim)
	if i < 0 {
		return "", p.fail(fmt.Sprintf("missing %q", delim))
	}
	tok := p.src[p.pos : p.pos+i]
	p.pos += i + 1
	return tok, nil
}

func (p *phpParser) value() (any, error) {
	if p.pos+1 >= len(p.src) {
		return nil, p.fail("unexpected end")
	}
	tag := p.src[p.pos]
	if tag == 'N' {
		p.pos++
		return nil, p.expect(';')
	}
	p.pos++
	if err := p.expect(':'); err != nil {
		return nil, err
	}

	switch tag {
	case 'b':
		tok, err := p.until(';')
		if err != nil {
			return nil, err
		}
		switch tok {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, p.fail("bad boolean")
	case 'i':
		tok, err := p.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, p.fail("bad integer")
		}
		return n, nil
	case 'd':
		tok, err := p.until(';')
		if err != nil {
			return nil, err
		}
		switch tok {
		case "INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NAN":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, p.fail("bad float")
		}
		return f, nil
	case 's':
		return p.str()
	case 'a':
		return p.members()
	case 'O':
		// Class name is discarded; only the properties matter.
		if _, err := p.str(); err != nil {
			return nil, err
		}
		return p.members()
	}
	return nil, p.fail(fmt.Sprintf("unsupported type %q", tag))
}

// str reads `<len>:"<bytes>"` followed by ';' (for values) or ':' (class names).
func (p *phpParser) str() (string, error) {
	tok, err := p.until(':')
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return "", p.fail("bad string length")
	}
	if err := p.expect('"'); err != nil {
		return "", err
	}
	if p.pos+n > len(p.src) {
		return "", p.fail("string overruns input")
	}
	v := p.src[p.pos : p.pos+n]
	p.pos += n
	if err := p.expect('"'); err != nil {
		return "", err
	}
	if p.pos >= len(p.src) || (p.src[p.pos] != ';' && p.src[p.pos] != ':') {
		return "", p.fail("unterminated string")
	}
	p.pos++
	return v, nil
}

func (p *phpParser) members() (map[string]any, error) {
	tok, err := p.until(':')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return nil, p.fail("bad member count")
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	// A member is at least a 4 byte key plus a value.
	if n > (len(p.src)-p.pos)/4 {
		return nil, p.fail("member count exceeds input")
	}
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		var key string
		switch kv := k.(type) {
		case int64:
			key = strconv.FormatInt(kv, 10)
		case string:
			key = visibleName(kv)
		default:
			return nil, p.fail("bad member key")
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	if err := p.expect('}'); err != nil {
		return nil, err
	}
	return out, nil
}

// visibleName strips the NUL-delimited class prefix PHP adds to private and
// protected property names.
func visibleName(k string) string {
	if len(k) > 0 && k[0] == 0 {
		if i := strings.IndexByte(k[1:], 0); i >= 0 {
			return k[i+2:]
		}
	}
	return k
}
