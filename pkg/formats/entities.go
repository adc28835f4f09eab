package formats

import (
	"strconv"
	"strings"

	"github.com/Faultbox/bsplight/pkg/encoding"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// FirstSwitchableStyle is the first style index compilers hand out to
// targetnamed lights.
const FirstSwitchableStyle = 32

// Entity is one key/value block of the entities lump. Later duplicate keys
// overwrite earlier ones.
type Entity map[string]string

// ClassName returns the entity's classname.
func (e Entity) ClassName() string {
	return e["classname"]
}

// ParseEntities decodes the entities lump. Parsing is lenient and stops at
// the first unbalanced block.
func ParseEntities(data []byte) []Entity {
	var (
		out  []Entity
		cur  Entity
		key  string
		have bool
	)
	tok := &tokenizer{src: encoding.FixedString(data)}
	for {
		t, quoted, ok := tok.next()
		if !ok {
			break
		}
		switch {
		case !quoted && t == "{":
			if cur != nil {
				return out
			}
			cur = Entity{}
		case !quoted && t == "}":
			if cur == nil {
				return out
			}
			out = append(out, cur)
			cur, have = nil, false
		case cur == nil:
			return out
		case !have:
			key, have = t, true
		default:
			cur[key] = t
			have = false
		}
	}
	return out
}

type tokenizer struct {
	src string
	pos int
}

// next returns the next brace or quoted string.
func (t *tokenizer) next() (tok string, quoted, ok bool) {
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case c == '{' || c == '}':
			t.pos++
			return string(c), false, true
		case c == '"':
			end := strings.IndexByte(t.src[t.pos+1:], '"')
			if end < 0 {
				return "", false, false
			}
			s := t.src[t.pos+1 : t.pos+1+end]
			t.pos += end + 2
			return s, true, true
		case c == '/' && strings.HasPrefix(t.src[t.pos:], "//"):
			if nl := strings.IndexByte(t.src[t.pos:], '\n'); nl >= 0 {
				t.pos += nl + 1
			} else {
				t.pos = len(t.src)
			}
		default:
			t.pos++
		}
	}
	return "", false, false
}

// SwitchableStyles maps the targetname of each switchable light to the
// style the compiler assigned it.
func SwitchableStyles(entities []Entity) map[string]lightstyle.Style {
	out := make(map[string]lightstyle.Style)
	for _, e := range entities {
		if !strings.HasPrefix(e.ClassName(), "light") {
			continue
		}
		name := e["targetname"]
		if name == "" {
			continue
		}
		style, err := strconv.Atoi(e["style"])
		if err != nil || style < FirstSwitchableStyle || style > lightstyle.MaxStyle {
			continue
		}
		out[name] = lightstyle.Style(style)
	}
	return out
}
