package i18n

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Bundle resolves dot-separated keys to leaf values. A leaf is either a
// string or a list of strings; anything else found at a key is a subtree.
type Bundle interface {
	Lookup(key string) (any, bool)
}

// TreeBundle is a nested map decoded from JSON or YAML.
type TreeBundle map[string]any

func (b TreeBundle) Lookup(key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	var node any = map[string]any(b)
	for _, segment := range strings.Split(key, ".") {
		children, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = children[segment]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// PoBundle serves gettext catalogs whose msgids are the dot keys themselves.
type PoBundle struct {
	po *gotext.Po
}

// NewPoBundle parses a .po catalog.
func NewPoBundle(data []byte) *PoBundle {
	po := gotext.NewPo()
	po.Parse(data)
	return &PoBundle{po: po}
}

func (b *PoBundle) Lookup(key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	tr, ok := b.po.GetDomain().GetTranslations()[key]
	if !ok {
		return nil, false
	}
	// gotext echoes the msgid for untranslated entries.
	value := tr.Get()
	if value == key || value == "" {
		return nil, false
	}
	return value, true
}

// layeredBundle consults each layer in order and returns the first hit.
type layeredBundle []Bundle

func (l layeredBundle) Lookup(key string) (any, bool) {
	for _, layer := range l {
		if value, ok := layer.Lookup(key); ok {
			return value, true
		}
	}
	return nil, false
}

func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
