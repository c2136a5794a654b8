package hal

import (
	"strconv"
	"strings"
)

// Attributes is an attribute bag used to build a link with more than just an href. Keys other
// than "rel", "href", "name", "hreflang", "title", "templated", "icon", and "align" are ignored.
type Attributes map[string]any

// A Link represents one hypermedia relation of a resource. Links are built with NewLink and should
// be treated as read-only afterwards.
type Link struct {
	// The relation identifier, e.g. "self" or "next".
	Rel string

	// The target of the link. This may be a URI template if Templated is true.
	Href string

	Name     string
	HrefLang string
	Title    string

	// Templated is nil unless the attribute was given, so that an explicit false is preserved.
	Templated *bool

	Icon  string
	Align string
}

// NewLink builds a link. The value is either a scalar, which becomes the href, or an attribute bag
// (Attributes, map[string]any, or *OrderedMap) which must contain an href.
//
// A *ValidationError is returned if rel or href is missing.
func NewLink(rel string, value any) (*Link, error) {
	if rel == "" {
		return nil, &ValidationError{Attribute: "rel"}
	}

	ret := &Link{
		Rel: rel,
	}

	if bag, ok := attributeBag(value); ok {
		if href, _ := bag.Get("href"); !truthy(href) {
			return nil, &ValidationError{Attribute: "href"}
		}
		for _, kv := range bag.Items() {
			ret.setAttribute(kv.Key, kv.Value)
		}
		return ret, nil
	}

	if !truthy(value) {
		return nil, &ValidationError{Attribute: "href"}
	}
	ret.Href = stringify(value)
	return ret, nil
}

func attributeBag(value any) (*OrderedMap, bool) {
	switch value := value.(type) {
	case *OrderedMap:
		return value, value != nil
	case Attributes:
		return orderedMapFromMap(value), value != nil
	case map[string]any:
		return orderedMapFromMap(value), value != nil
	case map[string]string:
		m := NewOrderedMap()
		for k, v := range value {
			m.Set(k, v)
		}
		return m, value != nil
	}
	return nil, false
}

func (l *Link) setAttribute(key string, value any) {
	switch key {
	case "rel":
		if rel := stringify(value); rel != "" {
			l.Rel = rel
		}
	case "href":
		l.Href = stringify(value)
	case "name":
		l.Name = stringify(value)
	case "hreflang":
		l.HrefLang = stringify(value)
	case "title":
		l.Title = stringify(value)
	case "templated":
		templated := truthy(value)
		l.Templated = &templated
	case "icon":
		l.Icon = stringify(value)
	case "align":
		l.Align = stringify(value)
	}
}

// IsTemplated returns true if the link's href is a URI template.
func (l *Link) IsTemplated() bool {
	return l.Templated != nil && *l.Templated
}

// attributes returns the link's present attributes. The rel is only included if requested, since
// inside a resource it's carried by the key of the links object.
func (l *Link) attributes(includeRel bool) *OrderedMap {
	ret := NewOrderedMap()
	if includeRel {
		ret.Append("rel", l.Rel)
	}
	ret.Append("href", l.Href)
	if l.Name != "" {
		ret.Append("name", l.Name)
	}
	if l.HrefLang != "" {
		ret.Append("hreflang", l.HrefLang)
	}
	if l.Title != "" {
		ret.Append("title", l.Title)
	}
	if l.Templated != nil {
		ret.Append("templated", *l.Templated)
	}
	if l.Icon != "" {
		ret.Append("icon", l.Icon)
	}
	if l.Align != "" {
		ret.Append("align", l.Align)
	}
	return ret
}

// JSONValue returns the standalone representation of the link, including its rel.
func (l *Link) JSONValue() *OrderedMap {
	return l.attributes(true)
}

func (l *Link) MarshalJSON() ([]byte, error) {
	return l.JSONValue().MarshalJSON()
}

// XMLString returns the link as a self-closing <link /> element.
func (l *Link) XMLString() string {
	var sb strings.Builder
	l.writeXML(&sb)
	return sb.String()
}

func (l *Link) writeXML(sb *strings.Builder) {
	sb.WriteString("<link")
	for _, kv := range l.attributes(true).Items() {
		var value string
		if b, ok := kv.Value.(bool); ok {
			value = strconv.FormatBool(b)
		} else {
			value = kv.Value.(string)
		}
		writeXMLAttribute(sb, kv.Key, value)
	}
	sb.WriteString(" />")
}
