package hal

import (
	"strings"
)

// Only quotes and angle brackets are escaped. Ampersands are left alone, so "&amp;" in a value is
// emitted as-is and a bare "&" produces output that strict XML parsers will reject.
var xmlEscaper = strings.NewReplacer(
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

func writeXMLAttribute(sb *strings.Builder, name, value string) {
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(escapeXML(value))
	sb.WriteByte('"')
}

// singularize turns an embedded relation into the rel of its nested <resource> elements. It only
// strips one trailing "s": "orders" becomes "order", "people" stays "people".
func singularize(rel string) string {
	return strings.TrimSuffix(rel, "s")
}

type xmlWriter struct {
	sb     strings.Builder
	indent string
}

// line starts a new element at the given depth. Without an indent string everything stays on one
// line.
func (w *xmlWriter) line(depth int) {
	if w.indent == "" {
		return
	}
	if w.sb.Len() > 0 {
		w.sb.WriteByte('\n')
	}
	for i := 0; i < depth; i++ {
		w.sb.WriteString(w.indent)
	}
}

func (w *xmlWriter) writeResource(r *Resource, rel string, depth int) {
	hrefProperty, hasHrefProperty := r.properties.Get("href")

	w.line(depth)
	w.sb.WriteString("<resource")
	if rel != "" {
		writeXMLAttribute(&w.sb, "rel", rel)
	}
	if hasHrefProperty && truthy(hrefProperty) {
		writeXMLAttribute(&w.sb, "href", stringify(hrefProperty))
	} else if self := r.Self(); self != nil {
		writeXMLAttribute(&w.sb, "href", self.Href)
	}
	if name, ok := r.properties.Get("name"); ok && truthy(name) {
		writeXMLAttribute(&w.sb, "name", stringify(name))
	}
	w.sb.WriteByte('>')

	for _, slot := range r.links {
		// The self link is already the href attribute unless an href property took its place.
		if slot.rel == "self" && !(hasHrefProperty && truthy(hrefProperty)) {
			continue
		}
		for _, link := range slot.value.Links() {
			w.line(depth + 1)
			link.writeXML(&w.sb)
		}
	}

	for _, slot := range r.embedded {
		childRel := singularize(slot.rel)
		for _, child := range slot.resources {
			w.writeResource(child, childRel, depth+1)
		}
	}

	for _, kv := range r.properties.Items() {
		w.line(depth + 1)
		w.sb.WriteByte('<')
		w.sb.WriteString(kv.Key)
		w.sb.WriteByte('>')
		w.sb.WriteString(stringify(kv.Value))
		w.sb.WriteString("</")
		w.sb.WriteString(kv.Key)
		w.sb.WriteByte('>')
	}

	w.line(depth)
	w.sb.WriteString("</resource>")
}

// XMLString returns the XML representation of the resource on a single line.
func (r *Resource) XMLString() string {
	return r.XMLIndent("")
}

// XMLIndent returns the XML representation of the resource. If indent is non-empty, each element
// is placed on its own line and prefixed with indent once per level of nesting.
func (r *Resource) XMLIndent(indent string) string {
	w := &xmlWriter{
		indent: indent,
	}
	w.writeResource(r, "", 0)
	return w.sb.String()
}
