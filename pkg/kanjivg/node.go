package kanjivg

import (
	"bytes"
	"encoding/xml"
)

// Namespace is the URI KanjiVG binds to its "kvg" prefix. Attributes are
// matched by this URI, never by prefix text.
const Namespace = "http://kanjivg.tagaini.net"

// SVGNamespace is the default namespace of the generated documents.
const SVGNamespace = "http://www.w3.org/2000/svg"

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Node is a generic XML element. Character data is dropped; KanjiVG
// carries none besides indentation.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Node     `xml:",any"`
}

// Attr returns the value of the attribute named local in namespace space.
// An empty space matches unqualified attributes only.
func (n *Node) Attr(space, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an unqualified attribute, replacing any existing value.
func (n *Node) SetAttr(local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// RemoveAttr deletes an unqualified attribute.
func (n *Node) RemoveAttr(local string) {
	attrs := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attrs = attrs
}

// Child returns the first direct child element named local.
func (n *Node) Child(local string) *Node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

// Walk calls fn for every descendant of n, depth first, excluding n.
func (n *Node) Walk(fn func(*Node)) {
	for i := range n.Children {
		fn(&n.Children[i])
		n.Children[i].Walk(fn)
	}
}

// Descendants returns every descendant element named local.
func (n *Node) Descendants(local string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) {
		if c.XMLName.Local == local {
			out = append(out, c)
		}
	})
	return out
}

// encode writes n as markup. KanjiVG attributes are written with the
// "kvg" prefix; namespace declarations are left to the enclosing document.
func (n *Node) encode(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(n.XMLName.Local)
	for _, a := range n.Attrs {
		name, ok := attrName(a.Name)
		if !ok {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(name)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for i := range n.Children {
		n.Children[i].encode(buf)
	}
	buf.WriteString("</")
	buf.WriteString(n.XMLName.Local)
	buf.WriteByte('>')
}

func attrName(name xml.Name) (string, bool) {
	switch name.Space {
	case "":
		if name.Local == "xmlns" {
			return "", false
		}
		return name.Local, true
	case Namespace:
		return "kvg:" + name.Local, true
	case xmlNamespace, "xml":
		return "xml:" + name.Local, true
	}
	// Namespace declarations and attributes of unknown namespaces.
	return "", false
}
