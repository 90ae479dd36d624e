package kanjivg

import (
	"bytes"
	"strconv"
)

// CanvasSize is the side of the KanjiVG coordinate system.
const CanvasSize = 109

// Paint applies the raster styling to every stroke path below g: black
// stroke, no fill, and strokeWidth when it is positive. The style
// attribute is removed so it cannot override the presentation attributes.
func Paint(g *Node, strokeWidth float64) {
	for _, p := range g.Descendants("path") {
		p.RemoveAttr("style")
		p.SetAttr("stroke", "black")
		p.SetAttr("fill", "none")
		if strokeWidth > 0 {
			p.SetAttr("stroke-width", strconv.FormatFloat(strokeWidth, 'f', -1, 64))
		}
	}
}

// Document wraps g in a standalone SVG document with a white background,
// a CanvasSize viewBox and the given pixel size.
func Document(g *Node, width, height int) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="` + SVGNamespace + `" xmlns:kvg="` + Namespace + `"`)
	buf.WriteString(` width="` + strconv.Itoa(width) + `" height="` + strconv.Itoa(height) + `"`)
	size := strconv.Itoa(CanvasSize)
	buf.WriteString(` viewBox="0 0 ` + size + ` ` + size + `">` + "\n")
	buf.WriteString(`  <rect width="` + size + `" height="` + size + `" fill="white"/>` + "\n  ")
	g.encode(&buf)
	buf.WriteString("\n</svg>\n")
	return buf.Bytes()
}
