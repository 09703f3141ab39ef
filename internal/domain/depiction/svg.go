package depiction

import (
	"fmt"
	"strings"
)

// RenderSVG encodes a layout as a standalone SVG document.  Overflow layouts
// produce a placeholder image rather than an error, so callers can always
// show something.
func RenderSVG(l *Layout, opts RenderOptions) []byte {
	s := buildScene(l, opts)
	var sb strings.Builder

	fmt.Fprintf(&sb,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		s.width, s.height, s.width, s.height)
	fmt.Fprintf(&sb, `<rect width="%.0f" height="%.0f" fill="#FFFFFF"/>`+"\n", s.width, s.height)

	for _, ln := range s.lines {
		fmt.Fprintf(&sb,
			`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#000000" stroke-width="%.2f" stroke-linecap="round"/>`+"\n",
			ln.X1, ln.Y1, ln.X2, ln.Y2, s.fontSize/10)
	}
	for _, c := range s.circles {
		fmt.Fprintf(&sb,
			`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="#000000" stroke-width="%.2f"/>`+"\n",
			c.X, c.Y, c.R, s.fontSize/12)
	}
	for _, lb := range s.labels {
		fmt.Fprintf(&sb,
			`<text x="%.2f" y="%.2f" font-family="Helvetica, Arial, sans-serif" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			lb.X, lb.Y, s.fontSize, lb.Color, escapeXML(lb.Text))
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String())
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
