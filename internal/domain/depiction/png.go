package depiction

import (
	"bytes"
	"image/png"

	"github.com/fogleman/gg"

	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
)

// RenderPNG rasterizes a layout to PNG bytes.  Overflow layouts render the
// same placeholder image as the SVG path.
func RenderPNG(l *Layout, opts RenderOptions) ([]byte, error) {
	s := buildScene(l, opts)
	dc := gg.NewContext(int(s.width), int(s.height))

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(s.fontSize / 10)
	for _, ln := range s.lines {
		dc.DrawLine(ln.X1, ln.Y1, ln.X2, ln.Y2)
	}
	dc.Stroke()

	dc.SetLineWidth(s.fontSize / 12)
	for _, c := range s.circles {
		dc.DrawCircle(c.X, c.Y, c.R)
	}
	dc.Stroke()

	for _, lb := range s.labels {
		dc.SetHexColor(lb.Color)
		dc.DrawStringAnchored(lb.Text, lb.X, lb.Y, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDepictionFailed, "png encoding failed")
	}
	return buf.Bytes(), nil
}
