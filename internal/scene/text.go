package scene

import (
	"math"
	"unicode/utf8"

	"slide-annotator/pkg/geometry"
)

// Text is a single line of text whose baseline starts at Anchor.
type Text struct {
	nodeBase
	Content  string
	FontSize float64
	anchor   geometry.Point2D
}

// NewText creates a text node.
func NewText(content string, anchor geometry.Point2D, fontSize float64) *Text {
	return &Text{nodeBase: newBase(KindText), Content: content, FontSize: fontSize, anchor: anchor}
}

// Anchor returns the baseline origin in parent coordinates.
func (t *Text) Anchor() geometry.Point2D {
	return t.matrix.Apply(t.anchor)
}

// SetAnchor moves the baseline origin, given in parent coordinates.
func (t *Text) SetAnchor(p geometry.Point2D) {
	t.matrix = geometry.Identity()
	t.anchor = p
}

// Remove detaches the text from its parent.
func (t *Text) Remove() {
	if t.parent != nil {
		t.parent.removeChild(t)
	}
}

// Transform composes m after the text's matrix.
func (t *Text) Transform(m geometry.AffineTransform) {
	t.matrix = m.Compose(t.matrix)
	if t.applyMatrix {
		t.Bake()
	}
}

// Bake moves the anchor and scales the font by the matrix's area factor.
// Text stays upright.
func (t *Text) Bake() {
	if t.matrix.IsIdentity() {
		return
	}
	m := t.matrix
	t.anchor = m.Apply(t.anchor)
	t.FontSize *= math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
	t.matrix = geometry.Identity()
}

// Bounds approximates the text box in parent coordinates.
func (t *Text) Bounds() geometry.Rect {
	w := 0.6 * t.FontSize * float64(utf8.RuneCountInString(t.Content))
	local := geometry.NewRect(t.anchor.X, t.anchor.Y-t.FontSize, w, t.FontSize)
	c := local.Corners()
	return geometry.BoundingBox(geometry.TransformPoints(t.matrix, c[:]))
}
