// Package wand implements the magic wand: region growing on the viewer
// snapshot, accumulated into a selection mask and reconciled into the
// target feature's polygon geometry with verified boolean operations.
package wand

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/mask"
	"slide-annotator/internal/scene"
	"slide-annotator/internal/tool"
	"slide-annotator/internal/viewer"
	"slide-annotator/pkg/colorutil"
	"slide-annotator/pkg/geometry"
)

// ErrNoTarget is returned when the selection holds no editable feature.
var ErrNoTarget = errors.New("wand: no single placeholder or polygon selected")

// Flags are the per-gesture mode flags.
type Flags struct {
	Contiguous bool
	Expand     bool
	Replace    bool
}

// Tool is the magic wand.
type Tool struct {
	tool.Base

	host     viewer.Host
	doc      *annotation.Document
	combiner *Combiner
	opts     Options

	target    *annotation.Feature
	buffer    *mask.Buffer
	baseline  *mask.Mask
	current   *mask.Mask
	seed      image.Point
	flags     Flags
	threshold int
	start     int     // threshold at pointer-down
	travel    float64 // diagonal drag distance in screen pixels
	inGesture bool
	active    bool
	preview   *scene.Raster
	err       error // from the last input event
}

// New creates a wand tool editing features of doc on host.
func New(host viewer.Host, doc *annotation.Document, k scene.Kernel, opts Options) *Tool {
	t := &Tool{
		host:     host,
		doc:      doc,
		combiner: NewCombiner(k, opts.Retries, opts.Epsilon),
		opts:     opts,
	}
	host.On(viewer.EventViewportChange, func(viewer.Event) { t.viewportChanged() })
	return t
}

func (t *Tool) Name() string { return "wand" }

// Enabled allows the wand on a fresh feature or on polygon geometry.
func (t *Tool) Enabled(mode string) bool {
	switch mode {
	case tool.ModeNew, "Polygon", "MultiPolygon":
		return true
	}
	return false
}

// Stats returns the robust-combine counters.
func (t *Tool) Stats() Stats { return t.combiner.Stats }

// Threshold returns the current gesture threshold.
func (t *Tool) Threshold() int { return t.threshold }

// Mask returns the accumulated selection of the gesture in progress.
func (t *Tool) Mask() *mask.Mask { return t.current }

// Target returns the feature being edited, if any.
func (t *Tool) Target() *annotation.Feature { return t.target }

// Pending reports whether an un-applied selection exists.
func (t *Tool) Pending() bool { return t.current != nil }

// Err returns the error of the last pointer or key event, or nil.
func (t *Tool) Err() error { return t.err }

func (t *Tool) record(err error) {
	t.err = err
	if err != nil {
		log.Printf("Wand: %v", err)
	}
}

func (t *Tool) flagsFor(mods tool.Modifiers) Flags {
	f := Flags{Contiguous: t.opts.Contiguous, Expand: t.opts.Expand, Replace: t.opts.Replace}
	if mods.Has(tool.ModShift) {
		f.Contiguous = !f.Contiguous
	}
	if mods.Has(tool.ModAlt) {
		f.Expand = !f.Expand
	}
	if mods.Has(tool.ModCtrl) {
		f.Replace = !f.Replace
	}
	return f
}

func (t *Tool) PointerDown(ev tool.PointerEvent) {
	t.record(t.Begin(ev.Point, t.flagsFor(ev.Modifiers)))
}

// PointerDrag maps diagonal travel to a threshold change and re-grows the
// selection from the gesture's seed and baseline.
func (t *Tool) PointerDrag(ev tool.PointerEvent) {
	if !t.inGesture {
		return
	}
	t.travel += (ev.Delta.X + ev.Delta.Y) / math.Sqrt2
	next := t.opts.clamp(t.start + int(math.Round(t.travel*t.opts.Gain)))
	if next == t.threshold {
		return
	}
	t.record(t.Retune(next))
}

func (t *Tool) PointerUp(tool.PointerEvent) {
	if !t.inGesture {
		return
	}
	t.record(t.Apply())
}

func (t *Tool) KeyDown(ev tool.KeyEvent) {
	switch ev.Key {
	case tool.KeyEscape:
		t.Cancel()
	case tool.KeyEnter:
		t.record(t.Apply())
	}
}

func (t *Tool) OnActivate() { t.active = true }

// OnDeactivate commits and clears the gesture when finishing; a suspend
// keeps everything for resumption.
func (t *Tool) OnDeactivate(finish bool) {
	t.active = false
	if !finish {
		return
	}
	if t.current != nil {
		if err := t.Apply(); err != nil {
			log.Printf("Wand: %v", err)
		}
	}
	t.reset()
	t.target = nil
}

// viewportChanged commits a pending selection of the active wand. A
// suspended wand keeps its gesture: the buffer carries its own frame, so
// the selection stays valid and is applied on resume.
func (t *Tool) viewportChanged() {
	if t.current != nil {
		if !t.active {
			return
		}
		if err := t.Apply(); err != nil {
			log.Printf("Wand: %v", err)
		}
	}
	// The next gesture re-samples against the new view.
	t.baseline = nil
	t.buffer = nil
}

// resolveTarget picks the single selected feature, which must be a
// placeholder or carry polygon geometry.
func (t *Tool) resolveTarget() (*annotation.Feature, error) {
	sel := t.doc.SelectedFeatures()
	if len(sel) != 1 {
		return nil, ErrNoTarget
	}
	f := sel[0]
	if f.IsPlaceholder() {
		return f, nil
	}
	if _, ok := f.Item().(annotation.RegionEditor); !ok {
		return nil, fmt.Errorf("%w: selected %s", ErrNoTarget, annotation.ModeTag(f.Item()))
	}
	return f, nil
}

// Begin starts a gesture at an image point.
func (t *Tool) Begin(p geometry.Point2D, flags Flags) error {
	if t.current != nil {
		if err := t.Apply(); err != nil {
			return err
		}
	}
	f, err := t.resolveTarget()
	if err != nil {
		return err
	}
	buf, err := t.host.Snapshot(t.host.Viewport())
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	x, y := buf.Frame.ToPixel(p)
	seed := image.Pt(int(math.Floor(x)), int(math.Floor(y)))
	if !seed.In(image.Rect(0, 0, buf.Width, buf.Height)) {
		return fmt.Errorf("%w: %v", mask.ErrSeedOutOfBounds, p)
	}
	// A placeholder becomes a polygon only once the gesture can start.
	if f.IsPlaceholder() {
		if err := f.Initialize("Polygon", ""); err != nil {
			return fmt.Errorf("create polygon: %w", err)
		}
	}

	if flags.Replace {
		t.baseline = mask.New(buf.Width, buf.Height, buf.Frame)
	} else {
		t.baseline = t.sample(f, buf)
	}
	t.target = f
	t.buffer = buf
	t.seed = seed
	t.flags = flags
	t.threshold = t.opts.clamp(t.opts.Threshold)
	t.start = t.threshold
	t.travel = 0
	t.inGesture = true
	return t.step()
}

// Retune re-grows the selection at a new threshold.
func (t *Tool) Retune(threshold int) error {
	if t.buffer == nil || t.baseline == nil {
		return nil
	}
	t.threshold = t.opts.clamp(threshold)
	return t.step()
}

// step grows a single-step mask at the seed and combines it with the
// baseline.
func (t *Tool) step() error {
	var single *mask.Mask
	var err error
	if t.flags.Contiguous {
		single, err = mask.FloodFill(t.buffer, t.seed, t.threshold)
	} else {
		single, err = mask.GlobalThreshold(t.buffer, t.seed, t.threshold)
	}
	if err != nil {
		return fmt.Errorf("region growing: %w", err)
	}
	if t.flags.Expand {
		t.current, err = mask.Union(t.baseline, single)
	} else {
		t.current, err = mask.Subtract(t.baseline, single)
	}
	if err != nil {
		return fmt.Errorf("combine masks: %w", err)
	}
	t.showPreview()
	return nil
}

func (t *Tool) sample(f *annotation.Feature, buf *mask.Buffer) *mask.Mask {
	g := f.Item().(annotation.RegionEditor).Region()
	return mask.Rasterize(g, buf.Width, buf.Height, buf.Frame, t.opts.CoverageFloor)
}

func (t *Tool) showPreview() {
	img := t.current.Image(colorutil.Magenta)
	if t.preview == nil {
		t.preview = scene.NewRaster(img)
		t.doc.Root().AddChild(t.preview)
	} else {
		t.preview.Image = img
	}
	f := t.buffer.Frame
	s := f.Scale
	if s <= 0 {
		s = 1
	}
	t.preview.SetMatrix(geometry.Translation(f.Origin.X, f.Origin.Y).Compose(geometry.Scale(1/s, 1/s)))
}

// Preview returns the temporary mask node, or nil.
func (t *Tool) Preview() *scene.Raster { return t.preview }

// Cancel drops the gesture without touching the target.
func (t *Tool) Cancel() {
	t.reset()
}

func (t *Tool) reset() {
	if t.preview != nil {
		t.preview.Remove()
		t.preview = nil
	}
	t.current = nil
	t.inGesture = false
	t.travel = 0
}

// Apply reconciles the accumulated mask into the target geometry. If any
// boolean step cannot be verified the target is left untouched.
func (t *Tool) Apply() error {
	if t.current == nil || t.target == nil {
		t.reset()
		return nil
	}
	defer t.reset()

	editor, ok := t.target.Item().(annotation.RegionEditor)
	if !ok {
		return fmt.Errorf("%w: target is %s", ErrNoTarget, annotation.ModeTag(t.target.Item()))
	}
	final, ok, err := Reconcile(t.combiner, editor.Region(), t.current, t.trace())
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("Wand: edit of feature %s dropped", t.target.ID)
		return nil
	}

	t.commit(editor, final)
	t.baseline = t.sample(t.target, t.buffer)
	return nil
}

func (t *Tool) trace() mask.TraceOptions {
	return mask.TraceOptions{MinArea: t.opts.MinContourArea, Simplify: t.opts.Simplify}
}

// commit writes the final rings, promoting a polygon that grew several
// components to a multi-polygon.
func (t *Tool) commit(editor annotation.RegionEditor, final geometry.Region) {
	if editor.Type() == "Polygon" && len(final.Outers()) > 1 {
		t.target.ReplaceItem(annotation.NewMultiPolygon(final))
		return
	}
	editor.SetRegion(final)
}

// Reconcile merges a selection mask into existing rings:
//
//	erase   = viewport - vectorize(dilate(m))
//	reduced = target - erase
//	final   = reduced ∪ vectorize(m)
//
// ok is false when a boolean step fails verification; target is then the
// value to keep.
func Reconcile(c *Combiner, target geometry.Region, m *mask.Mask, opts mask.TraceOptions) (final geometry.Region, ok bool, err error) {
	toUnite, err := mask.Vectorize(m, opts)
	if err != nil {
		return target, false, fmt.Errorf("trace selection: %w", err)
	}
	grown, err := mask.Dilate(m, 1)
	if err != nil {
		return target, false, fmt.Errorf("dilate selection: %w", err)
	}
	dilated, err := mask.Vectorize(grown, opts)
	if err != nil {
		return target, false, fmt.Errorf("trace dilated selection: %w", err)
	}

	vp := viewportRect(m)
	vpRegion := geometry.Region{vp.Ring()}
	tol := tolerance(m, vp)

	erase, ok := c.RobustOp(vpRegion, scene.OpSubtract, dilated, SubtractCheck(c.Kernel, vp, vpRegion, dilated, tol))
	if !ok {
		return target, false, nil
	}
	reduced, ok := c.RobustOp(target, scene.OpSubtract, erase, SubtractCheck(c.Kernel, vp, target, erase, tol))
	if !ok {
		return target, false, nil
	}
	final, ok = c.RobustOp(reduced, scene.OpUnion, toUnite, UnionCheck(vp, reduced, toUnite, tol))
	if !ok {
		return target, false, nil
	}
	return final.Dedupe(1e-9), true, nil
}

// viewportRect is the mask's footprint in item-local coordinates.
func viewportRect(m *mask.Mask) geometry.Rect {
	s := m.Frame.Scale
	if s <= 0 {
		s = 1
	}
	return geometry.NewRect(m.Frame.Origin.X, m.Frame.Origin.Y, float64(m.Width)/s, float64(m.Height)/s)
}

// tolerance is one buffer pixel of area plus a small fraction of the
// viewport, in item-local units.
func tolerance(m *mask.Mask, vp geometry.Rect) float64 {
	s := m.Frame.Scale
	if s <= 0 {
		s = 1
	}
	return 1/(s*s) + 1e-6*vp.Width*vp.Height
}
