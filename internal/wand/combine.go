package wand

import (
	"log"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

// Verify accepts or rejects a boolean result.
type Verify func(result geometry.Region) bool

// Stats counts robust-combine activity.
type Stats struct {
	Ops       int // operations attempted
	Retries   int // perturbed re-attempts
	Fallbacks int // operations that exhausted the retry budget
}

// Combiner runs boolean operations through a kernel, verifying each result
// and retrying with a perturbed operand when verification fails.
type Combiner struct {
	Kernel  scene.Kernel
	Retries int
	Epsilon float64
	Stats   Stats
}

// NewCombiner creates a combiner over k.
func NewCombiner(k scene.Kernel, retries int, epsilon float64) *Combiner {
	return &Combiner{Kernel: k, Retries: retries, Epsilon: epsilon}
}

// RobustOp computes a op b. Attempt k (k > 0) translates b by k*Epsilon
// along both axes. When no attempt passes verify, a is returned unchanged
// with ok false.
func (c *Combiner) RobustOp(a geometry.Region, op scene.Op, b geometry.Region, verify Verify) (result geometry.Region, ok bool) {
	c.Stats.Ops++
	for attempt := 0; attempt <= c.Retries; attempt++ {
		operand := b
		if attempt > 0 {
			c.Stats.Retries++
			d := c.Epsilon * float64(attempt)
			operand = b.Translate(geometry.Pt(d, d))
		}
		res, err := c.Kernel.Combine(a, op, operand)
		if err != nil {
			log.Printf("Wand: %s attempt %d: %v", op, attempt+1, err)
			continue
		}
		if verify == nil || verify(res) {
			return res, true
		}
	}
	c.Stats.Fallbacks++
	log.Printf("Wand: %s failed verification after %d attempts, keeping original geometry", op, c.Retries+1)
	return a, false
}

// UnionCheck accepts a union whose area inside vp is at least that of
// either operand.
func UnionCheck(vp geometry.Rect, a, b geometry.Region, tol float64) Verify {
	want := max(a.ClippedArea(vp), b.ClippedArea(vp))
	return func(r geometry.Region) bool {
		return r.ClippedArea(vp) >= want-tol
	}
}

// SubtractCheck accepts a difference a - b whose area inside vp exceeds
// neither the area of a nor the naively expected area(a) - area(a ∩ b).
func SubtractCheck(k scene.Kernel, vp geometry.Rect, a, b geometry.Region, tol float64) Verify {
	orig := a.ClippedArea(vp)
	naive := orig
	if inter, err := k.Combine(a, scene.OpIntersect, b); err == nil {
		naive = orig - inter.ClippedArea(vp)
	}
	return func(r geometry.Region) bool {
		got := r.ClippedArea(vp)
		return got <= orig+tol && got <= naive+tol
	}
}
