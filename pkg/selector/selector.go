// Package selector holds the user-adjustable crop rectangle and preview scale.
//
// Values are stored exactly as given. Clamping happens later, where the
// renderer consumes them, so free-form editing is never interrupted.
package selector

import (
	"math"
	"sync/atomic"

	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultScale is the preview scale before any user input
const DefaultScale = 1.0

// State is an immutable snapshot of the selector
type State struct {
	Crop  types.CropRect
	Scale float64
}

// Selector keeps the current State. Every update swaps in a new State, so a
// reader always sees a crop and scale that were current together.
type Selector struct {
	state atomic.Pointer[State]
}

// New creates a Selector covering the full image at scale 1
func New() *Selector {
	return NewWithState(State{Crop: types.FullCrop, Scale: DefaultScale})
}

// NewWithState creates a Selector with an initial state
func NewWithState(initial State) *Selector {
	s := &Selector{}
	s.state.Store(&initial)
	return s
}

// SetCrop replaces the crop rectangle. No bounds checks are made.
func (s *Selector) SetCrop(next types.CropRect) {
	s.update(func(st *State) { st.Crop = next })
}

// SetScale replaces the preview scale verbatim
func (s *Selector) SetScale(value float64) {
	s.update(func(st *State) { st.Scale = value })
}

// Crop returns the current crop rectangle
func (s *Selector) Crop() types.CropRect {
	return s.state.Load().Crop
}

// Scale returns the current preview scale
func (s *Selector) Scale() float64 {
	return s.state.Load().Scale
}

// Snapshot returns crop and scale read together
func (s *Selector) Snapshot() State {
	return *s.state.Load()
}

func (s *Selector) update(apply func(*State)) {
	for {
		old := s.state.Load()
		next := *old
		apply(&next)
		if s.state.CompareAndSwap(old, &next) {
			return
		}
	}
}

// ScaleRange describes the values the scale control can emit
type ScaleRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// DefaultScaleRange matches the scale slider: 0.1 to 2.0 in steps of 0.1
var DefaultScaleRange = ScaleRange{Min: 0.1, Max: 2.0, Step: 0.1}

// Contains reports whether v lies within [Min, Max]
func (r ScaleRange) Contains(v float64) bool {
	return v >= r.Min-types.Epsilon && v <= r.Max+types.Epsilon
}

// Clamp limits v to [Min, Max]
func (r ScaleRange) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Min(math.Max(v, r.Min), r.Max)
}

// Snap clamps v and rounds it to the nearest step, as the slider would
func (r ScaleRange) Snap(v float64) float64 {
	v = r.Clamp(v)
	if r.Step <= 0 {
		return v
	}
	steps := math.Round((v - r.Min) / r.Step)
	snapped := r.Min + steps*r.Step
	// drop the float noise that accumulates from repeated steps
	snapped = math.Round(snapped*1e6) / 1e6
	return math.Min(snapped, r.Max)
}
