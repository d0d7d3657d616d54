package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/photo-editor/pkg/selector"
	"github.com/menta2k/photo-editor/pkg/types"
)

// parseDisplay parses "WxH". An empty value means the native size.
func parseDisplay(s string) (types.Dimensions, error) {
	if s == "" {
		return types.Dimensions{}, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return types.Dimensions{}, fmt.Errorf("display %q: want WxH", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("display width: %w", err)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("display height: %w", err)
	}
	d := types.Dimensions{Width: width, Height: height}
	if !d.Valid() {
		return types.Dimensions{}, fmt.Errorf("display %q must be positive", s)
	}
	return d, nil
}

// parseCrop parses "x,y,w,h" in percent, or pixels with a "px" suffix
func parseCrop(s string) (types.CropRect, error) {
	if s == "" {
		return types.FullCrop, nil
	}
	unit := types.UnitPercent
	if trimmed, ok := strings.CutSuffix(s, "px"); ok {
		s, unit = trimmed, types.UnitPixel
	}
	s = strings.TrimSuffix(s, "%")

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.CropRect{}, fmt.Errorf("crop %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.CropRect{}, fmt.Errorf("crop value %q: %w", p, err)
		}
		v[i] = f
	}
	c := types.CropRect{Unit: unit, X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if !c.Finite() {
		return types.CropRect{}, fmt.Errorf("crop %q is not finite", s)
	}
	return c, nil
}

// parseScale snaps the value onto the slider steps
func parseScale(v float64, r selector.ScaleRange) (float64, error) {
	if !r.Contains(v) {
		return 0, fmt.Errorf("scale %g outside %g..%g", v, r.Min, r.Max)
	}
	return r.Snap(v), nil
}
