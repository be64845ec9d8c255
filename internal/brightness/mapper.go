// Package brightness maps fingertip distance to a brightness level and applies
// that level through a platform backend.
package brightness

import (
	"image"
	"math"
)

// Range is the linear mapping from fingertip distance (pixels) to brightness level.
type Range struct {
	DistanceMin float64
	DistanceMax float64
	LevelMin    int
	LevelMax    int
}

// DefaultRange maps [15, 220] pixels onto [0, 100] percent.
func DefaultRange() Range {
	return Range{DistanceMin: 15, DistanceMax: 220, LevelMin: 0, LevelMax: 100}
}

// Mapper converts a thumb/index fingertip pair into a brightness level.
type Mapper struct {
	r Range
}

// NewMapper creates a Mapper for r. DistanceMax must be greater than DistanceMin.
func NewMapper(r Range) *Mapper {
	return &Mapper{r: r}
}

// Range returns the mapping used by m.
func (m *Mapper) Range() Range {
	return m.r
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b image.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// Level linearly interpolates distance onto the level range, clamping at the
// edges, and truncates toward zero.
func (m *Mapper) Level(distance float64) int {
	r := m.r
	switch {
	case math.IsNaN(distance), distance <= r.DistanceMin:
		return r.LevelMin
	case distance >= r.DistanceMax:
		return r.LevelMax
	}

	span := float64(r.LevelMax - r.LevelMin)
	v := float64(r.LevelMin) + (distance-r.DistanceMin)*span/(r.DistanceMax-r.DistanceMin)
	return int(v)
}

// Map returns the brightness level for the given fingertips and the raw
// distance between them.
func (m *Mapper) Map(thumb, index image.Point) (level int, distance float64) {
	distance = Distance(thumb, index)
	return m.Level(distance), distance
}
