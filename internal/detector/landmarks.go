// Package detector wraps hand landmark detection and converts its output into
// pixel-space landmark sets.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connection joins two landmark indices in the hand skeleton.
type Connection [2]int

// HandConnections is the MediaPipe hand skeleton.
var HandConnections = []Connection{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D is a landmark in normalized image coordinates: X and Y in [0, 1]
// relative to frame width and height, Z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Count      int                   `json:"count"`      // number of valid entries in Points
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Landmark is a keypoint in pixel coordinates.
type Landmark struct {
	ID int
	X  int
	Y  int
}

// LandmarkSet is the ordered landmarks of one hand in one frame, indexed by
// anatomical landmark id. It is empty when no hand was found.
type LandmarkSet []Landmark

// Has reports whether the set contains landmark id.
func (s LandmarkSet) Has(id int) bool {
	return id >= 0 && id < len(s)
}

// Hand is a detected hand with its landmarks converted to pixels.
type Hand struct {
	Handedness string
	Score      float64
	Landmarks  LandmarkSet
}

// ToPixels converts the normalized landmarks to a pixel LandmarkSet for a
// frame of the given size. Coordinates are truncated toward zero.
func (h *HandLandmarks) ToPixels(width, height int) LandmarkSet {
	if h == nil {
		return nil
	}

	n := h.Count
	if n < 0 {
		n = 0
	}
	if n > NumLandmarks {
		n = NumLandmarks
	}

	set := make(LandmarkSet, n)
	for i := 0; i < n; i++ {
		p := h.Points[i]
		set[i] = Landmark{
			ID: i,
			X:  int(p.X * float64(width)),
			Y:  int(p.Y * float64(height)),
		}
	}
	return set
}
