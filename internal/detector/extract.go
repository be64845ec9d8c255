package detector

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when Extract is given no image data.
var ErrEmptyFrame = errors.New("frame is empty")

// HandPreference selects which detected hand drives the controller when
// several are in view.
type HandPreference string

// Hand preferences.
const (
	PreferFirst HandPreference = "first"
	PreferLeft  HandPreference = "left"
	PreferRight HandPreference = "right"
)

// Skeleton overlay style.
var (
	JointColor      = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	ConnectionColor = color.RGBA{R: 224, G: 224, B: 224, A: 0}
)

const (
	jointRadius         = 3
	connectionThickness = 2
)

// Extractor turns detector output into pixel landmark sets and annotates the
// frame with the detected skeletons.
type Extractor struct {
	detector Detector
	annotate bool
}

// NewExtractor creates an Extractor backed by d.
func NewExtractor(d Detector) *Extractor {
	return &Extractor{detector: d, annotate: true}
}

// SetAnnotate toggles drawing skeletons onto processed frames.
func (e *Extractor) SetAnnotate(on bool) {
	e.annotate = on
}

// Extract runs hand detection on frame and returns every detected hand in
// pixel coordinates. No hand in view yields an empty slice and a nil error.
func (e *Extractor) Extract(frame *gocv.Mat) ([]Hand, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	detected, err := e.detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	width, height := frame.Cols(), frame.Rows()
	hands := make([]Hand, 0, len(detected))
	for i := range detected {
		set := detected[i].ToPixels(width, height)
		if len(set) == 0 {
			continue
		}
		hands = append(hands, Hand{
			Handedness: detected[i].Handedness,
			Score:      detected[i].Score,
			Landmarks:  set,
		})
		if e.annotate {
			DrawSkeleton(frame, set)
		}
	}

	return hands, nil
}

// SelectHand picks the hand that drives the controller. PreferFirst returns the
// first hand reported by the detector; PreferLeft and PreferRight return the
// first hand with that handedness. ok is false when no hand qualifies.
func SelectHand(hands []Hand, pref HandPreference) (hand Hand, ok bool) {
	if len(hands) == 0 {
		return Hand{}, false
	}

	switch pref {
	case PreferLeft, PreferRight:
		for _, h := range hands {
			if strings.EqualFold(h.Handedness, string(pref)) {
				return h, true
			}
		}
		return Hand{}, false
	default:
		return hands[0], true
	}
}

// DrawSkeleton draws the hand connections and joints present in set.
func DrawSkeleton(frame *gocv.Mat, set LandmarkSet) {
	for _, c := range HandConnections {
		if !set.Has(c[0]) || !set.Has(c[1]) {
			continue
		}
		a, b := set[c[0]], set[c[1]]
		gocv.Line(frame, image.Pt(a.X, a.Y), image.Pt(b.X, b.Y), ConnectionColor, connectionThickness)
	}
	for _, lm := range set {
		gocv.Circle(frame, image.Pt(lm.X, lm.Y), jointRadius, JointColor, -1)
	}
}
