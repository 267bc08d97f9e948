package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Presence detection constants.
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultPresenceWindow is how long after the last detected movement a
	// player is still considered present. Dancers holding a pose are, by
	// design, nearly motionless.
	DefaultPresenceWindow = 5 * time.Second
)

// PresenceDetector decides whether a player is in front of the camera by
// frame differencing: any recent inter-frame movement above the threshold
// keeps the player "present" for the configured window. The pipeline skips
// pose inference on frames without a present player.
type PresenceDetector struct {
	threshold   float64
	window      time.Duration
	prevGray    gocv.Mat
	initialized bool
	lastMotion  time.Time
	mu          sync.Mutex
}

// NewPresenceDetector creates a PresenceDetector. The threshold is the
// percentage of pixels that must change between frames to count as movement
// (1.0 means 1%).
func NewPresenceDetector(threshold float64) *PresenceDetector {
	return &PresenceDetector{
		threshold: threshold,
		window:    DefaultPresenceWindow,
		prevGray:  gocv.NewMat(),
	}
}

// SetWindow overrides the presence window.
func (p *PresenceDetector) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = window
}

// Observe analyzes a frame at the given instant and reports whether a player
// is considered present, along with the percentage of pixels that changed
// since the previous frame.
//
// The first frame establishes the baseline and reports present, so a session
// never starts blind.
func (p *PresenceDetector) Observe(frame *gocv.Mat, now time.Time) (bool, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frame == nil || frame.Empty() {
		return p.presentLocked(now), 0
	}

	// Convert to grayscale
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	// Blur to reduce sensor noise
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !p.initialized {
		blurred.CopyTo(&p.prevGray)
		p.initialized = true
		p.lastMotion = now
		return true, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, p.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&p.prevGray)

	if changePercent > p.threshold {
		p.lastMotion = now
	}

	return p.presentLocked(now), changePercent
}

func (p *PresenceDetector) presentLocked(now time.Time) bool {
	if p.lastMotion.IsZero() {
		return false
	}
	return now.Sub(p.lastMotion) <= p.window
}

// Reset clears the detector state and baseline frame.
func (p *PresenceDetector) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.prevGray.Empty() {
		p.prevGray.Close()
		p.prevGray = gocv.NewMat()
	}
	p.initialized = false
	p.lastMotion = time.Time{}
}

// Close releases resources used by the detector.
func (p *PresenceDetector) Close() {
	p.Reset()
}

// SetThreshold sets the movement threshold.
// Values less than or equal to 0 are ignored.
func (p *PresenceDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.threshold = threshold
}
