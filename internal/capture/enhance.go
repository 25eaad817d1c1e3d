package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Lighting grades the average brightness of a frame.
type Lighting int

const (
	LightingPoor Lighting = iota
	LightingFair
	LightingGood
)

// Brightness thresholds on the 0-255 gray mean.
const (
	poorBelow = 50
	fairBelow = 100
)

func (l Lighting) String() string {
	switch l {
	case LightingPoor:
		return "Poor"
	case LightingFair:
		return "Fair"
	default:
		return "Good"
	}
}

// LightingFor grades a mean gray brightness.
func LightingFor(brightness float64) Lighting {
	switch {
	case brightness < poorBelow:
		return LightingPoor
	case brightness < fairBelow:
		return LightingFair
	default:
		return LightingGood
	}
}

// EnhanceConfig tunes the low-light correction applied before tracking.
type EnhanceConfig struct {
	Enabled   bool
	Alpha     float64 // contrast gain
	Beta      float64 // brightness offset
	ClipLimit float64 // CLAHE clip limit
	TileGrid  int     // CLAHE tiles per side
}

// DefaultEnhanceConfig returns the stock correction settings.
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{
		Enabled:   true,
		Alpha:     1.3,
		Beta:      20,
		ClipLimit: 2.0,
		TileGrid:  8,
	}
}

// Enhancer brightens frames and equalizes their lightness channel so the
// hand tracker copes with dim rooms. It also reports the lighting quality
// of the raw frame.
type Enhancer struct {
	config EnhanceConfig
	clahe  gocv.CLAHE
	mu     sync.Mutex
	last   float64
}

// NewEnhancer creates an Enhancer. Close releases its OpenCV state.
func NewEnhancer(config EnhanceConfig) *Enhancer {
	if config.TileGrid <= 0 {
		config.TileGrid = 8
	}
	return &Enhancer{
		config: config,
		clahe:  gocv.NewCLAHEWithParams(config.ClipLimit, image.Point{X: config.TileGrid, Y: config.TileGrid}),
	}
}

// Enhance returns a corrected copy of frame and the lighting grade of the
// input. The caller is responsible for closing the returned Mat. When the
// enhancer is disabled the copy is unmodified.
func (e *Enhancer) Enhance(frame *gocv.Mat) (*gocv.Mat, Lighting) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := gocv.NewMat()
	if frame == nil || frame.Empty() {
		return &out, LightingPoor
	}

	e.last = brightness(frame)
	lighting := LightingFor(e.last)

	if !e.config.Enabled || frame.Channels() != 3 {
		frame.CopyTo(&out)
		return &out, lighting
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.ConvertScaleAbs(*frame, &scaled, e.config.Alpha, e.config.Beta)

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(scaled, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	equalized := gocv.NewMat()
	e.clahe.Apply(channels[0], &equalized)
	channels[0].Close()
	channels[0] = equalized

	gocv.Merge(channels, &lab)
	gocv.CvtColor(lab, &out, gocv.ColorLabToBGR)

	return &out, lighting
}

// Brightness returns the gray mean of the last frame passed to Enhance.
func (e *Enhancer) Brightness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Close releases resources used by the enhancer.
func (e *Enhancer) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clahe.Close()
}

func brightness(frame *gocv.Mat) float64 {
	var code gocv.ColorConversionCode
	switch frame.Channels() {
	case 3:
		code = gocv.ColorBGRToGray
	case 4:
		code = gocv.ColorBGRAToGray
	default:
		return frame.Mean().Val1
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, code)

	return gray.Mean().Val1
}
