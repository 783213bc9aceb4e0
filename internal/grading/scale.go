package grading

import "math"

// Kind enumerates the scale families the tracker knows how to grade against.
type Kind string

const (
	KindBTEC     Kind = "btec"
	KindALevel   Kind = "a_level"
	KindPassFail Kind = "pass_fail"
	KindNone     Kind = "none"
)

// NoScaleName is the name reported for the fallback scale.
const NoScaleName = "noscale"

// Calibration is the linear adjustment applied to a raw value-added score.
type Calibration struct {
	Slope     float64 `yaml:"slope" json:"slope" validate:"gt=0"`
	Intercept float64 `yaml:"intercept" json:"intercept"`
}

// Apply returns slope*raw - intercept.
func (c Calibration) Apply(raw float64) float64 {
	return c.Slope*raw - c.Intercept
}

// Band is one grade boundary. Threshold is an inclusive lower bound.
type Band struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Level     int     `yaml:"level" json:"level" validate:"gte=0"`
	Label     string  `yaml:"label" json:"label" validate:"required"`
	Poor      bool    `yaml:"poor,omitempty" json:"poor,omitempty"`
}

// ScaleDefinition is a resolved scale: family, calibration and band table.
// Values handed out by a Table share their band slice and must be treated as read-only.
type ScaleDefinition struct {
	Kind        Kind         `json:"kind"`
	Name        string       `json:"name"`
	Subject     string       `json:"subject,omitempty"`
	Calibration *Calibration `json:"calibration,omitempty"`
	Floor       Band         `json:"floor"`
	Bands       []Band       `json:"bands,omitempty"`
	Target      bool         `json:"target"`
}

// NoScale is the fail-open definition: every computation yields "not applicable".
func NoScale() ScaleDefinition {
	return ScaleDefinition{Kind: KindNone, Name: NoScaleName}
}

// Calibrated reports whether raw scores are adjusted before lookup.
func (s ScaleDefinition) Calibrated() bool { return s.Calibration != nil }

// Banded reports whether the scale maps scores onto levels at all.
func (s ScaleDefinition) Banded() bool { return len(s.Bands) > 0 }

// BandWidth is the spacing between consecutive thresholds when every band is
// evenly spaced, and 0 otherwise.
func (s ScaleDefinition) BandWidth() float64 {
	return bandWidth(s.Bands)
}

// lookup returns the highest band whose threshold does not exceed adjusted,
// or the floor band when adjusted sits below the first threshold.
func (s ScaleDefinition) lookup(adjusted float64) Band {
	out := s.Floor
	for _, b := range s.Bands {
		if adjusted < b.Threshold {
			break
		}
		out = b
	}
	return out
}

func bandWidth(bands []Band) float64 {
	if len(bands) < 2 {
		return 0
	}
	w := bands[1].Threshold - bands[0].Threshold
	if w <= 0 {
		return 0
	}
	for i := 2; i < len(bands); i++ {
		if math.Abs((bands[i].Threshold-bands[i-1].Threshold)-w) > 1e-9 {
			return 0
		}
	}
	return w
}
