package grading

import "fmt"

// Result is the outcome of grading one raw score against one scale.
type Result struct {
	Level      int     `json:"level,omitempty"`
	Label      string  `json:"label,omitempty"`
	Poor       bool    `json:"poor,omitempty"`
	Applicable bool    `json:"applicable"`
	Adjusted   float64 `json:"adjusted"`
}

func (r Result) String() string {
	if !r.Applicable {
		return "n/a"
	}
	return fmt.Sprintf("%d (%s)", r.Level, r.Label)
}

// ComputedTarget holds the minimum and target grades derived from one raw score.
type ComputedTarget struct {
	Raw     float64 `json:"raw"`
	Minimum Result  `json:"minimum"`
	Target  Result  `json:"target"`
}

// Compute grades raw against scale. With forTarget set, the adjusted score is
// stepped up one band before lookup on scales that define a target; scales
// without target semantics report the adjusted score with no level.
//
// ErrRejected is returned for scores that are not finite or not strictly positive.
func Compute(raw float64, scale ScaleDefinition, forTarget bool) (Result, error) {
	raw, err := checkScore(raw)
	if err != nil {
		return Result{}, err
	}

	adjusted := raw
	if scale.Calibrated() {
		adjusted = scale.Calibration.Apply(raw)
	}
	if forTarget && scale.Target {
		adjusted += scale.BandWidth()
	}
	res := Result{Adjusted: Round(adjusted)}

	if !scale.Banded() || (forTarget && !scale.Target) {
		return res, nil
	}
	b := scale.lookup(res.Adjusted)
	res.Level, res.Label, res.Poor, res.Applicable = b.Level, b.Label, b.Poor, true
	return res, nil
}

// ComputeTargets runs Compute for both the minimum and the target grade.
func ComputeTargets(raw float64, scale ScaleDefinition) (ComputedTarget, error) {
	minimum, err := Compute(raw, scale, false)
	if err != nil {
		return ComputedTarget{}, err
	}
	target, err := Compute(raw, scale, true)
	if err != nil {
		return ComputedTarget{}, err
	}
	return ComputedTarget{Raw: Round(raw), Minimum: minimum, Target: target}, nil
}
