package gradebook

import "github.com/mind-engage/gradetracker/internal/grading"

// Preview is a dry run of the calculator for one course type and score.
type Preview struct {
	CourseType string                  `json:"course_type"`
	Scale      grading.ScaleDefinition `json:"scale"`
	Computed   grading.ComputedTarget  `json:"computed"`
	Values     map[string]*float64     `json:"values"`
}

// NewPreview resolves courseType and grades score without touching any store.
// Unusable scores return grading.ErrRejected.
func NewPreview(scales *grading.Table, courseType, score string) (Preview, error) {
	p := Preview{CourseType: courseType, Scale: scales.Resolve(courseType)}
	raw, err := grading.ParseScore(score)
	if err != nil {
		return p, err
	}
	p.Computed, err = grading.ComputeTargets(raw, p.Scale)
	if err != nil {
		return p, err
	}
	p.Values = make(map[string]*float64, len(Columns))
	for _, k := range Columns {
		p.Values[k.Name()] = ValueFor(k, p.Computed)
	}
	return p, nil
}
