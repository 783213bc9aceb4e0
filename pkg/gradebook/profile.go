package gradebook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mind-engage/gradetracker/internal/grading"
)

// CourseProfile is everything the run needs to know about one course. It is
// built when the course is reached and dropped once its students are done.
type CourseProfile struct {
	Course     Course
	CourseType string
	Scale      grading.ScaleDefinition
	GradeType  GradeType
	ScaleID    int64
}

// ProfileCourse works out the course type and scale. An idnumber token the
// scale table recognises wins and binds the gradebook scale of the same name;
// otherwise the course's own grading decides, and a course with no usable
// grading falls back to the unscaled definition.
func (s *Syncer) ProfileCourse(ctx context.Context, c Course) CourseProfile {
	log := s.Log.With("course_id", c.ID, "stage", StageProfile)
	p := CourseProfile{Course: c, Scale: grading.NoScale()}

	tags := c.Tags()
	for _, tag := range tags {
		if !s.Scales.Recognizes(tag) {
			continue
		}
		p.CourseType = tag
		p.Scale = s.Scales.Resolve(tag)
		log.Info("course type recognised", "course_type", tag, "scale", p.Scale.Name)

		sc, err := s.Courses.FindScale(ctx, p.Scale.Name)
		switch {
		case err == nil:
			p.GradeType, p.ScaleID = GradeTypeScale, sc.ID
			log.Info("scale found", "scale", sc.Name, "scale_id", sc.ID)
		case errors.Is(err, ErrNotFound):
			p.GradeType = GradeTypeValue
			log.Warn("no gradebook scale with this name, columns will hold plain values", "scale", p.Scale.Name)
		default:
			p.GradeType = GradeTypeValue
			log.Error("scale lookup failed", "scale", p.Scale.Name, "err", err)
		}
		return p
	}
	if len(tags) > 0 {
		p.CourseType = tags[len(tags)-1]
	}

	g, err := s.Courses.CourseGrading(ctx, c.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("course grading lookup failed", "err", err)
		} else {
			log.Info("no course grade type found, using defaults")
		}
		return p
	}
	p.GradeType, p.ScaleID = g.Type, g.ScaleID
	switch g.Type {
	case GradeTypeScale:
		if g.ScaleName == "" {
			log.Warn("grade type is scale but no matching scale found", "scale_id", g.ScaleID)
			break
		}
		p.Scale = s.Scales.Resolve(g.ScaleName)
		if p.Scale.Kind == grading.KindNone {
			p.Scale.Name = g.ScaleName
		}
		log.Info("using course scale", "scale", g.ScaleName, "scale_id", g.ScaleID, "kind", p.Scale.Kind)
	case GradeTypeValue:
		p.Scale = s.Scales.Resolve(grading.NoScaleName)
		log.Info("using value grade type")
	default:
		log.Info("unsupported grade type, using defaults", "grade_type", g.Type)
	}
	return p
}

func logScale(log *slog.Logger, p CourseProfile) {
	attrs := []any{"course_type", p.CourseType, "scale", p.Scale.Name, "kind", p.Scale.Kind,
		"grade_type", p.GradeType, "scale_id", p.ScaleID}
	if p.Scale.Calibration != nil {
		attrs = append(attrs, "slope", p.Scale.Calibration.Slope, "intercept", p.Scale.Calibration.Intercept)
	}
	log.Debug("course profile", attrs...)
}
