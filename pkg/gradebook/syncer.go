// pkg/gradebook/syncer.go
package gradebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/gradetracker/internal/grading"
)

const (
	DefaultCategory = "Targets"
	DefaultPattern  = "leapcore_%"
)

type Syncer struct {
	Courses CourseSource
	Scores  ScoreSource
	Store   GradeStore
	Scales  *grading.Table
	Audit   AuditLog
	Log     *slog.Logger
	Now     Clock

	Category string
	Pattern  string
}

type Option func(*Syncer)

func WithClock(now Clock) Option { return func(s *Syncer) { s.Now = now } }
func WithLogger(l *slog.Logger) Option { return func(s *Syncer) { s.Log = l } }
func WithAudit(a AuditLog) Option { return func(s *Syncer) { s.Audit = a } }
func WithCategory(name string) Option { return func(s *Syncer) { s.Category = name } }
func WithPattern(idnumberLike string) Option { return func(s *Syncer) { s.Pattern = idnumberLike } }

func New(courses CourseSource, scores ScoreSource, store GradeStore, scales *grading.Table, opts ...Option) *Syncer {
	s := &Syncer{
		Courses:  courses,
		Scores:   scores,
		Store:    store,
		Scales:   scales,
		Category: DefaultCategory,
		Pattern:  DefaultPattern,
	}
	for _, o := range opts {
		o(s)
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Log == nil {
		s.Log = slog.Default()
	}
	return s
}

// Run syncs every matching course, or only courseID when it is non-zero.
// The summary is returned even when a fatal error stops the run early.
func (s *Syncer) Run(ctx context.Context, courseID int64) (*Summary, error) {
	sum := NewSummary(uuid.NewString(), s.Now())
	log := s.Log.With("run_id", sum.RunID)

	courses, err := s.Courses.ListCourses(ctx, CourseFilter{Pattern: s.Pattern, CourseID: courseID})
	if err != nil {
		sum.finish(s.Now())
		return sum, &FatalError{Stage: "list courses", Err: err}
	}
	if len(courses) == 0 {
		if courseID != 0 {
			log.Warn("no matching course", "course_id", courseID, "pattern", s.Pattern)
		} else {
			log.Warn("no courses tagged for tracking", "pattern", s.Pattern)
		}
		sum.finish(s.Now())
		return sum, nil
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	log.Info("courses found", "count", len(courses))

	for i, c := range courses {
		log.Info("processing course", "course_id", c.ID, "shortname", c.Shortname, "position", fmt.Sprintf("%d/%d", i+1, len(courses)))
		if err := s.syncCourse(ctx, log, c, sum); err != nil {
			sum.finish(s.Now())
			return sum, err
		}
	}
	sum.finish(s.Now())
	log.Info("run complete", "courses", len(sum.Courses), "students", len(sum.Students), "duration", sum.Duration())
	return sum, nil
}

func (s *Syncer) syncCourse(ctx context.Context, log *slog.Logger, c Course, sum *Summary) error {
	log = log.With("course_id", c.ID)
	sum.addCourse(c)

	p := s.ProfileCourse(ctx, c)
	logScale(log, p)
	sum.addGradeType(p.Scale.Name)

	cols, err := s.EnsureColumns(ctx, p)
	if err != nil {
		return err
	}

	enrolments, err := s.Courses.ListEnrolments(ctx, c.ID, s.Now())
	if err != nil {
		log.Error("could not list enrolments, skipping course", "stage", StageEnrolment, "err", err)
		return nil
	}
	if len(enrolments) == 0 {
		log.Warn("no students enrolled", "stage", StageEnrolment)
		return nil
	}
	sort.Slice(enrolments, func(i, j int) bool { return enrolments[i].UserID < enrolments[j].UserID })
	log.Info("students found", "count", len(enrolments))

	for _, e := range enrolments {
		if err := s.SyncStudent(ctx, p, cols, e, sum); err != nil {
			var se *StudentError
			stage := StageWrite
			if errors.As(err, &se) {
				stage = se.Stage
			}
			lvl := slog.LevelWarn
			if errors.Is(err, grading.ErrRejected) {
				lvl = slog.LevelInfo
			}
			log.Log(ctx, lvl, "student skipped", "student_id", e.StudentID(), "stage", stage, "err", err)
		}
	}
	return nil
}

// EnsureColumns finds or creates the tracker category and its columns. Any
// failure here is fatal.
func (s *Syncer) EnsureColumns(ctx context.Context, p CourseProfile) (map[ColumnKind]Column, error) {
	log := s.Log.With("course_id", p.Course.ID, "stage", StageColumns)

	cat, err := s.Store.FindCategory(ctx, p.Course.ID, s.Category)
	switch {
	case err == nil:
		log.Info("category already exists", "category", s.Category, "outcome", OutcomeSkipped)
	case errors.Is(err, ErrNotFound):
		cat, err = s.Store.CreateCategory(ctx, Category{CourseID: p.Course.ID, Name: s.Category, SortOrder: 1})
		if err != nil {
			return nil, &FatalError{Stage: "create category", Err: err}
		}
		log.Info("category created", "category", s.Category, "category_id", cat.ID)
	default:
		return nil, &FatalError{Stage: "find category", Err: err}
	}

	out := make(map[ColumnKind]Column, len(Columns))
	for _, kind := range Columns {
		col, err := s.Store.FindColumn(ctx, p.Course.ID, kind.Name())
		switch {
		case err == nil:
			log.Info("column already exists", "column", kind.Name(), "outcome", OutcomeSkipped)
		case errors.Is(err, ErrNotFound):
			col, err = s.Store.CreateColumn(ctx, kind.Template(p, cat.ID))
			if err != nil {
				return nil, &FatalError{Stage: "create column " + kind.Name(), Err: err}
			}
			log.Info("column created", "column", kind.Name(), "column_id", col.ID, "grade_type", col.GradeType)
		default:
			return nil, &FatalError{Stage: "find column " + kind.Name(), Err: err}
		}
		out[kind] = col
	}
	return out, nil
}

// SyncStudent fetches, grades and writes one student's cells. Returned errors
// are per-student and never stop the run; individual cell failures are logged
// and counted without being returned.
func (s *Syncer) SyncStudent(ctx context.Context, p CourseProfile, cols map[ColumnKind]Column, e Enrolment, sum *Summary) error {
	sid := e.StudentID()
	log := s.Log.With("course_id", p.Course.ID, "student_id", sid)
	sum.addStudent(p.Course.ID, e)

	raw, err := s.Scores.FetchScore(ctx, sid)
	if err != nil {
		return &StudentError{Stage: StageFetch, Err: err}
	}
	score, err := grading.ParseScore(raw)
	if err != nil {
		return &StudentError{Stage: StageScore, Err: err}
	}
	computed, err := grading.ComputeTargets(score, p.Scale)
	if err != nil {
		return &StudentError{Stage: StageCompute, Err: err}
	}
	log.Info("targets computed", "stage", StageCompute,
		"l3va", grading.FormatScore(computed.Raw),
		"mag", computed.Minimum.String(), "mag_adjusted", grading.FormatScore(computed.Minimum.Adjusted),
		"tag", computed.Target.String(), "tag_adjusted", grading.FormatScore(computed.Target.Adjusted))

	for _, pair := range []struct {
		col string
		r   grading.Result
	}{{ColumnMinimum.Name(), computed.Minimum}, {ColumnTarget.Name(), computed.Target}} {
		if pair.r.Applicable && pair.r.Poor {
			sum.addPoor(PoorGrade{
				CourseID: p.Course.ID, Course: p.Course.Fullname,
				StudentID: sid, Student: e.DisplayName(),
				Column: pair.col, Label: pair.r.Label,
			})
		}
	}

	for _, kind := range Columns {
		col, ok := cols[kind]
		if !ok {
			continue
		}
		o, val, err := s.writeCell(ctx, kind, col, e.UserID, computed)
		sum.count(o)
		attrs := []any{"stage", StageWrite, "column", kind.Name(), "outcome", o}
		switch o {
		case OutcomeFailed:
			log.Warn("grade not written", append(attrs, "err", err)...)
		case OutcomeSkipped:
			log.Info("purposefully not updated", attrs...)
		default:
			log.Info("grade written", append(attrs, "value", formatValue(val))...)
		}
		s.audit(ctx, log, AuditEvent{
			CourseID: p.Course.ID, UserID: e.UserID, StudentID: sid,
			Column: kind.Name(), Outcome: o, Value: val, Error: errString(err), At: s.Now(),
		}, sum.RunID)
	}
	return nil
}

func (s *Syncer) writeCell(ctx context.Context, kind ColumnKind, col Column, userID int64, computed grading.ComputedTarget) (Outcome, *float64, error) {
	var existing *GradeRecord
	rec, err := s.Store.FindGrade(ctx, col.ID, userID)
	switch {
	case err == nil:
		existing = &rec
	case errors.Is(err, ErrNotFound):
	default:
		return OutcomeFailed, nil, fmt.Errorf("find grade: %w", err)
	}

	d := Reconcile(kind, computed, existing)
	now := s.Now()
	switch d.Action {
	case ActionInsert:
		_, err := s.Store.InsertGrade(ctx, GradeRecord{
			ColumnID: col.ID, UserID: userID, Value: d.Value, Created: now, Modified: now,
		})
		if err != nil {
			return OutcomeFailed, d.Value, fmt.Errorf("insert grade: %w", err)
		}
		return OutcomeInserted, d.Value, nil
	case ActionUpdate:
		upd := *existing
		upd.Value = d.Value
		upd.Modified = now
		if err := s.Store.UpdateGrade(ctx, upd); err != nil {
			return OutcomeFailed, d.Value, fmt.Errorf("update grade: %w", err)
		}
		return OutcomeUpdated, d.Value, nil
	default:
		return OutcomeSkipped, existing.Value, nil
	}
}

func (s *Syncer) audit(ctx context.Context, log *slog.Logger, e AuditEvent, runID string) {
	if s.Audit == nil {
		return
	}
	e.RunID = runID
	if err := s.Audit.Record(ctx, e); err != nil {
		log.Warn("audit event not recorded", "err", err)
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return grading.FormatScore(*v)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
