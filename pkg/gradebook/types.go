// pkg/gradebook/types.go
package gradebook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mock_score_source_test.go -package=gradebook_test -mock_names=ScoreSource=MockScoreSource . ScoreSource

type Clock func() time.Time

var (
	ErrNotFound = errors.New("gradebook: not found")
	ErrConflict = errors.New("gradebook: record already exists")
)

// GradeType mirrors the gradebook's item grade types.
type GradeType int

const (
	GradeTypeNone  GradeType = 0
	GradeTypeValue GradeType = 1
	GradeTypeScale GradeType = 2
	GradeTypeText  GradeType = 3
)

func (g GradeType) String() string {
	switch g {
	case GradeTypeNone:
		return "none"
	case GradeTypeValue:
		return "value"
	case GradeTypeScale:
		return "scale"
	case GradeTypeText:
		return "text"
	}
	return fmt.Sprintf("gradetype(%d)", int(g))
}

type Course struct {
	ID        int64  `json:"id"`
	Shortname string `json:"shortname"`
	Fullname  string `json:"fullname"`
	IDNumber  string `json:"idnumber"`
}

// Tags splits the pipe-delimited idnumber into its non-empty tokens.
func (c Course) Tags() []string {
	var out []string
	for _, p := range strings.Split(c.IDNumber, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CourseGrading is the grade type and scale of a course's own total item.
type CourseGrading struct {
	Type      GradeType
	ScaleID   int64
	ScaleName string
}

type Scale struct {
	ID   int64
	Name string
}

type Enrolment struct {
	UserID    int64
	Username  string
	Firstname string
	Lastname  string
}

// StudentID is the username with any "@domain" suffix removed.
func (e Enrolment) StudentID() string {
	if i := strings.IndexByte(e.Username, '@'); i >= 0 {
		return e.Username[:i]
	}
	return e.Username
}

func (e Enrolment) DisplayName() string {
	return strings.TrimSpace(e.Firstname + " " + e.Lastname)
}

type Category struct {
	ID        int64
	CourseID  int64
	Name      string
	SortOrder int
}

// Column is a manual grade item inside the tracker category.
type Column struct {
	ID         int64
	CourseID   int64
	CategoryID int64
	Name       string
	Info       string
	SortOrder  int
	GradeType  GradeType
	ScaleID    int64
	Locked     bool
	Hidden     bool
	Decimals   int
}

// GradeRecord is one gradebook cell. A nil Value is stored as NULL.
type GradeRecord struct {
	ID       int64
	ColumnID int64
	UserID   int64
	Value    *float64
	Created  time.Time
	Modified time.Time
}

type CourseFilter struct {
	// Pattern is matched against pipe-delimited idnumber tokens with SQL LIKE semantics.
	Pattern  string
	CourseID int64
}

// ScoreSource returns the raw, unparsed L3VA for a student. An empty string
// with a nil error means the source has no score yet.
type ScoreSource interface {
	FetchScore(ctx context.Context, studentID string) (string, error)
}

type CourseSource interface {
	ListCourses(ctx context.Context, f CourseFilter) ([]Course, error)
	// CourseGrading returns ErrNotFound when the course has no total item.
	CourseGrading(ctx context.Context, courseID int64) (CourseGrading, error)
	FindScale(ctx context.Context, name string) (Scale, error)
	ListEnrolments(ctx context.Context, courseID int64, at time.Time) ([]Enrolment, error)
}

// GradeStore persists tracker categories, columns and cells. Find methods
// return ErrNotFound for missing rows; InsertGrade returns ErrConflict when the
// cell already exists.
type GradeStore interface {
	FindCategory(ctx context.Context, courseID int64, name string) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	FindColumn(ctx context.Context, courseID int64, name string) (Column, error)
	CreateColumn(ctx context.Context, c Column) (Column, error)
	FindGrade(ctx context.Context, columnID, userID int64) (GradeRecord, error)
	InsertGrade(ctx context.Context, g GradeRecord) (GradeRecord, error)
	UpdateGrade(ctx context.Context, g GradeRecord) error
}

// Outcome is what happened to one cell during a run.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

type AuditEvent struct {
	RunID     string    `json:"run_id"`
	CourseID  int64     `json:"course_id"`
	UserID    int64     `json:"user_id"`
	StudentID string    `json:"student_id"`
	Column    string    `json:"column"`
	Outcome   Outcome   `json:"outcome"`
	Value     *float64  `json:"value"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// AuditLog records reconcile outcomes. Failures to record are logged, never fatal.
type AuditLog interface {
	Record(ctx context.Context, e AuditEvent) error
}

// FatalError aborts the whole run.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %s: %v", e.Stage, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// StudentError is a per-student failure; the run continues past it.
type StudentError struct {
	Stage string
	Err   error
}

func (e *StudentError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StudentError) Unwrap() error { return e.Err }

const (
	StageProfile   = "profile"
	StageColumns   = "columns"
	StageEnrolment = "enrolments"
	StageFetch     = "fetch"
	StageScore     = "score"
	StageCompute   = "compute"
	StageWrite     = "write"
)
