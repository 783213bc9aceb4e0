package gradebook_test

import (
	"context"
	"fmt"
	"time"

	gradebook "github.com/mind-engage/gradetracker/pkg/gradebook"
)

/* ---------------- In-memory fakes for CourseSource, GradeStore, ScoreSource and AuditLog ---------------- */

type fakeCourses struct {
	courses    []gradebook.Course
	grading    map[int64]gradebook.CourseGrading
	scales     map[string]gradebook.Scale
	enrolments map[int64][]gradebook.Enrolment
	listErr    error
}

func newFakeCourses() *fakeCourses {
	return &fakeCourses{
		grading:    map[int64]gradebook.CourseGrading{},
		scales:     map[string]gradebook.Scale{},
		enrolments: map[int64][]gradebook.Enrolment{},
	}
}

func (f *fakeCourses) ListCourses(_ context.Context, flt gradebook.CourseFilter) ([]gradebook.Course, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []gradebook.Course
	for _, c := range f.courses {
		if flt.CourseID == 0 || flt.CourseID == c.ID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourses) CourseGrading(_ context.Context, courseID int64) (gradebook.CourseGrading, error) {
	g, ok := f.grading[courseID]
	if !ok {
		return gradebook.CourseGrading{}, gradebook.ErrNotFound
	}
	return g, nil
}

func (f *fakeCourses) FindScale(_ context.Context, name string) (gradebook.Scale, error) {
	s, ok := f.scales[name]
	if !ok {
		return gradebook.Scale{}, gradebook.ErrNotFound
	}
	return s, nil
}

func (f *fakeCourses) ListEnrolments(_ context.Context, courseID int64, _ time.Time) ([]gradebook.Enrolment, error) {
	return f.enrolments[courseID], nil
}

type fakeStore struct {
	categories map[int64]gradebook.Category
	columns    map[string]gradebook.Column
	grades     map[[2]int64]gradebook.GradeRecord
	seq        int64

	createCategoryErr error
	insertErr         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: map[int64]gradebook.Category{},
		columns:    map[string]gradebook.Column{},
		grades:     map[[2]int64]gradebook.GradeRecord{},
	}
}

func colKey(courseID int64, name string) string { return fmt.Sprintf("%d|%s", courseID, name) }

func (s *fakeStore) next() int64 { s.seq++; return s.seq }

func (s *fakeStore) FindCategory(_ context.Context, courseID int64, name string) (gradebook.Category, error) {
	c, ok := s.categories[courseID]
	if !ok || c.Name != name {
		return gradebook.Category{}, gradebook.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) CreateCategory(_ context.Context, c gradebook.Category) (gradebook.Category, error) {
	if s.createCategoryErr != nil {
		return gradebook.Category{}, s.createCategoryErr
	}
	c.ID = s.next()
	s.categories[c.CourseID] = c
	return c, nil
}

func (s *fakeStore) FindColumn(_ context.Context, courseID int64, name string) (gradebook.Column, error) {
	c, ok := s.columns[colKey(courseID, name)]
	if !ok {
		return gradebook.Column{}, gradebook.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) CreateColumn(_ context.Context, c gradebook.Column) (gradebook.Column, error) {
	c.ID = s.next()
	s.columns[colKey(c.CourseID, c.Name)] = c
	return c, nil
}

func (s *fakeStore) FindGrade(_ context.Context, columnID, userID int64) (gradebook.GradeRecord, error) {
	g, ok := s.grades[[2]int64{columnID, userID}]
	if !ok {
		return gradebook.GradeRecord{}, gradebook.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) InsertGrade(_ context.Context, g gradebook.GradeRecord) (gradebook.GradeRecord, error) {
	if s.insertErr != nil {
		return gradebook.GradeRecord{}, s.insertErr
	}
	k := [2]int64{g.ColumnID, g.UserID}
	if _, ok := s.grades[k]; ok {
		return gradebook.GradeRecord{}, gradebook.ErrConflict
	}
	g.ID = s.next()
	s.grades[k] = g
	return g, nil
}

func (s *fakeStore) UpdateGrade(_ context.Context, g gradebook.GradeRecord) error {
	k := [2]int64{g.ColumnID, g.UserID}
	if _, ok := s.grades[k]; !ok {
		return gradebook.ErrNotFound
	}
	s.grades[k] = g
	return nil
}

// cell returns the stored record for a course column and user.
func (s *fakeStore) cell(courseID int64, column string, userID int64) (gradebook.GradeRecord, bool) {
	col, ok := s.columns[colKey(courseID, column)]
	if !ok {
		return gradebook.GradeRecord{}, false
	}
	g, ok := s.grades[[2]int64{col.ID, userID}]
	return g, ok
}

type fakeScores map[string]string

func (f fakeScores) FetchScore(_ context.Context, studentID string) (string, error) {
	return f[studentID], nil
}

type fakeAudit struct{ events []gradebook.AuditEvent }

func (a *fakeAudit) Record(_ context.Context, e gradebook.AuditEvent) error {
	a.events = append(a.events, e)
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
