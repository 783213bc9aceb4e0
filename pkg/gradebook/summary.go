package gradebook

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

const boxWidth = 64

// PoorGrade notes a computed grade whose label is flagged as poor.
type PoorGrade struct {
	CourseID  int64  `json:"course_id"`
	Course    string `json:"course"`
	StudentID string `json:"student_id"`
	Student   string `json:"student"`
	Column    string `json:"column"`
	Label     string `json:"label"`
}

func (p PoorGrade) String() string {
	return fmt.Sprintf("%s: %s (%s) %s %s", p.Course, p.Student, p.StudentID, p.Column, p.Label)
}

// Summary accumulates what a run touched. It is not safe for concurrent use.
type Summary struct {
	RunID      string          `json:"run_id"`
	Started    time.Time       `json:"started"`
	Finished   time.Time       `json:"finished"`
	Courses    []string        `json:"courses"`
	Students   []string        `json:"students"`
	GradeTypes map[string]int  `json:"grade_types"`
	PoorGrades []PoorGrade     `json:"poor_grades"`
	Outcomes   map[Outcome]int `json:"outcomes"`

	seenStudents map[string]bool
}

func NewSummary(runID string, started time.Time) *Summary {
	return &Summary{
		RunID:        runID,
		Started:      started,
		GradeTypes:   map[string]int{},
		Outcomes:     map[Outcome]int{},
		seenStudents: map[string]bool{},
	}
}

func (s *Summary) addCourse(c Course) {
	s.Courses = append(s.Courses, fmt.Sprintf("%s (%d)", c.Fullname, c.ID))
}

func (s *Summary) addGradeType(name string) {
	s.GradeTypes[strings.ToLower(name)]++
}

// addStudent records one entry per course enrolment; a student on two
// courses is listed twice.
func (s *Summary) addStudent(courseID int64, e Enrolment) {
	label := fmt.Sprintf("%s (%s)", e.DisplayName(), e.StudentID())
	key := fmt.Sprintf("%d/%d", courseID, e.UserID)
	if s.seenStudents[key] {
		return
	}
	s.seenStudents[key] = true
	s.Students = append(s.Students, label)
}

func (s *Summary) addPoor(p PoorGrade) { s.PoorGrades = append(s.PoorGrades, p) }

func (s *Summary) count(o Outcome) { s.Outcomes[o]++ }

func (s *Summary) finish(at time.Time) {
	s.Finished = at
	sort.Strings(s.Courses)
	sort.Strings(s.Students)
}

func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Print writes the human readable summary box to w.
//
//nolint:errcheck // terminal output
func (s *Summary) Print(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:       %s\n", s.RunID)
	fmt.Fprintf(&sb, "Duration:  %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Courses:   %d\n", len(s.Courses))
	fmt.Fprintf(&sb, "Students:  %d\n", len(s.Students))
	fmt.Fprintf(&sb, "Cells:     %d inserted, %d updated, %d skipped, %d failed\n",
		s.Outcomes[OutcomeInserted], s.Outcomes[OutcomeUpdated], s.Outcomes[OutcomeSkipped], s.Outcomes[OutcomeFailed])

	if len(s.GradeTypes) > 0 {
		sb.WriteString("\nGrade types:\n")
		names := make([]string, 0, len(s.GradeTypes))
		for n := range s.GradeTypes {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&sb, "  • %s: %d\n", n, s.GradeTypes[n])
		}
	}
	if len(s.PoorGrades) > 0 {
		fmt.Fprintf(&sb, "\nPoor grades (%d):\n", len(s.PoorGrades))
		for _, p := range s.PoorGrades {
			fmt.Fprintf(&sb, "  • %s\n", p)
		}
	}
	printBox(w, "TRACKER SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

//nolint:errcheck // terminal output
func printBox(w io.Writer, title, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(w, "┌%s┐\n", border)
	fmt.Fprintf(w, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(w, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		r := []rune(line)
		if len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(w, "│ %-*s │\n", boxWidth-4, line)
	}
	fmt.Fprintf(w, "└%s┘\n", border)
}
