package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

const itemTypeManual = "manual"

// Store implements gradebook.CourseSource and gradebook.GradeStore over the
// tables created by internal/db. Queries use $n placeholders, which both pgx
// and modernc sqlite accept.
type Store struct {
	DB *sql.DB
	// EnrolMethods restricts enrolments to these methods; empty means any.
	EnrolMethods []string
}

func New(d *sql.DB, enrolMethods ...string) *Store {
	return &Store{DB: d, EnrolMethods: enrolMethods}
}

var (
	_ gradebook.CourseSource = (*Store)(nil)
	_ gradebook.GradeStore   = (*Store)(nil)
)

func (s *Store) ListCourses(ctx context.Context, f gradebook.CourseFilter) ([]gradebook.Course, error) {
	q := `SELECT id, shortname, fullname, idnumber FROM courses WHERE idnumber LIKE $1`
	args := []any{"%|" + f.Pattern + "|%"}
	if f.CourseID != 0 {
		q += ` AND id = $2`
		args = append(args, f.CourseID)
	}
	q += ` ORDER BY id ASC`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	var out []gradebook.Course
	for rows.Next() {
		var c gradebook.Course
		if err := rows.Scan(&c.ID, &c.Shortname, &c.Fullname, &c.IDNumber); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CourseGrading(ctx context.Context, courseID int64) (gradebook.CourseGrading, error) {
	var (
		g       gradebook.CourseGrading
		scaleID sql.NullInt64
		name    sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT gi.grade_type, gi.scale_id, sc.name
		FROM grade_items gi
		LEFT JOIN scales sc ON sc.id = gi.scale_id
		WHERE gi.course_id=$1 AND gi.item_type='course'
		ORDER BY gi.id LIMIT 1`, courseID).
		Scan(&g.Type, &scaleID, &name)
	if err != nil {
		return gradebook.CourseGrading{}, notFound(err, "course grading")
	}
	g.ScaleID, g.ScaleName = scaleID.Int64, name.String
	return g, nil
}

func (s *Store) FindScale(ctx context.Context, name string) (gradebook.Scale, error) {
	var sc gradebook.Scale
	err := s.DB.QueryRowContext(ctx, `SELECT id, name FROM scales WHERE name=$1 ORDER BY id LIMIT 1`, name).
		Scan(&sc.ID, &sc.Name)
	if err != nil {
		return gradebook.Scale{}, notFound(err, "scale")
	}
	return sc, nil
}

// ListEnrolments returns active students: student role, active enrolment on
// an allowed method, user neither suspended nor deleted, and an enrolment that
// is open ended or ends after at.
func (s *Store) ListEnrolments(ctx context.Context, courseID int64, at time.Time) ([]gradebook.Enrolment, error) {
	q := `
		SELECT DISTINCT u.id, u.username, u.firstname, u.lastname
		FROM users u
		JOIN enrolments e ON e.user_id = u.id
		WHERE e.course_id = $1
		  AND e.role = 'student'
		  AND e.status = 0
		  AND u.suspended = 0
		  AND u.deleted = 0
		  AND (e.time_end = 0 OR e.time_end > $2)`
	args := []any{courseID, at.Unix()}
	if len(s.EnrolMethods) > 0 {
		ph := make([]string, len(s.EnrolMethods))
		for i, m := range s.EnrolMethods {
			args = append(args, m)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		q += ` AND e.method IN (` + strings.Join(ph, ",") + `)`
	}
	q += ` ORDER BY u.id ASC`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrolments: %w", err)
	}
	defer rows.Close()
	var out []gradebook.Enrolment
	for rows.Next() {
		var e gradebook.Enrolment
		if err := rows.Scan(&e.UserID, &e.Username, &e.Firstname, &e.Lastname); err != nil {
			return nil, fmt.Errorf("scan enrolment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) FindCategory(ctx context.Context, courseID int64, name string) (gradebook.Category, error) {
	var c gradebook.Category
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, course_id, fullname, sort_order FROM grade_categories
		WHERE course_id=$1 AND fullname=$2`, courseID, name).
		Scan(&c.ID, &c.CourseID, &c.Name, &c.SortOrder)
	if err != nil {
		return gradebook.Category{}, notFound(err, "category")
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c gradebook.Category) (gradebook.Category, error) {
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO grade_categories (course_id, fullname, sort_order)
		VALUES ($1,$2,$3)
		RETURNING id`, c.CourseID, c.Name, c.SortOrder).
		Scan(&c.ID)
	if err != nil {
		return gradebook.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) FindColumn(ctx context.Context, courseID int64, name string) (gradebook.Column, error) {
	var (
		c              gradebook.Column
		catID, scaleID sql.NullInt64
		locked, hidden int
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, course_id, category_id, item_name, item_info, sort_order,
		       grade_type, scale_id, locked, hidden, decimals
		FROM grade_items
		WHERE course_id=$1 AND item_type=$2 AND item_name=$3`, courseID, itemTypeManual, name).
		Scan(&c.ID, &c.CourseID, &catID, &c.Name, &c.Info, &c.SortOrder,
			&c.GradeType, &scaleID, &locked, &hidden, &c.Decimals)
	if err != nil {
		return gradebook.Column{}, notFound(err, "column")
	}
	c.CategoryID, c.ScaleID = catID.Int64, scaleID.Int64
	c.Locked, c.Hidden = locked != 0, hidden != 0
	return c, nil
}

func (s *Store) CreateColumn(ctx context.Context, c gradebook.Column) (gradebook.Column, error) {
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO grade_items
		  (course_id, category_id, item_type, item_name, item_info, sort_order,
		   grade_type, scale_id, locked, hidden, decimals)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		c.CourseID, nullID(c.CategoryID), itemTypeManual, c.Name, c.Info, c.SortOrder,
		int(c.GradeType), nullID(c.ScaleID), b2i(c.Locked), b2i(c.Hidden), c.Decimals).
		Scan(&c.ID)
	if err != nil {
		return gradebook.Column{}, fmt.Errorf("create column %s: %w", c.Name, err)
	}
	return c, nil
}

func (s *Store) FindGrade(ctx context.Context, columnID, userID int64) (gradebook.GradeRecord, error) {
	var (
		g                 gradebook.GradeRecord
		val               sql.NullFloat64
		created, modified int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, item_id, user_id, final_grade, time_created, time_modified
		FROM grade_grades WHERE item_id=$1 AND user_id=$2`, columnID, userID).
		Scan(&g.ID, &g.ColumnID, &g.UserID, &val, &created, &modified)
	if err != nil {
		return gradebook.GradeRecord{}, notFound(err, "grade")
	}
	if val.Valid {
		v := val.Float64
		g.Value = &v
	}
	g.Created, g.Modified = time.Unix(created, 0), time.Unix(modified, 0)
	return g, nil
}

// InsertGrade is an atomic check-and-insert: a cell that already exists is
// left untouched and ErrConflict is returned.
func (s *Store) InsertGrade(ctx context.Context, g gradebook.GradeRecord) (gradebook.GradeRecord, error) {
	val := nullFloat(g.Value)
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO grade_grades (item_id, user_id, raw_grade, final_grade, time_created, time_modified)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (item_id, user_id) DO NOTHING
		RETURNING id`,
		g.ColumnID, g.UserID, val, val, g.Created.Unix(), g.Modified.Unix()).
		Scan(&g.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return gradebook.GradeRecord{}, gradebook.ErrConflict
	}
	if err != nil {
		return gradebook.GradeRecord{}, fmt.Errorf("insert grade: %w", err)
	}
	return g, nil
}

// UpdateGrade rewrites the value and modified time; time_created is untouched.
func (s *Store) UpdateGrade(ctx context.Context, g gradebook.GradeRecord) error {
	val := nullFloat(g.Value)
	res, err := s.DB.ExecContext(ctx, `
		UPDATE grade_grades SET raw_grade=$1, final_grade=$2, time_modified=$3
		WHERE id=$4`, val, val, g.Modified.Unix(), g.ID)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gradebook.ErrNotFound
	}
	return nil
}

// WipeResult counts what Wipe removed.
type WipeResult struct {
	Grades     int64 `json:"grades"`
	Columns    int64 `json:"columns"`
	Categories int64 `json:"categories"`
}

// Wipe removes every tracker category, the named columns and their cells in a
// single transaction.
func (s *Store) Wipe(ctx context.Context, category string, columns []string) (WipeResult, error) {
	var out WipeResult
	args := []any{itemTypeManual}
	ph := make([]string, len(columns))
	for i, c := range columns {
		args = append(args, c)
		ph[i] = fmt.Sprintf("$%d", len(args))
	}
	items := `SELECT id FROM grade_items WHERE item_type=$1 AND item_name IN (` + strings.Join(ph, ",") + `)`

	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if len(columns) > 0 {
			res, err := tx.ExecContext(ctx, `DELETE FROM grade_grades WHERE item_id IN (`+items+`)`, args...)
			if err != nil {
				return fmt.Errorf("delete grades: %w", err)
			}
			out.Grades, _ = res.RowsAffected()

			res, err = tx.ExecContext(ctx, `DELETE FROM grade_items WHERE id IN (`+items+`)`, args...)
			if err != nil {
				return fmt.Errorf("delete columns: %w", err)
			}
			out.Columns, _ = res.RowsAffected()
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM grade_categories WHERE fullname=$1`, category)
		if err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		out.Categories, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return WipeResult{}, err
	}
	return out, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, gradebook.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}

func nullID(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: id != 0} }

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
