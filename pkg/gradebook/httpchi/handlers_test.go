package httpchi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradetracker/internal/config"
	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/internal/logging"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
	"github.com/mind-engage/gradetracker/pkg/gradebook/httpchi"
	"github.com/mind-engage/gradetracker/pkg/gradebook/sqlstore"
)

type scores map[string]string

func (s scores) FetchScore(_ context.Context, id string) (string, error) { return s[id], nil }

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, s := range []string{
		`INSERT INTO courses (id, shortname, fullname, idnumber) VALUES (10, 'BIO', 'A2 Biology', '|leapcore_a2_biology|')`,
		`INSERT INTO users (id, username, firstname, lastname) VALUES (1, '10001', 'Ada', 'One')`,
		`INSERT INTO enrolments (course_id, user_id) VALUES (10, 1)`,
		`INSERT INTO scales (id, name) VALUES (1, 'A Level')`,
	} {
		_, err := conn.Exec(s)
		require.NoError(t, err)
	}

	scales, err := config.DefaultScales()
	require.NoError(t, err)
	st := sqlstore.New(conn, "manual")
	syncer := gradebook.New(st, scores{"10001": "45.2"}, st, scales,
		gradebook.WithLogger(logging.Discard()),
		gradebook.WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)

	r := chi.NewRouter()
	httpchi.New(syncer, scales).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndScales(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/scales", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fams []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fams))
	assert.Len(t, fams, 4)
}

func TestPreview(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/preview", `{"course_type":"leapcore_a2_biology","score":"45.2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p struct {
		Values map[string]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotNil(t, p.Values["MAG"])
	assert.Equal(t, 3.0, *p.Values["MAG"])
	assert.Equal(t, 4.0, *p.Values["TAG"])

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing score", `{"course_type":"btec"}`, http.StatusBadRequest},
		{"rejected score", `{"course_type":"btec","score":"-1"}`, http.StatusUnprocessableEntity},
		{"text score", `{"course_type":"btec","score":"abc"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, do(t, h, http.MethodPost, "/preview", tt.body).Code)
		})
	}
}

func TestPostCourseSync(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/courses/10/sync", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum gradebook.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 3, sum.Outcomes[gradebook.OutcomeInserted])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/courses/99/sync", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/courses/abc/sync", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/courses/0/sync", "").Code)
}
