package syncx

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

func TestRecordAndListRun(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:eventlog?mode=memory&cache=shared")
	require.NoError(t, err)
	defer conn.Close()

	repo := NewEventRepo(conn)
	repo.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	v := 3.0
	require.NoError(t, repo.Record(ctx, gradebook.AuditEvent{
		RunID: "run-1", CourseID: 10, UserID: 1, StudentID: "10001",
		Column: "MAG", Outcome: gradebook.OutcomeInserted, Value: &v,
	}))
	require.NoError(t, repo.Record(ctx, gradebook.AuditEvent{
		RunID: "run-1", CourseID: 10, UserID: 1, StudentID: "10001",
		Column: "TAG", Outcome: gradebook.OutcomeSkipped,
	}))
	require.NoError(t, repo.Record(ctx, gradebook.AuditEvent{RunID: "run-2", CourseID: 10, UserID: 2, Column: "L3VA", Outcome: gradebook.OutcomeFailed, Error: "boom"}))

	evs, err := repo.ListRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "grade.inserted", evs[0].Type)
	assert.Equal(t, "10/1/MAG", evs[0].Key)
	assert.Equal(t, int64(1_700_000_000), evs[0].CreatedAt)
	assert.Equal(t, "grade.skipped", evs[1].Type)
	assert.Less(t, evs[0].Seq, evs[1].Seq)

	var data gradebook.AuditEvent
	require.NoError(t, json.Unmarshal([]byte(evs[0].DataJSON), &data))
	require.NotNil(t, data.Value)
	assert.Equal(t, 3.0, *data.Value)
	assert.Equal(t, "10001", data.StudentID)

	none, err := repo.ListRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
