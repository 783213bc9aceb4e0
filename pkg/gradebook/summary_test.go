package gradebook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradetracker/internal/config"
	gradebook "github.com/mind-engage/gradetracker/pkg/gradebook"
)

func TestSummaryPrint(t *testing.T) {
	h := newHarness(t)
	s := h.syncer(fakeScores{"10011": "45.2", "10012": "40"})
	sum, err := s.Run(context.Background(), biologyID)
	require.NoError(t, err)

	var buf bytes.Buffer
	sum.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "TRACKER SUMMARY")
	assert.Contains(t, out, "Courses:   1")
	assert.Contains(t, out, "Students:  2")
	assert.Contains(t, out, "6 inserted, 0 updated, 0 skipped, 0 failed")
	assert.Contains(t, out, "a level: 1")
	assert.Contains(t, out, "Poor grades (1)")
	assert.Contains(t, out, "Bo Ng (10012) MAG E")
}

func TestSummaryJSON(t *testing.T) {
	sum := gradebook.NewSummary("run-1", time.Unix(10, 0))
	b, err := json.Marshal(sum)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Contains(t, got, "outcomes")
	assert.Zero(t, sum.Duration())
}

func TestPreview(t *testing.T) {
	scales, err := config.DefaultScales()
	require.NoError(t, err)

	p, err := gradebook.NewPreview(scales, "leapcore_a2_biology", "45.2")
	require.NoError(t, err)
	assert.Equal(t, "A Level", p.Scale.Name)
	assert.Equal(t, 70.499, p.Computed.Minimum.Adjusted)
	assert.Equal(t, 100.499, p.Computed.Target.Adjusted)
	require.NotNil(t, p.Values["MAG"])
	assert.Equal(t, 3.0, *p.Values["MAG"])
	assert.Equal(t, 4.0, *p.Values["TAG"])

	_, err = gradebook.NewPreview(scales, "leapcore_a2_biology", "abc")
	assert.Error(t, err)

	p, err = gradebook.NewPreview(scales, "mystery", "12")
	require.NoError(t, err)
	assert.Nil(t, p.Values["MAG"])
	assert.Equal(t, 12.0, *p.Values["L3VA"])
}
