package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/internal/grading"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DB_DSN", "TRACKER_TOKEN", "LEAP_TRACKER_API", "TRACKER_TIMEOUT",
		"IDNUMBER_LIKE", "TRACKER_CATEGORY", "ENROL_METHODS", "CALIBRATION_FILE", "HTTP_ADDR", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, DefaultTrackerAPI, cfg.TrackerAPI)
	assert.Equal(t, "leapcore_%", cfg.IDNumberLike)
	assert.Equal(t, "Targets", cfg.Category)
	assert.Equal(t, []string{"manual"}, cfg.EnrolMethods)
	assert.Equal(t, 10*time.Second, cfg.TrackerTimeout)
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.RequireToken(), ErrMissingToken)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("TRACKER_TOKEN", "s3cret")
	t.Setenv("TRACKER_TIMEOUT", "3s")
	t.Setenv("ENROL_METHODS", "manual, self ,")
	t.Setenv("TRACKER_DEBUG", "yes")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 3*time.Second, cfg.TrackerTimeout)
	assert.Equal(t, []string{"manual", "self"}, cfg.EnrolMethods)
	assert.True(t, cfg.Debug)
	assert.NoError(t, cfg.RequireToken())
}

func TestValidate(t *testing.T) {
	t.Setenv("TRACKER_TIMEOUT", "")
	base := FromEnv()

	bad := base
	bad.DBDriver = "mysql"
	assert.Error(t, bad.Validate())

	bad = base
	bad.TrackerAPI = "http://leap.example/people.json"
	assert.Error(t, bad.Validate(), "template needs a %s verb")

	bad = base
	bad.Category = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.TrackerTimeout = 0
	assert.Error(t, bad.Validate())
}

func TestValidateDriverMatchesParseDriver(t *testing.T) {
	t.Setenv("TRACKER_TIMEOUT", "")
	base := FromEnv()
	for _, d := range []string{"sqlite", "sqlite3", "postgres", "postgresql", "pgx", "pgsql", "Postgres"} {
		cfg := base
		cfg.DBDriver = d
		assert.NoError(t, cfg.Validate(), d)
		_, err := db.ParseDriver(d)
		assert.NoError(t, err, d)
	}
	cfg := base
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.Validate())
	_, err := db.ParseDriver("mysql")
	assert.Error(t, err)
}

func TestValidateRejectsMalformedTimeout(t *testing.T) {
	t.Setenv("TRACKER_TIMEOUT", "ten seconds")
	cfg := FromEnv()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACKER_TIMEOUT")

	t.Setenv("TRACKER_TIMEOUT", "250ms")
	cfg = FromEnv()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 250*time.Millisecond, cfg.TrackerTimeout)
}

func TestDefaultScales(t *testing.T) {
	tbl, err := DefaultScales()
	require.NoError(t, err)

	bio := tbl.Resolve("leapcore_a2_biology")
	assert.Equal(t, grading.KindALevel, bio.Kind)
	require.NotNil(t, bio.Calibration)
	assert.Equal(t, 5.2471, bio.Calibration.Slope)
	assert.Equal(t, 166.67, bio.Calibration.Intercept)
	assert.True(t, bio.Target)

	btec := tbl.Resolve("BTEC")
	assert.Equal(t, grading.KindBTEC, btec.Kind)
	assert.False(t, btec.Target)

	assert.Equal(t, grading.KindBTEC, tbl.Resolve("leapcore_btecex_applsci").Kind)
	assert.Equal(t, grading.KindPassFail, tbl.Resolve("Develop, Pass").Kind)
	assert.Equal(t, grading.KindNone, tbl.Resolve("noscale").Kind)
	assert.Equal(t, grading.KindNone, tbl.Resolve("leapcore_nothing").Kind)

	got, err := grading.ComputeTargets(30, btec)
	require.NoError(t, err)
	assert.Equal(t, 17.844, got.Minimum.Adjusted)
	assert.Equal(t, "Refer", got.Minimum.Label)
}

func TestLoadScalesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scales.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scales:
  - name: BTEC
    kind: btec
    default_calibration: {slope: 2, intercept: 10}
    floor: {threshold: 0, level: 1, label: Refer, poor: true}
    bands:
      - {threshold: 30, level: 2, label: Pass}
`), 0o644))

	tbl, err := LoadScales(path)
	require.NoError(t, err)
	s := tbl.Resolve("btec")
	require.NotNil(t, s.Calibration)
	assert.Equal(t, 2.0, s.Calibration.Slope)
}

func TestLoadScalesEmptyPathUsesDefault(t *testing.T) {
	tbl, err := LoadScales("")
	require.NoError(t, err)
	assert.True(t, tbl.Recognizes("leapcore_a2_physics"))
}

func TestParseScalesRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": `
scales:
  - name: BTEC
    kind: btec
    colour: red
`,
		"no scales": `scales: []`,
		"bad kind": `
scales:
  - name: GCSE
    kind: gcse
`,
		"zero slope": `
scales:
  - name: BTEC
    kind: btec
    default_calibration: {slope: 1, intercept: 0}
    subjects:
      leapcore_x: {slope: 0, intercept: 1}
    floor: {level: 1, label: Refer}
    bands: [{threshold: 30, level: 2, label: Pass}]
`,
		"thresholds not increasing": `
scales:
  - name: BTEC
    kind: btec
    default_calibration: {slope: 1, intercept: 0}
    floor: {level: 1, label: Refer}
    bands:
      - {threshold: 60, level: 2, label: Pass}
      - {threshold: 30, level: 3, label: Merit}
`,
		"band without label": `
scales:
  - name: BTEC
    kind: btec
    default_calibration: {slope: 1, intercept: 0}
    floor: {level: 1, label: Refer}
    bands: [{threshold: 30, level: 2}]
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScales([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScalesMissingFile(t *testing.T) {
	_, err := LoadScales(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
