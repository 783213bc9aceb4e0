package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/gradetracker/internal/db"
)

// DefaultTrackerAPI is the Leap person endpoint; the first verb receives the
// student id, the second the token.
const DefaultTrackerAPI = "http://leap.southdevon.ac.uk/people/%s.json?token=%s"

var ErrMissingToken = errors.New("config: TRACKER_TOKEN is required")

type Config struct {
	HTTPAddr string `validate:"required"`

	DBDriver string `validate:"required,dbdriver"`
	DBDSN    string

	TrackerToken   string
	TrackerAPI     string        `validate:"required,contains=%s"`
	TrackerTimeout time.Duration `validate:"gt=0"`

	IDNumberLike string   `validate:"required"`
	Category     string   `validate:"required"`
	EnrolMethods []string `validate:"dive,required"`

	CalibrationFile string
	ReportDir       string
	Debug           bool

	CORSOrigins []string

	// envErrs collects env values that could not be parsed.
	envErrs []error
}

func FromEnv() Config {
	timeout, terr := envDuration("TRACKER_TIMEOUT", 10*time.Second)
	cfg := Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		TrackerToken:    os.Getenv("TRACKER_TOKEN"),
		TrackerAPI:      envOr("LEAP_TRACKER_API", DefaultTrackerAPI),
		TrackerTimeout:  timeout,
		IDNumberLike:    envOr("IDNUMBER_LIKE", "leapcore_%"),
		Category:        envOr("TRACKER_CATEGORY", "Targets"),
		EnrolMethods:    csvOr("ENROL_METHODS", "manual"),
		CalibrationFile: os.Getenv("CALIBRATION_FILE"),
		ReportDir:       os.Getenv("TRACKER_REPORT_DIR"),
		Debug:           envBool("TRACKER_DEBUG", false),
		CORSOrigins:     csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
	if terr != nil {
		cfg.envErrs = append(cfg.envErrs, terr)
	}
	return cfg
}

var validate = newValidator()

// newValidator registers dbdriver, which accepts exactly what db.ParseDriver does.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("dbdriver", func(fl validator.FieldLevel) bool {
		_, err := db.ParseDriver(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if err := errors.Join(c.envErrs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequireToken fails when no tracker token is configured.
func (c Config) RequireToken() error {
	if strings.TrimSpace(c.TrackerToken) == "" {
		return ErrMissingToken
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s=%q is not a duration: %w", k, v, err)
	}
	return d, nil
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
