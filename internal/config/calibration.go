package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/gradetracker/internal/grading"
)

//go:embed calibration.yaml
var defaultCalibration []byte

// Calibration is the on-disk shape of the scale table.
type Calibration struct {
	Scales []grading.Family `yaml:"scales" validate:"required,min=1,dive"`
}

// DefaultScales builds the table shipped with the binary.
func DefaultScales() (*grading.Table, error) {
	return ParseScales(defaultCalibration)
}

// LoadScales reads a calibration file, or the embedded default when path is empty.
func LoadScales(path string) (*grading.Table, error) {
	if path == "" {
		return DefaultScales()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration %s: %w", path, err)
	}
	t, err := ParseScales(b)
	if err != nil {
		return nil, fmt.Errorf("calibration %s: %w", path, err)
	}
	return t, nil
}

// ParseScales decodes and validates a YAML scale table. Unknown keys are rejected.
func ParseScales(data []byte) (*grading.Table, error) {
	var c Calibration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode calibration: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validate calibration: %w", err)
	}
	return grading.NewTable(c.Scales)
}
