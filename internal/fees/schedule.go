package fees

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ScheduleFile is a set of named fee profiles.
//
//	profiles:
//	  - id: hedge_2_20
//	    management_fee: 0.02
//	    performance_fee: 0.20
//	    hurdle_rate: 0.08
//	    high_water_mark: true
type ScheduleFile struct {
	Profiles []Profile `yaml:"profiles" json:"profiles"`
}

// Profile is one fee schedule as written in YAML.
// Optional rates are pointers so that "absent" differs from 0.
type Profile struct {
	ID             string   `yaml:"id" json:"id"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	ManagementFee  float64  `yaml:"management_fee" json:"management_fee"`
	PerformanceFee *float64 `yaml:"performance_fee,omitempty" json:"performance_fee,omitempty"`
	HurdleRate     *float64 `yaml:"hurdle_rate,omitempty" json:"hurdle_rate,omitempty"`
	HighWaterMark  *bool    `yaml:"high_water_mark,omitempty" json:"high_water_mark,omitempty"`
}

// Schedule converts the profile into the analyzer's decimal schedule.
// The high-water mark defaults to on.
func (p Profile) Schedule() Schedule {
	s := Schedule{
		ManagementFee: decimal.NewFromFloat(p.ManagementFee),
		HighWaterMark: true,
	}
	if p.PerformanceFee != nil {
		s.PerformanceFee = decimal.NewNullDecimal(decimal.NewFromFloat(*p.PerformanceFee))
	}
	if p.HurdleRate != nil {
		s.HurdleRate = decimal.NewNullDecimal(decimal.NewFromFloat(*p.HurdleRate))
	}
	if p.HighWaterMark != nil {
		s.HighWaterMark = *p.HighWaterMark
	}
	return s
}

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadSchedules reads a YAML schedule file and returns it with the raw bytes.
// Unknown fields are rejected.
func LoadSchedules(path string) (*ScheduleFile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	file, err := ParseSchedules(data)
	if err != nil {
		return nil, data, err
	}
	return file, data, nil
}

// ParseSchedules decodes and validates YAML schedule bytes.
func ParseSchedules(data []byte) (*ScheduleFile, error) {
	var file ScheduleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 오타 필드는 즉시 실패
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fee schedules: %w", err)
	}

	if err := ValidateSchedules(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// ValidateSchedules checks ids are present and unique and every rate is in [0, 1).
func ValidateSchedules(file *ScheduleFile) error {
	if len(file.Profiles) == 0 {
		return ValidationError{"profiles", "at least one profile required"}
	}

	seen := make(map[string]bool, len(file.Profiles))
	for i, p := range file.Profiles {
		prefix := fmt.Sprintf("profiles[%d]", i)
		if p.ID == "" {
			return ValidationError{prefix + ".id", "required"}
		}
		if seen[p.ID] {
			return ValidationError{prefix + ".id", fmt.Sprintf("duplicate id '%s'", p.ID)}
		}
		seen[p.ID] = true

		if err := validateRate(prefix+".management_fee", p.ManagementFee); err != nil {
			return err
		}
		if p.PerformanceFee != nil {
			if err := validateRate(prefix+".performance_fee", *p.PerformanceFee); err != nil {
				return err
			}
		}
		if p.HurdleRate != nil {
			if err := validateRate(prefix+".hurdle_rate", *p.HurdleRate); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRate(field string, v float64) error {
	if v < 0 || v >= 1 {
		return ValidationError{field, "must be in [0, 1)"}
	}
	return nil
}

// Profile returns the profile with the given id.
func (f *ScheduleFile) Profile(id string) (Profile, error) {
	for _, p := range f.Profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("fee profile %q not found", id)
}

// Hash generates a SHA-256 hash of the profile (canonical JSON)
// 주의: struct 기반이라 필드 순서가 고정됨
func Hash(p Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
