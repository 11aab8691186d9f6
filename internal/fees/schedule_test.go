package fees

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleSchedules = `
profiles:
  - id: hedge_2_20
    description: classic two and twenty
    management_fee: 0.02
    performance_fee: 0.20
    hurdle_rate: 0.08
  - id: index
    management_fee: 0.001
    high_water_mark: false
`

func TestLoadSchedules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	if err := os.WriteFile(path, []byte(sampleSchedules), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, data, err := LoadSchedules(path)
	if err != nil {
		t.Fatalf("LoadSchedules failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected raw yaml bytes")
	}
	if len(file.Profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(file.Profiles))
	}

	p, err := file.Profile("hedge_2_20")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	s := p.Schedule()
	if s.ManagementFee.String() != "0.02" {
		t.Errorf("expected management fee 0.02, got %s", s.ManagementFee)
	}
	if !s.PerformanceFee.Valid || s.PerformanceFee.Decimal.String() != "0.2" {
		t.Errorf("expected performance fee 0.2, got %+v", s.PerformanceFee)
	}
	if !s.HurdleRate.Valid || s.HurdleRate.Decimal.String() != "0.08" {
		t.Errorf("expected hurdle 0.08, got %+v", s.HurdleRate)
	}
	// 기본값: high-water mark on
	if !s.HighWaterMark {
		t.Error("expected high-water mark on by default")
	}

	idx, _ := file.Profile("index")
	is := idx.Schedule()
	if is.HighWaterMark {
		t.Error("expected high-water mark off for index profile")
	}
	if is.PerformanceFee.Valid || is.HurdleRate.Valid {
		t.Error("expected no performance fee or hurdle for index profile")
	}

	if _, err := file.Profile("missing"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoadSchedules_MissingFile(t *testing.T) {
	if _, _, err := LoadSchedules(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseSchedules_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"no profiles", "profiles: []\n", "profiles"},
		{"missing id", "profiles:\n  - management_fee: 0.01\n", "profiles[0].id"},
		{"duplicate id", "profiles:\n  - id: a\n    management_fee: 0.01\n  - id: a\n    management_fee: 0.02\n", "profiles[1].id"},
		{"negative fee", "profiles:\n  - id: a\n    management_fee: -0.01\n", "profiles[0].management_fee"},
		{"performance fee of 100%", "profiles:\n  - id: a\n    management_fee: 0.01\n    performance_fee: 1.0\n", "profiles[0].performance_fee"},
		{"hurdle out of range", "profiles:\n  - id: a\n    management_fee: 0.01\n    hurdle_rate: 2\n", "profiles[0].hurdle_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedules([]byte(tt.yaml))
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestParseSchedules_UnknownField(t *testing.T) {
	// KnownFields(true): 오타 필드 거부
	_, err := ParseSchedules([]byte("profiles:\n  - id: a\n    managment_fee: 0.01\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		t.Errorf("expected decode error, got validation error %v", ve)
	}
}

func TestHash(t *testing.T) {
	file, err := ParseSchedules([]byte(sampleSchedules))
	if err != nil {
		t.Fatalf("ParseSchedules failed: %v", err)
	}

	h1, err := Hash(file.Profiles[0])
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(h1))
	}

	h2, _ := Hash(file.Profiles[0])
	if h1 != h2 {
		t.Error("hash not deterministic")
	}

	h3, _ := Hash(file.Profiles[1])
	if h1 == h3 {
		t.Error("different profiles must hash differently")
	}
}
