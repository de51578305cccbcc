package version

import (
	"strings"
	"testing"
)

func TestStringReflectsBuildVersion(t *testing.T) {
	t.Cleanup(ForTesting("1.2.3-test"))

	if got := String(); got != "1.2.3-test" {
		t.Fatalf("expected version 1.2.3-test, got %s", got)
	}
}

func TestCheckVersionMismatch(t *testing.T) {
	tests := []struct {
		name           string
		localVersion   string
		serviceVersion string
		wantWarning    bool
	}{
		{"same version", "0.3.0", "0.3.0", false},
		{"different version", "0.3.0", "0.2.0", true},
		{"service dev build", "0.3.0", "dev", false},
		{"local dev build", "dev", "0.3.0", false},
		{"service unknown", "0.3.0", "", false},
		{"local unknown", "", "0.3.0", false},
		{"describe suffix same base", "0.3.0-5-gabcdef", "0.3.0", false},
		{"describe suffix different base", "0.3.0-5-gabcdef", "0.2.0", true},
		{"v prefix same", "v0.3.0", "0.3.0", false},
		{"v prefix different", "v0.3.0", "v0.2.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(ForTesting(tt.localVersion))

			got := CheckVersionMismatch(tt.serviceVersion)
			if tt.wantWarning != (got != "") {
				t.Fatalf("CheckVersionMismatch(%q) = %q, wantWarning %v", tt.serviceVersion, got, tt.wantWarning)
			}
			if tt.wantWarning {
				if !strings.HasPrefix(got, "WARNING: hylauncher ") {
					t.Errorf("warning %q missing expected prefix", got)
				}
				if !strings.Contains(got, "hylauncher serve") {
					t.Errorf("warning %q missing remediation", got)
				}
			}
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"v0.3.0", "0.3.0"},
		{"0.3.0-5-gabcdef", "0.3.0"},
		{"v0.3.0-10-g1234567", "0.3.0"},
		{"0.3.0-rc1", "0.3.0-rc1"},
		{"0.3.0-beta-5-gabcdef", "0.3.0-beta"},
		{"dev", "dev"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeVersion(tt.input); got != tt.want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.3.0", "v0.3.0"},
		{"v0.3.0", "v0.3.0"},
		{"dev", "dev"},
		{"", ""},
		{"1.0.0-rc1", "v1.0.0-rc1"},
	}
	for _, tt := range tests {
		if got := FormatVersion(tt.input); got != tt.want {
			t.Errorf("FormatVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
