package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"60s", time.Minute, false},
		{"1m30s", 90 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{" 2h ", 2 * time.Hour, false},
		{"10min", 10 * time.Minute, false},
		{"3hrs", 3 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"0s", 0, true},
		{"-5m", 0, true},
		{"0d", 0, true},
		{"", 0, true},
		{"invalid", 0, true},
		{"5fortnights", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
