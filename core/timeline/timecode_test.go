package timeline

import "testing"

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59.9, "0:59"},
		{60, "1:00"},
		{125.4, "2:05"},
		{300, "5:00"},
		{-3, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatTimecode(tt.seconds); got != tt.want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
