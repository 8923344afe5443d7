package models

import "testing"

func TestSeverity(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{1, SeverityLow},
		{7, SeverityLow},
		{8, SeverityMedium},
		{14, SeverityMedium},
		{15, SeverityHigh},
		{100, SeverityHigh},
	}
	for _, tt := range tests {
		if got := Severity(tt.points); got != tt.want {
			t.Errorf("Severity(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestStudentPoints(t *testing.T) {
	zero := 0
	fifty := 50

	tests := []struct {
		name string
		p    *int
		want int
	}{
		{"absent defaults to 100", nil, 100},
		{"stored zero stays zero", &zero, 0},
		{"stored value", &fifty, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Student{DisciplinePoints: tt.p}
			if got := s.Points(); got != tt.want {
				t.Errorf("Points() = %d, want %d", got, tt.want)
			}
		})
	}
}
