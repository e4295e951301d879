package cmd

import "testing"

func TestXPAwards(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"lesson correct", lessonXP(false), 15},
		{"lesson partial rounds up", lessonXP(true), 8},
		{"exam correct", examXP(false), 20},
		{"exam partial", examXP(true), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("xp = %d, want %d", tt.got, tt.want)
			}
		})
	}
}
