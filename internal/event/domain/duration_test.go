package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1h 30m", 90},
		{"1h30", 90},
		{"1:30", 90},
		{"0:45", 45},
		{"2", 120},
		{"2 horas", 120},
		{"1 hora", 60},
		{"45m", 45},
		{"45 minutos", 45},
		{"90m", 90},
		{"1.5h", 90},
		{"1,5", 90},
		{"", 0},
		{"   ", 0},
		{"garbage", 0},
		{"o dia todo", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDurationMinutes(tt.input))
		})
	}
}

func TestParseDurationHours(t *testing.T) {
	assert.InDelta(t, 1.5, ParseDurationHours("1h 30m"), 1e-9)
	assert.Zero(t, ParseDurationHours("garbage"))
}

func TestEventEndsAt(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	withDuration := Event{Date: start, Duration: "2h"}
	assert.Equal(t, start.Add(2*time.Hour), withDuration.EndsAt())

	// Unparsable duration contributes zero.
	noDuration := Event{Date: start, Duration: "a combinar"}
	assert.Equal(t, start, noDuration.EndsAt())
}
