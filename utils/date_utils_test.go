package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"même instant", base, base, 0},
		{"jour partiel tronqué", base, base.Add(23*time.Hour + 59*time.Minute), 0},
		{"jour entier", base, base.Add(24 * time.Hour), 1},
		{"trois jours et demi", base, base.Add(84 * time.Hour), 3},
		{"ordre inversé", base.Add(48 * time.Hour), base, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("2026-05-10"))
	assert.True(t, IsValidDate("2026-05-10T08:00:00Z"))
	assert.True(t, IsValidDate("2026-05-10T08:00:00+02:00"))
	assert.False(t, IsValidDate(""))
	assert.False(t, IsValidDate("10/05/2026"))
}
