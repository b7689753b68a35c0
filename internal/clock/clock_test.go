package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodBoundaries(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 1, 17, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), StartOfDay(now))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), StartOfWeek(now))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(now))
}

func TestStartOfWeekOnSunday(t *testing.T) {
	sunday := time.Date(2024, 1, 21, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))
}

func TestUUIDGeneratorProducesDistinctIDs(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.New(), g.New()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
