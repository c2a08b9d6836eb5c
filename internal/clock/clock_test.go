package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockUTC(t *testing.T) {
	now := NewSystem().Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFixedClock(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFixed(base)

	assert.Equal(t, base, clk.Now())
	assert.Equal(t, base, clk.Now())

	clk.Advance(time.Hour)
	assert.Equal(t, base.Add(time.Hour), clk.Now())

	other := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(other)
	assert.Equal(t, other, clk.Now())
}

func TestFixedClockNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2025, 6, 1, 15, 0, 0, 0, loc)

	clk := NewFixed(local)
	assert.Equal(t, time.UTC, clk.Now().Location())
	assert.True(t, clk.Now().Equal(local))
}
