package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDefinitionClone verifies that Clone returns an independent copy and handles nil safely.
func TestDefinitionClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Definition)(nil).Clone())

	d := &Definition{
		ID:       7,
		Label:    "Wake up",
		Mode:     At{Anchor: SolarAnchor(Sunrise)},
		Weekdays: WeekdaysOf(time.Monday),
		Enabled:  true,
	}

	c := d.Clone()
	require.Equal(t, d, c)
	require.NotSame(t, d, c)

	c.Weekdays[time.Tuesday] = true
	require.False(t, d.Weekdays.On(time.Tuesday))
}

// TestWeekdays checks set helpers and the one-time detection.
func TestWeekdays(t *testing.T) {
	t.Parallel()

	var none Weekdays
	require.False(t, none.Any())
	require.Empty(t, none.Days())

	w := WeekdaysOf(time.Saturday, time.Sunday)
	require.True(t, w.Any())
	require.True(t, w.On(time.Sunday))
	require.False(t, w.On(time.Monday))
	require.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, w.Days())

	require.Len(t, EveryDay().Days(), 7)
}

// TestUsesSolarEvents verifies detection of solar anchors across modes.
func TestUsesSolarEvents(t *testing.T) {
	t.Parallel()

	explicit := ExplicitAnchor(time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC))

	require.False(t, (&Definition{Mode: At{Anchor: explicit}}).UsesSolarEvents())
	require.True(t, (&Definition{Mode: Before{Anchor: SolarAnchor(Sunrise)}}).UsesSolarEvents())
	require.True(t, (&Definition{Mode: NewBetween(explicit, SolarAnchor(Sunset))}).UsesSolarEvents())
	require.False(t, (&Definition{}).UsesSolarEvents())
}

// TestParseWeekday verifies full and short day names in any case.
func TestParseWeekday(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]time.Weekday{
		"monday":   time.Monday,
		"Sun":      time.Sunday,
		" FRIDAY ": time.Friday,
		"sat":      time.Saturday,
	} {
		got, err := ParseWeekday(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseWeekday("caturday")
	require.ErrorIs(t, err, ErrValidation)

	require.Equal(t, []string{"monday", "friday"}, WeekdaysOf(time.Friday, time.Monday).Names())
	require.Nil(t, Weekdays{}.Names())
}
