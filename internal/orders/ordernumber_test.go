package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march1 = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestNextOrderNumber(t *testing.T) {
	tests := []struct {
		name   string
		latest string
		want   string
	}{
		{name: "first of the day", latest: "", want: "ORD-20250301-0001"},
		{name: "increments", latest: "ORD-20250301-0001", want: "ORD-20250301-0002"},
		{name: "carries", latest: "ORD-20250301-0099", want: "ORD-20250301-0100"},
		{name: "past four digits", latest: "ORD-20250301-9999", want: "ORD-20250301-10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOrderNumber(tt.latest, march1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOrderNumberRejectsMalformed(t *testing.T) {
	for _, latest := range []string{"ORD-20250301", "ORD-2025031-0001", "ORD-20250301-abcd", "20250301-0001"} {
		_, err := NextOrderNumber(latest, march1)
		assert.True(t, errors.Is(err, ErrMalformedOrderNumber), latest)
	}
}

func TestDayPrefixUsesCalendarDayOfLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	lateUTC := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20250301", DayPrefix(lateUTC))
	assert.Equal(t, "ORD-20250302", DayPrefix(lateUTC.In(kolkata)))
}
