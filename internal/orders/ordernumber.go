package orders

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const orderNumberDateLayout = "20060102"

// ErrMalformedOrderNumber is returned when a stored order number cannot be
// parsed back into its date and sequence
var ErrMalformedOrderNumber = errors.New("malformed order number")

var orderNumberPattern = regexp.MustCompile(`^ORD-(\d{8})-(\d+)$`)

// DayPrefix returns "ORD-YYYYMMDD" for the calendar day of t
func DayPrefix(t time.Time) string {
	return "ORD-" + t.Format(orderNumberDateLayout)
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNNN
func FormatOrderNumber(day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%04d", DayPrefix(day), sequence)
}

// ParseSequence extracts the daily sequence from an order number
func ParseSequence(orderNumber string) (int, error) {
	m := orderNumberPattern.FindStringSubmatch(orderNumber)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOrderNumber, orderNumber)
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOrderNumber, orderNumber)
	}
	return seq, nil
}

// NextOrderNumber returns the number following latest on day.
// An empty latest starts the day at 0001.
func NextOrderNumber(latest string, day time.Time) (string, error) {
	if latest == "" {
		return FormatOrderNumber(day, 1), nil
	}
	seq, err := ParseSequence(latest)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(day, seq+1), nil
}
