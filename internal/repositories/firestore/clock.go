package firestore

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/lumina-studio/api/internal/domain"
)

// formatClock renders an hour:minute instant as "HH:MM" for storage.
func formatClock(c domain.ClockTime) string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// parseClock reads "HH:MM", tolerating malformed values as midnight.
func parseClock(value string) domain.ClockTime {
	hourPart, minutePart, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return domain.ClockTime{}
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return domain.ClockTime{}
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return domain.ClockTime{}
	}
	return domain.ClockTime{Hour: hour, Minute: minute}
}
