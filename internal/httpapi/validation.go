package httpapi

import (
	"fmt"
	"strconv"
	"strings"

	"StagePasswebserver/internal/domain"
)

// parseClockTime parses a "HH:MM" wall-clock time.
func parseClockTime(s string) (domain.TimeOfDay, bool) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return domain.TimeOfDay{}, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return domain.TimeOfDay{}, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return domain.TimeOfDay{}, false
	}
	return domain.TimeOfDay{Hour: hour, Minute: minute}, true
}

func formatClock(t domain.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func formatClockPtr(t *domain.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	out := formatClock(*t)
	return &out
}
