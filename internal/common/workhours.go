package common

import (
	"fmt"
	"time"
)

// WorkHours проверяет, попадает ли момент времени в рабочее окно компании.
type WorkHours struct {
	startMinute int
	endMinute   int
	location    *time.Location
}

func NewWorkHours(start, end, timezone string) (*WorkHours, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("ошибка при загрузке часового пояса %s: %w", timezone, err)
	}

	startMinute, err := parseClock(start)
	if err != nil {
		return nil, err
	}

	endMinute, err := parseClock(end)
	if err != nil {
		return nil, err
	}

	return &WorkHours{
		startMinute: startMinute,
		endMinute:   endMinute,
		location:    location,
	}, nil
}

func (w *WorkHours) IsWorking(now time.Time) bool {
	local := now.In(w.location)
	minute := local.Hour()*60 + local.Minute()

	return minute >= w.startMinute && minute <= w.endMinute
}

func (w *WorkHours) Location() *time.Location {
	return w.location
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("ошибка при разборе времени %q: %w", value, err)
	}

	return parsed.Hour()*60 + parsed.Minute(), nil
}

// FormatElapsed переводит длительность в формат "Xч Yм" или "Yм".
func FormatElapsed(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dч %dм", hours, minutes)
	}

	return fmt.Sprintf("%dм", minutes)
}

// FormatMinutes переводит минуты в формат "X ч Y м" или "Y м".
func FormatMinutes(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%d ч %d м", hours, mins)
	}

	return fmt.Sprintf("%d м", mins)
}
