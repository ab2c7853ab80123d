package leave

import (
	"errors"
	"time"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// RequestDays is the calendar span a request covers, halved for Half Day
// requests. It is informational: balances count requests, not days.
func RequestDays(req LeaveRequest) (float64, error) {
	start, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(DateLayout, req.EndDate)
	if err != nil {
		return 0, err
	}
	days, err := CalculateDays(start, end)
	if err != nil {
		return 0, err
	}
	if req.Duration == DurationHalfDay {
		days /= 2
	}
	return days, nil
}
