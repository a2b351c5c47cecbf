package coordinator

import "time"

// DefaultWindowDays is the width of the default extraction window when
// the caller gives neither explicit bounds nor a days-back count.
const DefaultWindowDays = 7

// WindowRequest is the caller-facing shape of a trigger's window
// arguments: any of the three may be omitted (nil).
type WindowRequest struct {
	Start    *time.Time
	End      *time.Time
	DaysBack *int
}

// resolveWindow applies spec.md §4.8's window-defaulting rules: end
// defaults to the start of tomorrow (UTC); start defaults to end minus
// DaysBack if given, else end minus defaultDays (0 means
// DefaultWindowDays, the package-level fallback used when the
// deployment's config.Config carries no override).
func resolveWindow(req WindowRequest, now func() time.Time, defaultDays int) (start, end time.Time) {
	if req.End != nil {
		end = req.End.UTC()
	} else {
		today := now().UTC()
		end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}

	if req.Start != nil {
		start = req.Start.UTC()
		return start, end
	}

	days := defaultDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	if req.DaysBack != nil {
		days = *req.DaysBack
	}
	start = end.AddDate(0, 0, -days)
	return start, end
}
