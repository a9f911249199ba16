package handler

import "time"

// SetClock pins the reports handler's notion of now.
func SetClock(h *ReportsHandler, now func() time.Time) {
	h.now = now
}
