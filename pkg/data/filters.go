package data

import "time"

// Until drops points dated after t, so a snapshot never sees future closes
func (h History) Until(t time.Time) History {
	out := make(History, len(h))
	for symbol, points := range h {
		end := len(points)
		for end > 0 && points[end-1].Date.After(t) {
			end--
		}
		if end > 0 {
			out[symbol] = points[:end:end]
		}
	}
	return out
}

// FilterByPeriod keeps, per symbol, the points within period of that symbol's latest date
func (h History) FilterByPeriod(period time.Duration) History {
	if period <= 0 {
		return h
	}
	out := make(History, len(h))
	for symbol, points := range h {
		if len(points) == 0 {
			continue
		}
		cutoff := points[len(points)-1].Date.Add(-period)
		start := 0
		for start < len(points) && points[start].Date.Before(cutoff) {
			start++
		}
		out[symbol] = points[start:]
	}
	return out
}
