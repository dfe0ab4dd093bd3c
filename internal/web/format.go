package web

import "time"

const stampLayout = "2006-01-02 15:04:05"

// stamp formats a time or a *time.Time; nil and zero values render as "-".
func stamp(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(stampLayout)
	case *time.Time:
		if t == nil {
			return "-"
		}
		return stamp(*t)
	default:
		return "-"
	}
}
