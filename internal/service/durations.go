package service

import (
	"time"

	"github.com/sosodev/duration"
)

// parseDuration 解析 ISO-8601 时长；nil 视为零。年/月长度不固定，不接受。
func parseDuration(field string, iso *string) (time.Duration, error) {
	if iso == nil {
		return 0, nil
	}
	d, err := duration.Parse(*iso)
	if err != nil {
		return 0, invalidf("%s %q is not an ISO-8601 duration", field, *iso)
	}
	if d.Negative {
		return 0, invalidf("%s must not be negative", field)
	}
	if d.Years != 0 || d.Months != 0 {
		return 0, invalidf("%s must not use years or months", field)
	}
	td := d.ToTimeDuration()
	if td < 0 {
		return 0, invalidf("%s must not be negative", field)
	}
	return td, nil
}

func formatDuration(d time.Duration) string {
	return duration.FromTimeDuration(d).String()
}
