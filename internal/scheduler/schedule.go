// Package scheduler decides which collection job a clock tick maps to.
package scheduler

import "time"

// Job identifies a collection job on the schedule.
type Job string

const (
	JobNone      Job = ""
	JobVideos    Job = "videos"
	JobShorts    Job = "shorts"
	JobCountries Job = "countries"
	JobCreators  Job = "creators"
)

// JobForTime maps a wall-clock instant to the job due at that instant. The
// schedule is fixed and evaluated in UTC:
//
//	:00, :30        videos (global + categories, with stat refresh)
//	:15, :45        shorts
//	:05             countries
//	:10 every 12h   creators (00:10 and 12:10)
//
// Any other minute maps to JobNone. Creators wins its overlap with the hourly
// grid by being checked first, mirroring the dispatch order the schedule was
// designed around.
func JobForTime(t time.Time) Job {
	utc := t.UTC()
	minute := utc.Minute()
	hour := utc.Hour()

	switch {
	case minute == 10 && hour%12 == 0:
		return JobCreators
	case minute == 5:
		return JobCountries
	case minute == 0 || minute == 30:
		return JobVideos
	case minute == 15 || minute == 45:
		return JobShorts
	default:
		return JobNone
	}
}
