package wordpress

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

// dateLayout is the site-local format the REST API expects for "date".
const dateLayout = "2006-01-02T15:04:05"

// ScheduleDate picks tomorrow at a random minute between fromHour:00 and
// toHour:59 in loc.
func ScheduleDate(now time.Time, loc *time.Location, rnd *rand.Rand, fromHour, toHour int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if fromHour < 0 || fromHour > 23 {
		fromHour = 9
	}
	if toHour < fromHour || toHour > 23 {
		toHour = fromHour
	}
	t := now.In(loc).AddDate(0, 0, 1)
	hour := fromHour + rnd.Intn(toHour-fromHour+1)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, rnd.Intn(60), 0, 0, loc)
}

// CategoryID maps a category name to its WordPress id. Unknown or empty names
// use fallback, or the lowest configured id when fallback is zero.
func CategoryID(name string, ids map[string]int, fallback int) int {
	if id, ok := ids[name]; ok {
		return id
	}
	for k, id := range ids {
		if strings.EqualFold(k, name) && name != "" {
			return id
		}
	}
	if fallback != 0 || len(ids) == 0 {
		return fallback
	}
	all := make([]int, 0, len(ids))
	for _, id := range ids {
		all = append(all, id)
	}
	sort.Ints(all)
	return all[0]
}
