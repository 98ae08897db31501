package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"coco/internal/cocoerr"
)

var weekdayNum = map[string]int{
	"sunday": 0, "sun": 0,
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
}

var (
	reRawCron       = regexp.MustCompile(`^\S+\s+\S+\s+\S+\s+\S+\s+\S+$`)
	reEveryNMinutes = regexp.MustCompile(`(?i)^every\s+(\d+)\s+minutes?$`)
	reEveryNHours   = regexp.MustCompile(`(?i)^every\s+(\d+)\s+hours?$`)
	reDailyAt       = regexp.MustCompile(`(?i)^(?:every\s*day|daily)\s+at\s+(.+)$`)
	reWeekdayAt     = regexp.MustCompile(`(?i)^every\s+weekday\s+at\s+(.+)$`)
	reNamedDayAt    = regexp.MustCompile(`(?i)^every\s+([a-z]+)\s+at\s+(.+)$`)
	reFirstOfMonth  = regexp.MustCompile(`(?i)^first\s+day\s+of\s+month\s+at\s+(.+)$`)
	reLastOfMonth   = regexp.MustCompile(`(?i)^last\s+day\s+of\s+month\s+at\s+(.+)$`)
	reClock         = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// ParseSchedule canonicalizes a schedule expression (natural-language or raw
// 5-field cron) into a cron string gronx can evaluate. timezone is recorded
// alongside but not folded into the cron expression itself.
func ParseSchedule(text string) (cronExpr string, err error) {
	t := strings.TrimSpace(text)

	if reRawCron.MatchString(t) && !looksLikePhrase(t) {
		if gronx.IsValid(t) {
			return t, nil
		}
	}

	if m := reEveryNMinutes.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 0 {
			return "", cocoerr.New(cocoerr.InvalidInput, "every N minutes requires N > 0")
		}
		return fmt.Sprintf("*/%d * * * *", n), nil
	}
	if m := reEveryNHours.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 0 {
			return "", cocoerr.New(cocoerr.InvalidInput, "every N hours requires N > 0")
		}
		return fmt.Sprintf("0 */%d * * *", n), nil
	}
	if m := reDailyAt.FindStringSubmatch(t); m != nil {
		min, hour, err := parseClock(m[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * *", min, hour), nil
	}
	if m := reWeekdayAt.FindStringSubmatch(t); m != nil {
		min, hour, err := parseClock(m[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * 1-5", min, hour), nil
	}
	if m := reFirstOfMonth.FindStringSubmatch(t); m != nil {
		min, hour, err := parseClock(m[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d 1 * *", min, hour), nil
	}
	if m := reLastOfMonth.FindStringSubmatch(t); m != nil {
		min, hour, err := parseClock(m[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d L * *", min, hour), nil
	}
	if m := reNamedDayAt.FindStringSubmatch(t); m != nil {
		dow, ok := weekdayNum[strings.ToLower(m[1])]
		if ok {
			min, hour, err := parseClock(m[2])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d %d * * %d", min, hour, dow), nil
		}
	}

	return "", cocoerr.New(cocoerr.InvalidInput, "unrecognized schedule expression: "+text)
}

// looksLikePhrase rejects natural-language sentences that happen to have
// five whitespace-separated words from being misread as raw cron.
func looksLikePhrase(t string) bool {
	for _, w := range strings.Fields(t) {
		if regexp.MustCompile(`[a-zA-Z]{2,}`).MatchString(w) {
			return true
		}
	}
	return false
}

func parseClock(s string) (minute, hour int, err error) {
	s = strings.TrimSpace(s)
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, cocoerr.New(cocoerr.InvalidInput, "unrecognized time of day: "+s)
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, cocoerr.New(cocoerr.InvalidInput, "time of day out of range: "+s)
	}
	return minute, hour, nil
}

// NextRunAt returns the smallest time strictly after after that matches
// cronExpr, evaluated in loc.
func NextRunAt(cronExpr string, after time.Time, loc *time.Location) (time.Time, error) {
	ref := after.Add(time.Second).In(loc)
	next, err := gronx.NextTickAfter(cronExpr, ref, true)
	if err != nil {
		return time.Time{}, cocoerr.Wrap(cocoerr.InvalidInput, "compute next run", err)
	}
	return next, nil
}
