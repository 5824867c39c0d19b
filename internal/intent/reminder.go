package intent

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadReminder is returned when a reminder phrase does not follow
// "remind me to <task> in <n> seconds|minutes|hours".
var ErrBadReminder = errors.New("malformed reminder phrase")

// ReminderUsage is the hint spoken after ErrBadReminder.
const ReminderUsage = "Specify reminder as 'Remind me to [task] in [number] minutes/seconds/hours'."

var reminderPattern = regexp.MustCompile(`remind me to (.+?) in (\d+) (seconds?|minutes?|hours?)`)

// ParseReminder extracts the task and delay from a reminder phrase. The
// grammar is exact: no alternate phrasings and no combined units.
func ParseReminder(phrase string) (task string, delay time.Duration, err error) {
	m := reminderPattern.FindStringSubmatch(phrase)
	if m == nil {
		return "", 0, ErrBadReminder
	}

	task = strings.TrimSpace(m[1])
	if task == "" {
		return "", 0, ErrBadReminder
	}

	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || n <= 0 {
		return "", 0, ErrBadReminder
	}

	unit := time.Second
	switch strings.TrimSuffix(m[3], "s") {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	}
	if n > math.MaxInt64/int64(unit) {
		return "", 0, ErrBadReminder
	}

	return task, time.Duration(n) * unit, nil
}
