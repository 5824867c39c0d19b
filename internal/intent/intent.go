// Package intent classifies a recognized utterance into the action the
// assistant should take. Classification is a pure function of the
// utterance and the configured default city.
package intent

import (
	"regexp"
	"strings"
	"time"
)

// Kind names the action category of an utterance.
type Kind string

const (
	KindExit          Kind = "exit"
	KindTime          Kind = "time"
	KindDate          Kind = "date"
	KindWeather       Kind = "weather"
	KindReminder      Kind = "reminder"
	KindEmail         Kind = "email"
	KindDeviceControl Kind = "device_control"
	KindOpenTarget    Kind = "open_target"
	KindFallback      Kind = "fallback"
)

// Intent is the classified form of one utterance. Only the fields
// relevant to Kind are set.
type Intent struct {
	Kind Kind `json:"kind"`

	// Text is the normalized utterance that produced the intent.
	Text string `json:"text"`

	// City is the weather location (KindWeather).
	City string `json:"city,omitempty"`

	// Task and Delay are the parsed reminder (KindReminder). Task is
	// empty when the phrase does not follow ReminderUsage.
	Task  string        `json:"task,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`

	// Command is the verbatim device payload (KindDeviceControl).
	Command string `json:"command,omitempty"`

	// Target is the application or site to open (KindOpenTarget).
	Target string `json:"target,omitempty"`
}

// Rule is one entry of the ordered classification chain.
type Rule struct {
	Kind Kind

	// Match reports whether the rule applies to the utterance.
	Match func(utterance string) bool

	// Build fills rule-specific fields. Nil means only Kind and Text.
	Build func(utterance string, in *Intent)
}

// cityPattern captures one word of letters, digits or underscores,
// accented letters included.
var cityPattern = regexp.MustCompile(`in ([\p{L}\p{N}_]+)`)

// Rules returns the classification chain in priority order. Keywords
// are not mutually exclusive ("what day and time is it" mentions both
// time and date), so the order is the disambiguation policy. The last
// rule always matches.
func Rules(defaultCity string) []Rule {
	return []Rule{
		{Kind: KindExit, Match: containsAny("exit", "quit", "stop")},
		{Kind: KindTime, Match: containsAny("time")},
		{Kind: KindDate, Match: containsAny("date", "day")},
		{
			Kind:  KindWeather,
			Match: containsAny("weather"),
			Build: func(u string, in *Intent) {
				in.City = defaultCity
				if m := cityPattern.FindStringSubmatch(u); m != nil {
					in.City = m[1]
				}
			},
		},
		{
			Kind:  KindReminder,
			Match: containsAny("remind me to"),
			Build: func(u string, in *Intent) {
				if task, delay, err := ParseReminder(u); err == nil {
					in.Task, in.Delay = task, delay
				}
			},
		},
		{Kind: KindEmail, Match: containsAny("email")},
		{
			Kind:  KindDeviceControl,
			Match: containsAny("turn on", "turn off"),
			Build: func(u string, in *Intent) { in.Command = u },
		},
		{
			Kind:  KindOpenTarget,
			Match: containsAny("open"),
			Build: func(u string, in *Intent) {
				in.Target = strings.TrimSpace(strings.ReplaceAll(u, "open", ""))
			},
		},
		{Kind: KindFallback, Match: func(string) bool { return true }},
	}
}

// Normalize lowercases and trims recognized text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Apply builds the Intent for an utterance the rule matched.
func (r Rule) Apply(utterance string) Intent {
	in := Intent{Kind: r.Kind, Text: utterance}
	if r.Build != nil {
		r.Build(utterance, &in)
	}
	return in
}

// Classify returns the intent of the first matching rule. It reports
// false for an empty utterance, which produces no intent at all.
func Classify(rules []Rule, utterance string) (Intent, bool) {
	u := Normalize(utterance)
	if u == "" {
		return Intent{}, false
	}
	for _, r := range rules {
		if r.Match(u) {
			return r.Apply(u), true
		}
	}
	return Intent{Kind: KindFallback, Text: u}, true
}

func containsAny(keywords ...string) func(string) bool {
	return func(u string) bool {
		for _, k := range keywords {
			if strings.Contains(u, k) {
				return true
			}
		}
		return false
	}
}
