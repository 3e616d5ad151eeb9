// Package schedule turns a poll period string into a next-run function.
//
// Supported forms:
//   - Interval duration: "600s", "10m", "2h30m"
//   - Interval HH:MM: "00:10" (10 minutes), "02:30" (2 hours 30 minutes)
//   - Cron (robfig/cron, 5 fields or descriptors): "*/10 * * * *", "@hourly", "@every 10m"
//
// Optional prefixes "cron:" and "interval:"/"every:" force the kind.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Kind int

const (
	KindInterval Kind = iota
	KindCron
)

func (k Kind) String() string {
	if k == KindCron {
		return "cron"
	}
	return "interval"
}

// Spec is a parsed poll period. An interval spec waits a fixed duration after
// each cycle; a cron spec waits until the next matching wall-clock time.
type Spec struct {
	Kind   Kind
	Every  time.Duration
	Cron   string
	Source string // "duration" | "hhmm" | "cron"

	sched cron.Schedule
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// Parse parses a poll period string.
func Parse(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Spec{}, fmt.Errorf("poll period required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseInterval(s[len("interval:"):])
	case strings.HasPrefix(low, "every:"):
		return parseInterval(s[len("every:"):])
	}

	// any whitespace or leading '@' => cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(s)
	}
	if sp, err := parseInterval(s); err == nil {
		return sp, nil
	}
	return Spec{}, fmt.Errorf(
		"invalid poll period %q (use a duration like '600s', HH:MM like '00:10', or cron like '*/10 * * * *')",
		raw,
	)
}

// MustParse is Parse for package-level defaults.
func MustParse(raw string) Spec {
	sp, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return sp
}

func parseCron(expr string) (Spec, error) {
	if expr == "" {
		return Spec{}, fmt.Errorf("cron expression required")
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	sp := Spec{Kind: KindCron, Cron: expr, Source: "cron", sched: sched}
	// "@every 10m" is a fixed delay; keep Every for logging.
	if cd, ok := sched.(cron.ConstantDelaySchedule); ok {
		sp.Every = cd.Delay
	}
	return sp, nil
}

func parseInterval(v string) (Spec, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Spec{}, fmt.Errorf("interval required")
	}
	if m := reHHMM.FindStringSubmatch(v); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return Spec{}, fmt.Errorf("invalid minutes in %q", v)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return Spec{}, fmt.Errorf("interval must be > 0")
		}
		return Spec{Kind: KindInterval, Every: d, Source: "hhmm"}, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid interval %q: %w", v, err)
	}
	if d <= 0 {
		return Spec{}, fmt.Errorf("interval must be > 0")
	}
	return Spec{Kind: KindInterval, Every: d, Source: "duration"}, nil
}

// Next returns the time of the next poll after a cycle finished at now.
func (s Spec) Next(now time.Time) time.Time {
	if s.sched != nil {
		return s.sched.Next(now)
	}
	return now.Add(s.Every)
}

// Delay returns how long to wait after a cycle finished at now.
func (s Spec) Delay(now time.Time) time.Duration {
	return max(0, s.Next(now).Sub(now))
}

func (s Spec) String() string {
	if s.Kind == KindCron {
		return s.Cron
	}
	return s.Every.String()
}
