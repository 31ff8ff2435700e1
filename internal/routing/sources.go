package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm-telephony/internal/calls"
	"crm-telephony/internal/phonelines"

	"github.com/redis/go-redis/v9"
)

// BusinessHours reports a line as offline outside a weekly window.
// The window is [Start, End) on each listed day, in Location. Start after End
// means an overnight window (e.g. 22:00-06:00). Start equal to End keeps the
// listed days open around the clock.
type BusinessHours struct {
	days     map[string]bool
	start    int // minutes since midnight
	end      int
	location *time.Location

	Now func() time.Time
}

func NewBusinessHours(days []string, start, end, timezone string) (*BusinessHours, error) {
	sh, sm, ok := parseHHMM(start)
	if !ok {
		return nil, fmt.Errorf("routing: invalid business hours start %q", start)
	}
	eh, em, ok := parseHHMM(end)
	if !ok {
		return nil, fmt.Errorf("routing: invalid business hours end %q", end)
	}
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("routing: loading timezone %q: %w", timezone, err)
	}

	b := &BusinessHours{
		days:     make(map[string]bool, len(days)),
		start:    sh*60 + sm,
		end:      eh*60 + em,
		location: loc,
		Now:      time.Now,
	}
	for _, d := range days {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) < 3 {
			return nil, fmt.Errorf("routing: invalid business day %q", d)
		}
		b.days[d[:3]] = true
	}
	return b, nil
}

// Flag is true when the line is outside business hours.
func (b *BusinessHours) Flag(context.Context, phonelines.PhoneLine, calls.Event) (bool, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return !b.Open(now()), nil
}

// Open reports whether t falls inside the business window.
func (b *BusinessHours) Open(t time.Time) bool {
	t = t.In(b.location)
	if !b.days[strings.ToLower(t.Weekday().String()[:3])] {
		return false
	}
	if b.start == b.end {
		return true
	}
	m := t.Hour()*60 + t.Minute()
	if b.start > b.end {
		return m >= b.start || m < b.end
	}
	return m >= b.start && m < b.end
}

func parseHHMM(s string) (int, int, bool) {
	var h, m int
	n, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// SeenCallers marks a caller as new the first time they call a line within Window.
// Presence is tracked in Redis with SET NX; anonymous callers are always new.
type SeenCallers struct {
	Redis  redis.UniversalClient
	Window time.Duration
}

func (s SeenCallers) Flag(ctx context.Context, line phonelines.PhoneLine, ev calls.Event) (bool, error) {
	from := strings.TrimSpace(ev.From)
	if from == "" || strings.EqualFold(from, "anonymous") {
		return true, nil
	}
	key := "routing:seen:" + line.ID + ":" + from
	created, err := s.Redis.SetNX(ctx, key, 1, s.Window).Result()
	if err != nil {
		return false, fmt.Errorf("routing: seen callers: %w", err)
	}
	return created, nil
}
