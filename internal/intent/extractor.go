package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot extraction patterns. Extraction is best-effort: absent fields are
// simply omitted and the completeness check downstream decides whether the
// intent is executable.
var (
	dateRE = regexp.MustCompile(`(?i)(?:\b(?:on|for)\s+)?\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|today|tomorrow|yesterday|(?:next|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)|(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)

	timeRangeRE  = regexp.MustCompile(`(?i)(?:from\s+)?(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})\s*(?:until|to|-)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})`)
	singleTimeRE = regexp.MustCompile(`(?i)\b(?:at|for)\s+(\d{1,2}:\d{2}|\d{1,2}\s*(?:am|pm))`)
	durationRE   = regexp.MustCompile(`(?i)(?:for|lasting)\s+(\d+)\s*(minutes?|mins?|hours?|hrs?)`)

	planRE    = regexp.MustCompile(`(?i)\b(basic|standard|premium)\b`)
	projectRE = regexp.MustCompile(`(?i)\b(galowclub|perspectiv)\b`)
	roleRE    = regexp.MustCompile(`(?i)(?:role|title|position|i'?m an?|i am an?)\s+([a-zA-Z]+(?: [a-zA-Z]+)*)`)

	nameRE  = regexp.MustCompile(`(?i)\b(?:my name is|name is|call me|i'?m)\s+([a-zA-Z]+(?: [a-zA-Z]+)*)`)
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?[0-9][0-9\s().\-]{8,}[0-9]`)

	weekdays = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

// Contact is the kind-independent contact information found in a message.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// ExtractSlots parses a classified message into a partial intent for the
// given kind. now anchors relative date resolution ("tomorrow", weekdays).
// Extraction never fails; missing slots are left at their zero values.
func ExtractSlots(message string, kind Kind, now time.Time) Intent {
	switch kind {
	case KindAppointment:
		appt := extractAppointment(message, now)
		return Intent{Kind: kind, Appointment: &appt}
	case KindSubscription:
		sub := extractSubscription(message)
		return Intent{Kind: kind, Subscription: &sub}
	case KindPitchDeck:
		deck := extractPitchDeck(message)
		return Intent{Kind: kind, PitchDeck: &deck}
	default:
		return Intent{Kind: KindNone}
	}
}

func extractAppointment(message string, now time.Time) Appointment {
	appt := Appointment{}

	if m := dateRE.FindStringSubmatch(message); m != nil {
		appt.Date = normalizeDate(m[1], now)
	}

	// A time range both fixes the start time and derives the duration, so it
	// is checked before single-time and explicit-duration phrases.
	if m := timeRangeRE.FindStringSubmatch(message); m != nil {
		start := convertTo24Hour(m[1])
		end := convertTo24Hour(m[2])
		appt.StartTime = start
		appt.DurationMinutes = durationFromRange(start, end)
	} else {
		if m := singleTimeRE.FindStringSubmatch(message); m != nil {
			appt.StartTime = convertTo24Hour(m[1])
		}
		if m := durationRE.FindStringSubmatch(message); m != nil {
			value, _ := strconv.Atoi(m[1])
			if unit := strings.ToLower(m[2]); strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr") {
				value *= 60
			}
			appt.DurationMinutes = value
		}
	}

	contact := ExtractContact(message)
	appt.ContactName = contact.Name
	appt.ContactEmail = contact.Email
	appt.ContactPhone = contact.Phone
	return appt
}

func extractSubscription(message string) Subscription {
	sub := Subscription{}
	if m := planRE.FindStringSubmatch(message); m != nil {
		sub.Plan = strings.ToLower(m[1])
	}
	contact := ExtractContact(message)
	sub.Name = contact.Name
	sub.Email = contact.Email
	sub.Phone = contact.Phone
	return sub
}

func extractPitchDeck(message string) PitchDeck {
	deck := PitchDeck{}
	if m := projectRE.FindStringSubmatch(message); m != nil {
		deck.Project = Projects[strings.ToLower(m[1])]
	}
	if m := roleRE.FindStringSubmatch(message); m != nil {
		deck.Role = strings.TrimSpace(m[1])
	}
	contact := ExtractContact(message)
	deck.Name = contact.Name
	deck.Email = contact.Email
	deck.Phone = contact.Phone
	return deck
}

// ExtractContact pulls the optional name/email/phone slots from free text.
// These are overridable by a caller-supplied profile at execution time.
func ExtractContact(message string) Contact {
	c := Contact{}
	if m := nameRE.FindStringSubmatch(message); m != nil {
		c.Name = strings.TrimSpace(m[1])
	}
	if m := emailRE.FindString(message); m != "" {
		c.Email = strings.ToLower(m)
	}
	if m := phoneRE.FindString(message); m != "" {
		c.Phone = strings.TrimSpace(m)
	}
	return c
}

// normalizeDate converts the matched date token to YYYY-MM-DD.
func normalizeDate(token string, now time.Time) string {
	lower := strings.ToLower(strings.TrimSpace(token))

	switch lower {
	case "today":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	case "yesterday":
		return now.AddDate(0, 0, -1).Format("2006-01-02")
	}

	if day, rest, found := strings.Cut(lower, " "); found {
		if wd, ok := weekdays[rest]; ok {
			return resolveWeekday(now, wd, day == "next").Format("2006-01-02")
		}
	}
	if wd, ok := weekdays[lower]; ok {
		return resolveWeekday(now, wd, false).Format("2006-01-02")
	}

	if strings.Contains(lower, "/") {
		return normalizeNumericDate(strings.Split(lower, "/"))
	}
	if strings.Contains(lower, "-") {
		return normalizeNumericDate(strings.Split(lower, "-"))
	}
	return ""
}

// resolveWeekday finds the upcoming occurrence of target. "this monday" on a
// Monday resolves to today; "next monday" always lands at least a week out
// when today already is that weekday.
func resolveWeekday(now time.Time, target time.Weekday, next bool) time.Time {
	days := (int(target) - int(now.Weekday()) + 7) % 7
	if next && days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

// normalizeNumericDate handles YYYY-MM-DD, MM/DD/YYYY and DD/MM/YYYY forms.
// When the first component exceeds 12 the date is read as day-first.
func normalizeNumericDate(parts []string) string {
	if len(parts) != 3 {
		return ""
	}
	if len(parts[0]) == 4 {
		return fmt.Sprintf("%s-%s-%s", parts[0], pad2(parts[1]), pad2(parts[2]))
	}
	month, day := parts[0], parts[1]
	if v, err := strconv.Atoi(month); err == nil && v > 12 {
		month, day = day, month
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], pad2(month), pad2(day))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// convertTo24Hour normalizes "2pm", "2:30 pm" and "14:00" to HH:MM.
func convertTo24Hour(timeStr string) string {
	lower := strings.ToLower(strings.TrimSpace(timeStr))
	isPM := strings.Contains(lower, "pm")
	isAM := strings.Contains(lower, "am")

	lower = strings.TrimSpace(strings.NewReplacer("am", "", "pm", "").Replace(lower))
	hourStr, minuteStr, found := strings.Cut(lower, ":")
	if !found {
		minuteStr = "00"
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
	if err != nil {
		return ""
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minuteStr))
	if err != nil {
		minute = 0
	}

	if isPM && hour != 12 {
		hour += 12
	}
	if isAM && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// durationFromRange derives minutes between two HH:MM times, rolling over
// midnight when the end lands on the next day. Non-positive results fall
// back to 60 minutes rather than producing an invalid booking.
func durationFromRange(start, end string) int {
	startMin, okStart := minutesOfDay(start)
	endMin, okEnd := minutesOfDay(end)
	if !okStart || !okEnd {
		return 60
	}

	duration := endMin - startMin
	if duration < 0 {
		duration += 24 * 60
	}
	if duration <= 0 {
		return 60
	}
	return duration
}

func minutesOfDay(hhmm string) (int, bool) {
	hourStr, minuteStr, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}
