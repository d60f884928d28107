package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Command tags the assistant may emit when a conversation has gathered every
// slot a booking needs. A tag line is followed by "Key: value" lines.
const (
	TagBookAppointment  = "BOOK_APPOINTMENT"
	TagBookSubscription = "BOOK_SUBSCRIPTION"
	TagRequestPitchDeck = "REQUEST_PITCH_DECK"
)

var commandTagRE = regexp.MustCompile(`\*\*(BOOK_APPOINTMENT|BOOK_SUBSCRIPTION|REQUEST_PITCH_DECK)\*\*`)

// ParseCommand scans an assistant reply for an embedded command block and, if
// present, decodes it into an Intent. The returned text is the reply with the
// block stripped, suitable for display. ok is false when no block is found.
func ParseCommand(reply string) (parsed Intent, text string, ok bool) {
	loc := commandTagRE.FindStringSubmatchIndex(reply)
	if loc == nil {
		return Intent{Kind: KindNone}, reply, false
	}

	tag := reply[loc[2]:loc[3]]
	before := reply[:loc[0]]
	block := reply[loc[1]:]
	fields, rest := parseFields(block)

	text = strings.TrimSpace(before + rest)

	switch tag {
	case TagBookAppointment:
		duration, _ := strconv.Atoi(fields["duration"])
		parsed = Intent{Kind: KindAppointment, Appointment: &Appointment{
			Date:            fields["date"],
			StartTime:       fields["time"],
			DurationMinutes: duration,
			ContactName:     fieldOrEmpty(fields, "name"),
			ContactEmail:    fieldOrEmpty(fields, "email"),
			ContactPhone:    fieldOrEmpty(fields, "phone"),
		}}
	case TagBookSubscription:
		parsed = Intent{Kind: KindSubscription, Subscription: &Subscription{
			Plan:  strings.ToLower(fields["plan"]),
			Name:  fieldOrEmpty(fields, "name"),
			Email: fieldOrEmpty(fields, "email"),
			Phone: fieldOrEmpty(fields, "phone"),
		}}
	case TagRequestPitchDeck:
		project := fields["project"]
		if canonical, found := Projects[strings.ToLower(project)]; found {
			project = canonical
		}
		parsed = Intent{Kind: KindPitchDeck, PitchDeck: &PitchDeck{
			Project: project,
			Name:    fieldOrEmpty(fields, "name"),
			Email:   fieldOrEmpty(fields, "email"),
			Phone:   fieldOrEmpty(fields, "phone"),
			Role:    fieldOrEmpty(fields, "role"),
		}}
	}
	return parsed, text, true
}

// parseFields decodes the "Key: value" lines following a tag. Commentary the
// assistant interleaves inside the block is skipped rather than ending the
// scan, so fields after a stray sentence still parse. Everything after the
// last field line is returned as trailing prose for display.
func parseFields(block string) (map[string]string, string) {
	fields := make(map[string]string)
	lines := strings.Split(block, "\n")

	lastField := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Contains(trimmed, "**") {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found || strings.ContainsAny(key, " \t") {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
		lastField = i
	}
	return fields, strings.Join(lines[lastField+1:], "\n")
}

// fieldOrEmpty treats the "Not provided" placeholder the assistant uses for
// unknown contact details as an absent value.
func fieldOrEmpty(fields map[string]string, key string) string {
	value := fields[key]
	if strings.EqualFold(value, "not provided") {
		return ""
	}
	return value
}
