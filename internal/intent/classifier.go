package intent

import (
	"regexp"
	"strings"
)

// Informational question patterns. These take precedence over every booking
// pattern: FAQ-style phrasing always routes to the LLM, never to a booking.
var informationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what.*(?:subject|topic|cover|include|about|offer|service|consultation|session|plan|subscription|coaching|galowclub|perspectiv|pitch|project)`),
	regexp.MustCompile(`(?i)how.*(?:work|process|consultation|session|coaching|plan|subscription|galowclub|perspectiv)`),
	regexp.MustCompile(`(?i)tell me about`),
	regexp.MustCompile(`(?i)explain`),
	regexp.MustCompile(`(?i)describe`),
	regexp.MustCompile(`(?i)can you.*(?:tell|explain|describe)`),
	regexp.MustCompile(`(?i)which.*(?:subject|topic|service|plan|subscription|coaching)`),
	regexp.MustCompile(`(?i)do you.*(?:cover|offer|provide)`),
	regexp.MustCompile(`(?i)what kind of`),
	regexp.MustCompile(`(?i)what type of`),
	regexp.MustCompile(`(?i)information about`),
	regexp.MustCompile(`(?i)learn about`),
	regexp.MustCompile(`(?i)know about`),
	regexp.MustCompile(`(?i)details about`),
	regexp.MustCompile(`(?i)difference between.*(?:plan|coaching)`),
	regexp.MustCompile(`(?i)compare.*(?:plan|coaching)`),
}

// Appointment booking patterns, tried only after the informational gate.
var appointmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:want to|would like to|need to|can i).*(?:schedule|book|reserve|arrange)`),
	regexp.MustCompile(`(?i)(?:schedule|book|reserve|arrange).*(?:appointment|meeting|consultation|session|call)`),
	regexp.MustCompile(`(?i)(?:schedule|book|reserve).*(?:for|on|at).*(?:tomorrow|today|next week|this week|\d{1,2}:\d{2}|\d{1,2}\s*(?:am|pm))`),
	regexp.MustCompile(`(?i)(?:available|free).*(?:for|on).*(?:appointment|meeting|consultation)`),
	regexp.MustCompile(`(?i)(?:appointment|meeting|consultation).*(?:for|on|at).*(?:tomorrow|today|next week|this week|\d{1,2}:\d{2}|\d{1,2}\s*(?:am|pm))`),
	regexp.MustCompile(`(?i)(?:set up|organize).*(?:appointment|meeting|consultation|session)`),
	regexp.MustCompile(`(?i)i (?:want to|would like to|need to).*(?:have|get).*(?:appointment|consultation|meeting|session)`),
}

// subscriptionVocabulary disqualifies a message from appointment detection:
// "book a coaching consultation" must route to the subscription flow, not
// the appointment flow.
var subscriptionVocabulary = []string{"coaching", "subscription", "subscribe", "premium", "basic", "standard"}

var subscriptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:want to|would like to|need to|can i).*(?:subscribe|sign up|join).*(?:coaching|plan)`),
	regexp.MustCompile(`(?i)(?:subscribe|sign up|join).*(?:to|for).*(?:coaching|plan|premium|basic|standard)`),
	regexp.MustCompile(`(?i)(?:want|would like|need|get).*(?:premium|basic|standard).*(?:coaching|plan)`),
	regexp.MustCompile(`(?i)(?:premium|basic|standard).*(?:coaching|plan).*(?:please|subscription)`),
	regexp.MustCompile(`(?i)i (?:want|would like|need).*(?:premium|basic|standard)`),
	regexp.MustCompile(`(?i)(?:get|start).*(?:coaching|subscription|plan)`),
	regexp.MustCompile(`(?i)(?:monthly|pay|payment).*(?:coaching|plan)`),
	regexp.MustCompile(`(?i)(?:coaching|plan).*(?:monthly|subscription)`),
}

var pitchDeckPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:want to|would like to|need to|can i).*(?:request|get|receive|see).*(?:pitch deck|pitchdeck)`),
	regexp.MustCompile(`(?i)(?:request|get|receive|see).*(?:pitch deck|pitchdeck)`),
	regexp.MustCompile(`(?i)(?:want to|would like to|need to|can i).*(?:request|get|receive|see).*(?:galowclub|perspectiv)`),
	regexp.MustCompile(`(?i)(?:request|get|receive|see).*(?:galowclub|perspectiv).*(?:pitch|deck)`),
	regexp.MustCompile(`(?i)(?:galowclub|perspectiv).*(?:pitch deck|pitchdeck).*(?:please|request)`),
	regexp.MustCompile(`(?i)i (?:want|would like|need).*(?:galowclub|perspectiv).*(?:pitch|deck)`),
	regexp.MustCompile(`(?i)(?:interested in|looking at).*(?:galowclub|perspectiv|investment)`),
	regexp.MustCompile(`(?i)(?:invest|funding|investor).*(?:galowclub|perspectiv)`),
}

// Classify decides whether a free-text message expresses booking intent for
// one of the three service kinds. Informational phrasing wins over booking
// phrasing unconditionally, so FAQ questions never trigger a booking run.
func Classify(message string) Kind {
	if strings.TrimSpace(message) == "" {
		return KindNone
	}

	for _, re := range informationalPatterns {
		if re.MatchString(message) {
			return KindNone
		}
	}

	if isAppointmentRequest(message) {
		return KindAppointment
	}
	if matchesAny(message, subscriptionPatterns) {
		return KindSubscription
	}
	if matchesAny(message, pitchDeckPatterns) {
		return KindPitchDeck
	}
	return KindNone
}

func isAppointmentRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, term := range subscriptionVocabulary {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return matchesAny(message, appointmentPatterns)
}

func matchesAny(message string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
