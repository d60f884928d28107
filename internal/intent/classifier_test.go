package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Kind
	}{
		{
			name:    "appointment with schedule verb",
			message: "I want to book a consultation tomorrow at 2pm",
			want:    KindAppointment,
		},
		{
			name:    "appointment set up phrasing",
			message: "Can we set up a meeting on Friday?",
			want:    KindAppointment,
		},
		{
			name:    "subscription signup",
			message: "I'd like to subscribe to the premium coaching plan",
			want:    KindSubscription,
		},
		{
			name:    "subscription vocabulary blocks appointment",
			message: "I want to book a coaching consultation",
			want:    KindSubscription,
		},
		{
			name:    "pitch deck request",
			message: "Can I get the GalowClub pitch deck?",
			want:    KindPitchDeck,
		},
		{
			name:    "investor interest",
			message: "I'm an investor interested in Perspectiv",
			want:    KindPitchDeck,
		},
		{
			name:    "small talk",
			message: "hello there",
			want:    KindNone,
		},
		{
			name:    "empty message",
			message: "   ",
			want:    KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.message); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyInformationalPrecedence(t *testing.T) {
	// FAQ phrasing must win even when booking vocabulary is present.
	messages := []string{
		"What does the premium plan include?",
		"How does booking a consultation work?",
		"Tell me about the GalowClub pitch deck",
		"Can you explain how to schedule an appointment?",
		"What's the difference between the basic and standard plans?",
		"Do you offer coaching subscriptions?",
	}

	for _, msg := range messages {
		if got := Classify(msg); got != KindNone {
			t.Errorf("Classify(%q) = %v, want none (informational)", msg, got)
		}
	}
}

func TestClassifyStableAcrossRepeats(t *testing.T) {
	msg := "I would like to schedule a consultation for tomorrow"
	first := Classify(msg)
	for i := 0; i < 10; i++ {
		if got := Classify(msg); got != first {
			t.Fatalf("classification changed between calls: %v vs %v", first, got)
		}
	}
}
