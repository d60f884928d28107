package intent

// Kind identifies which booking action a message is requesting.
type Kind string

const (
	KindNone         Kind = "none"
	KindAppointment  Kind = "appointment"
	KindSubscription Kind = "subscription"
	KindPitchDeck    Kind = "pitchdeck"
)

// AllowedDurations are the bookable consultation lengths in minutes.
var AllowedDurations = []int{45, 60, 75, 90, 105, 120}

// Plans are the coaching subscription tiers.
var Plans = []string{"basic", "standard", "premium"}

// Projects maps lowercase project mentions to their canonical names.
var Projects = map[string]string{
	"galowclub":  "GalowClub",
	"perspectiv": "Perspectiv",
}

// Appointment holds the slots for a consultation booking.
type Appointment struct {
	Date            string // YYYY-MM-DD
	StartTime       string // HH:MM, 24-hour
	DurationMinutes int
	ContactName     string
	ContactEmail    string
	ContactPhone    string
}

// Subscription holds the slots for a coaching plan signup.
type Subscription struct {
	Plan  string // basic, standard or premium
	Name  string
	Email string
	Phone string
}

// PitchDeck holds the slots for an investor pitch deck request.
type PitchDeck struct {
	Project string // GalowClub or Perspectiv
	Name    string
	Email   string
	Phone   string
	Role    string
}

// Intent is the tagged union over the three booking variants. Exactly one of
// the variant pointers is set when Kind is not KindNone.
type Intent struct {
	Kind         Kind
	Appointment  *Appointment
	Subscription *Subscription
	PitchDeck    *PitchDeck
}

// MissingFields returns the required fields that are still absent. An intent
// is executable only when this is empty. Contact fields are always optional.
func (i Intent) MissingFields() []string {
	var missing []string
	switch i.Kind {
	case KindAppointment:
		if i.Appointment == nil {
			return []string{"date", "time", "duration"}
		}
		if i.Appointment.Date == "" {
			missing = append(missing, "date")
		}
		if i.Appointment.StartTime == "" {
			missing = append(missing, "time")
		}
		if i.Appointment.DurationMinutes == 0 {
			missing = append(missing, "duration")
		}
	case KindSubscription:
		if i.Subscription == nil || i.Subscription.Plan == "" {
			missing = append(missing, "plan")
		}
	case KindPitchDeck:
		if i.PitchDeck == nil || i.PitchDeck.Project == "" {
			missing = append(missing, "project")
		}
	}
	return missing
}

// Complete reports whether all required fields for the variant are present.
func (i Intent) Complete() bool {
	return i.Kind != KindNone && len(i.MissingFields()) == 0
}

// ValidDuration reports whether d is one of the bookable consultation lengths.
func ValidDuration(d int) bool {
	for _, allowed := range AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}

// ValidPlan reports whether plan is a known subscription tier.
func ValidPlan(plan string) bool {
	for _, p := range Plans {
		if plan == p {
			return true
		}
	}
	return false
}

// ValidProject reports whether project is one of the canonical project names.
func ValidProject(project string) bool {
	for _, canonical := range Projects {
		if project == canonical {
			return true
		}
	}
	return false
}
