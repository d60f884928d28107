package booking

import "fmt"

// Consultations bill at a flat hourly rate, prorated by the minute.
const consultationHourlyRateCents = 9000

// Monthly coaching plan prices in euro cents.
var planPriceCents = map[string]int64{
	"basic":    4000,
	"standard": 9000,
	"premium":  23000,
}

// ConsultationPriceCents prorates the hourly rate over the booked duration.
func ConsultationPriceCents(durationMinutes int) int64 {
	return int64(durationMinutes) * consultationHourlyRateCents / 60
}

// PlanPriceCents returns the monthly price for a coaching plan, or 0 for an
// unknown plan.
func PlanPriceCents(plan string) int64 {
	return planPriceCents[plan]
}

// FormatPrice renders euro cents as a user-facing amount, e.g. "90.00".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
