package booking

// Status describes how far a booking got through the fallback chain.
type Status string

const (
	// StatusConfirmed means a checkout session was created and the visitor
	// has a payment link.
	StatusConfirmed Status = "confirmed"
	// StatusPending means checkout failed but the request was recorded for
	// manual follow-up.
	StatusPending Status = "pending"
	// StatusFailed means neither checkout nor the database accepted the
	// request; only the acknowledgement message survives.
	StatusFailed Status = "failed"
)

// Result is what a booking run hands back to the conversation. Execution
// never returns an error to the caller: every outcome, including total
// backend failure, is expressed here so the chat always has something to say.
type Result struct {
	Success     bool   `json:"success"`
	Status      Status `json:"status"`
	Message     string `json:"message"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	RecordID    string `json:"recordId,omitempty"`
	// Degraded is set when a fallback produced the outcome, so callers can
	// distinguish a real confirmation from a best-effort acknowledgement.
	Degraded bool `json:"degraded,omitempty"`
}
