package worker

import (
	"math/rand"
	"time"

	"payment-gateway/internal/core/domain"
)

// Method-dependent settlement success rates.
const (
	upiSuccessRate  = 0.90
	cardSuccessRate = 0.95
)

// RandomOutcome implements ports.OutcomeDecider with the production
// behavior: probabilistic settlement results and randomized processing
// latency.
type RandomOutcome struct{}

// NewRandomOutcome creates the production outcome decider.
func NewRandomOutcome() *RandomOutcome {
	return &RandomOutcome{}
}

// Decide returns true when the simulated bank approves the payment.
func (o *RandomOutcome) Decide(method domain.PaymentMethod) bool {
	rate := upiSuccessRate
	if method == domain.PaymentMethodCard {
		rate = cardSuccessRate
	}
	return rand.Float64() < rate
}

// PaymentDelay returns the settlement latency, 5-10 seconds.
func (o *RandomOutcome) PaymentDelay() time.Duration {
	return 5*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
}

// RefundDelay returns the refund processing latency, 3-5 seconds.
func (o *RandomOutcome) RefundDelay() time.Duration {
	return 3*time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}

// FixedOutcome implements ports.OutcomeDecider deterministically. Test
// mode wires this in so suites can assert exact settlement results and
// keep processing latency short.
type FixedOutcome struct {
	Success bool
	Delay   time.Duration
}

func (o *FixedOutcome) Decide(domain.PaymentMethod) bool { return o.Success }
func (o *FixedOutcome) PaymentDelay() time.Duration      { return o.Delay }
func (o *FixedOutcome) RefundDelay() time.Duration       { return o.Delay }
