package vendors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"idv/internal/proofing/pii"
	"idv/pkg/platform/circuit"
)

type scriptedProofer struct {
	results []*Result
	calls   int
}

func (p *scriptedProofer) Proof(context.Context, pii.Applicant) *Result {
	r := p.results[p.calls%len(p.results)]
	p.calls++
	return r
}

func TestGuardedProofer(t *testing.T) {
	timeout := Errored("lexisnexis:instant_verify", &Exception{Kind: ExceptionTimeout, Message: "deadline"})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newBreaker := func() *circuit.Breaker {
		return circuit.New("lexisnexis:instant_verify",
			circuit.WithFailureThreshold(2),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)
	}

	t.Run("opens on repeated timeouts and short-circuits", func(t *testing.T) {
		inner := &scriptedProofer{results: []*Result{timeout}}
		g := &GuardedProofer{Proofer: inner, Breaker: newBreaker()}

		g.Proof(context.Background(), pii.Applicant{})
		g.Proof(context.Background(), pii.Applicant{})
		r := g.Proof(context.Background(), pii.Applicant{})

		assert.Equal(t, 2, inner.calls)
		assert.True(t, r.HasException())
		assert.Equal(t, ExceptionCircuitOpen, r.Exception.Kind)
		assert.True(t, r.Exception.Retryable())
	})

	t.Run("verification failures keep the circuit closed", func(t *testing.T) {
		failed := Failed("lexisnexis:instant_verify", map[string][]string{"ssn": {"mismatch"}})
		inner := &scriptedProofer{results: []*Result{failed}}
		b := newBreaker()
		g := &GuardedProofer{Proofer: inner, Breaker: b}

		for i := 0; i < 5; i++ {
			g.Proof(context.Background(), pii.Applicant{})
		}
		assert.False(t, b.IsOpen())
		assert.Equal(t, 5, inner.calls)
	})

	t.Run("mva outages do not trip the hub breaker", func(t *testing.T) {
		mva := Errored("aamva:state_id", errors.New("ExceptionId: 0001, ExceptionText: MVA unavailable"))
		inner := &scriptedProofer{results: []*Result{mva}}
		b := newBreaker()
		g := &GuardedProofer{Proofer: inner, Breaker: b}

		g.Proof(context.Background(), pii.Applicant{})
		g.Proof(context.Background(), pii.Applicant{})
		assert.False(t, b.IsOpen())
	})

	t.Run("canceled results do not trip the breaker", func(t *testing.T) {
		canceled := Errored("lexisnexis:instant_verify", context.Canceled)
		inner := &scriptedProofer{results: []*Result{canceled}}
		b := newBreaker()
		g := &GuardedProofer{Proofer: inner, Breaker: b}

		g.Proof(context.Background(), pii.Applicant{})
		g.Proof(context.Background(), pii.Applicant{})
		assert.False(t, b.IsOpen())
	})

	t.Run("a successful probe closes the circuit", func(t *testing.T) {
		inner := &scriptedProofer{results: []*Result{timeout, timeout, Passed("lexisnexis:instant_verify")}}
		b := newBreaker()
		g := &GuardedProofer{Proofer: inner, Breaker: b}

		g.Proof(context.Background(), pii.Applicant{})
		g.Proof(context.Background(), pii.Applicant{})
		assert.True(t, b.IsOpen())

		now = now.Add(time.Minute)
		r := g.Proof(context.Background(), pii.Applicant{})
		assert.True(t, r.Success)
		assert.False(t, b.IsOpen())
	})

	t.Run("cancelled calls are not counted", func(t *testing.T) {
		inner := &scriptedProofer{results: []*Result{timeout}}
		b := newBreaker()
		g := &GuardedProofer{Proofer: inner, Breaker: b}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		g.Proof(ctx, pii.Applicant{})
		g.Proof(ctx, pii.Applicant{})
		assert.False(t, b.IsOpen())
	})
}
