package consensus

import (
	"context"
	"fmt"
	"log"
)

// DefaultAmountThreshold is the completion amount, in minor units, above
// which multi-agent verification is required.
const DefaultAmountThreshold = 1_000_000

// Verification is the outcome of a multi-agent verification round.
type Verification struct {
	Valid      bool `json:"is_valid"`
	VotesFor   int  `json:"votes_for"`
	VotesTotal int  `json:"votes_total"`
}

// Verifier is the external byzantine-fault-tolerant verification
// collaborator.
type Verifier interface {
	VerifyWithConsensus(ctx context.Context, payload []byte, agentSet []string) (Verification, error)
}

// RejectedError reports a completion denied by the verification round,
// carrying the vote tally for the caller.
type RejectedError struct {
	VotesFor   int
	VotesTotal int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("consensus rejected: %d/%d votes", e.VotesFor, e.VotesTotal)
}

// Gate routes high-value checkout completions through the external verifier
// before they finalize. Completions at or below the threshold pass without a
// verification round.
type Gate struct {
	verifier  Verifier
	threshold int64
	enabled   bool
	agentSet  []string
}

func NewGate(verifier Verifier, threshold int64, enabled bool, agentSet []string) *Gate {
	if threshold <= 0 {
		threshold = DefaultAmountThreshold
	}
	return &Gate{
		verifier:  verifier,
		threshold: threshold,
		enabled:   enabled,
		agentSet:  agentSet,
	}
}

// Enabled reports whether the gate performs verification at all.
func (g *Gate) Enabled() bool { return g.enabled }

// Check verifies a completion payload when the amount exceeds the threshold.
// It returns a *RejectedError when the verification round denies the
// completion; any other error means the round itself failed and the
// completion must not proceed either.
func (g *Gate) Check(ctx context.Context, amount int64, payload []byte) error {
	if !g.enabled || amount <= g.threshold {
		return nil
	}

	v, err := g.verifier.VerifyWithConsensus(ctx, payload, g.agentSet)
	if err != nil {
		return fmt.Errorf("consensus verification failed: %w", err)
	}
	if !v.Valid {
		log.Printf("[Consensus] Rejected completion: amount=%d votes=%d/%d", amount, v.VotesFor, v.VotesTotal)
		return &RejectedError{VotesFor: v.VotesFor, VotesTotal: v.VotesTotal}
	}

	log.Printf("[Consensus] Approved completion: amount=%d votes=%d/%d", amount, v.VotesFor, v.VotesTotal)
	return nil
}
