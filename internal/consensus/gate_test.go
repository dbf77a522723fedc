package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	verification Verification
	err          error
	calls        int
	lastAgents   []string
}

func (s *stubVerifier) VerifyWithConsensus(_ context.Context, _ []byte, agentSet []string) (Verification, error) {
	s.calls++
	s.lastAgents = agentSet
	return s.verification, s.err
}

func TestGateSkipsBelowThreshold(t *testing.T) {
	v := &stubVerifier{verification: Verification{Valid: false}}
	g := NewGate(v, 1_000_000, true, []string{"agent-1"})

	assert.NoError(t, g.Check(context.Background(), 500, nil))
	assert.NoError(t, g.Check(context.Background(), 1_000_000, nil), "threshold amount itself is not gated")
	assert.Equal(t, 0, v.calls)
}

func TestGateApprovesAboveThreshold(t *testing.T) {
	v := &stubVerifier{verification: Verification{Valid: true, VotesFor: 3, VotesTotal: 3}}
	g := NewGate(v, 1_000_000, true, []string{"agent-1", "agent-2", "agent-3"})

	assert.NoError(t, g.Check(context.Background(), 2_000_000, []byte(`{"id":"cs_1"}`)))
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, []string{"agent-1", "agent-2", "agent-3"}, v.lastAgents)
}

func TestGateRejectionCarriesVoteTally(t *testing.T) {
	v := &stubVerifier{verification: Verification{Valid: false, VotesFor: 1, VotesTotal: 4}}
	g := NewGate(v, 1_000_000, true, nil)

	err := g.Check(context.Background(), 5_000_000, []byte(`{"id":"cs_1"}`))
	require.Error(t, err)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 1, rejected.VotesFor)
	assert.Equal(t, 4, rejected.VotesTotal)
}

func TestGateVerifierFailureBlocksCompletion(t *testing.T) {
	v := &stubVerifier{err: errors.New("quorum unreachable")}
	g := NewGate(v, 1_000_000, true, nil)

	err := g.Check(context.Background(), 5_000_000, nil)
	require.Error(t, err)

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected), "a failed round is not a rejection")
}

func TestGateDisabled(t *testing.T) {
	v := &stubVerifier{verification: Verification{Valid: false}}
	g := NewGate(v, 1_000_000, false, nil)

	assert.NoError(t, g.Check(context.Background(), 10_000_000, nil))
	assert.Equal(t, 0, v.calls)
}

func TestGateDefaultThreshold(t *testing.T) {
	v := &stubVerifier{verification: Verification{Valid: true, VotesFor: 2, VotesTotal: 3}}
	g := NewGate(v, 0, true, nil)

	assert.NoError(t, g.Check(context.Background(), DefaultAmountThreshold, nil))
	assert.Equal(t, 0, v.calls)

	assert.NoError(t, g.Check(context.Background(), DefaultAmountThreshold+1, nil))
	assert.Equal(t, 1, v.calls)
}
