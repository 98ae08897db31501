package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateHeuristic(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("ab"))
	assert.Equal(t, 1, Estimate("abc"))
	assert.Equal(t, 2, Estimate("abcd"))
	assert.Equal(t, 4, Estimate("hello world")) // 11 bytes -> ceil(11/3)=4
}

func TestEstimateForMessages(t *testing.T) {
	msgs := []Message{{Role: "user", Content: "abc"}, {Role: "assistant", Content: "abcdef"}}
	got := EstimateForMessages(msgs)
	assert.Equal(t, (1+4)+(2+4), got)
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return f.n, f.err
}

func (f fakeCounter) CountMessageTokens(ctx context.Context, msgs []Message) (int, error) {
	return f.n, f.err
}

func TestProviderEstimatorPrefersCounter(t *testing.T) {
	pe := ProviderEstimator{Counter: fakeCounter{n: 42}}
	assert.Equal(t, 42, pe.Estimate("anything"))
	assert.Equal(t, 42, pe.EstimateMessages([]Message{{Role: "user", Content: "x"}}))
}

func TestProviderEstimatorFallsBackOnError(t *testing.T) {
	pe := ProviderEstimator{Counter: fakeCounter{err: errors.New("boom")}}
	assert.Equal(t, Estimate("hello"), pe.Estimate("hello"))
}

func TestProviderEstimatorNilCounter(t *testing.T) {
	pe := ProviderEstimator{}
	assert.Equal(t, Estimate("hello"), pe.Estimate("hello"))
}
