package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomInvoiceNumber_InRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		n := randomInvoiceNumber()
		require.GreaterOrEqual(t, n, minGeneratedNumber)
		require.LessOrEqual(t, n, maxGeneratedNumber)
	}
}

func TestGenerateNumber_RetriesUntilUnique(t *testing.T) {
	candidates := []int{1001, 1002, 1003}
	taken := map[int]bool{1001: true, 1002: true}
	i := 0
	next := func() int { n := candidates[i]; i++; return n }

	n, err := generateNumber(context.Background(), next, func(n int) (bool, error) { return !taken[n], nil })
	require.NoError(t, err)
	assert.Equal(t, 1003, n)
	assert.Equal(t, 3, i)
}

func TestGenerateNumber_GivesUp(t *testing.T) {
	calls := 0
	_, err := generateNumber(context.Background(), func() int { return 1234 }, func(int) (bool, error) {
		calls++
		return false, nil
	})
	assert.Error(t, err)
	assert.Equal(t, maxNumberAttempts, calls)
}

func TestGenerateNumber_PropagatesProbeError(t *testing.T) {
	lookupErr := errors.New("db down")
	_, err := generateNumber(context.Background(), func() int { return 1234 }, func(int) (bool, error) {
		return false, lookupErr
	})
	assert.ErrorIs(t, err, lookupErr)
}

func TestGenerateNumber_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := generateNumber(ctx, func() int { return 1234 }, func(int) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
