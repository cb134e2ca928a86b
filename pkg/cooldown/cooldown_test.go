package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_DeterministicAndSensitiveToAllInputs(t *testing.T) {
	a := Fingerprint("search-results", "best espresso machine")
	b := Fingerprint("search-results", "best espresso machine")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint("other-category", "best espresso machine"))
	assert.NotEqual(t, a, Fingerprint("search-results", "other query"))
}

func TestFingerprint_TrimsQueryWhitespace(t *testing.T) {
	a := Fingerprint("search-results", "  best espresso machine  ")
	b := Fingerprint("search-results", "best espresso machine")
	assert.Equal(t, a, b)
}

func TestFingerprint_FitsInSignedBigint(t *testing.T) {
	h := Fingerprint("x", "y")
	assert.LessOrEqual(t, h, uint64(1<<48)-1)
}

func TestEndOfUTCDay_IsNextUTCMidnightRegardlessOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	in := time.Date(2026, 8, 3, 23, 0, 0, 0, loc) // == 2026-08-03T14:00:00Z
	got := EndOfUTCDay(in)
	want := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %v want %v", got, want)
}

func TestEndOfUTCDay_AtExactMidnightStillRollsToNextDay(t *testing.T) {
	in := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	want := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	assert.True(t, EndOfUTCDay(in).Equal(want))
}

func TestMemoryStore_AddIsTestAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	expireAt := time.Now().Add(time.Hour)
	ok, err := s.Add(ctx, 42, expireAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Add(ctx, 42, expireAt)
	require.NoError(t, err)
	assert.False(t, ok, "second add of a still-unexpired fingerprint must fail")
}

func TestMemoryStore_ReclaimsExpiredEntry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	past := time.Now().Add(-time.Hour)
	ok, err := s.Add(ctx, 7, past)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Add(ctx, 7, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "an already-expired entry must be reclaimable")
}

func TestMemoryStore_DeleteReleasesFingerprint(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	expireAt := time.Now().Add(time.Hour)
	_, err := s.Add(ctx, 99, expireAt)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, 99))

	ok, err := s.Add(ctx, 99, expireAt)
	require.NoError(t, err)
	assert.True(t, ok, "deleting a fingerprint must allow it to be re-added immediately")
}

func TestGate_TryEnterThenReleaseAllowsReentry(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore())

	ok, err := gate.TryEnter(ctx, "search-results", "espresso")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.TryEnter(ctx, "search-results", "espresso")
	require.NoError(t, err)
	assert.False(t, ok, "same query must be refused while cooling down")

	require.NoError(t, gate.Release(ctx, "search-results", "espresso"))

	ok, err = gate.TryEnter(ctx, "search-results", "espresso")
	require.NoError(t, err)
	assert.True(t, ok, "after release the same query must be allowed again")
}

func TestGate_DistinctCategoriesDoNotShareCooldown(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore())

	ok, err := gate.TryEnter(ctx, "search-results", "espresso")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.TryEnter(ctx, "shopping-results", "espresso")
	require.NoError(t, err)
	assert.True(t, ok, "identical query under a different category must not collide")
}
