package frontier_test

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPArangoRenteria/sitegraph/internal/frontier"
)

// Helper to must-parse URLs in tests
func mustURL(t *testing.T, raw string) url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	return *u
}

func submit(t *testing.T, f *frontier.Frontier, raw string, depth int) frontier.AdmissionOutcome {
	t.Helper()
	source := frontier.SourceCrawl
	if depth == 0 {
		source = frontier.SourceSeed
	}
	return f.Submit(frontier.NewAdmissionCandidate(mustURL(t, raw), source, depth))
}

func TestFrontier_EnforceBFS(t *testing.T) {
	/*
		Graph:
		    A (0)
		   / \
		  B   C (1)
		  |
		  D (2)

		Discovery order:
		- A discovers B, C
		- B discovers D
	*/
	f := frontier.NewFrontier(100, 5, true, "example.com")

	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))

	entry, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", entry.CanonicalURL())
	assert.Equal(t, 0, entry.Depth())

	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/b", 1))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/c", 1))
	f.MarkFetched("https://example.com/a")

	entry, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/b", entry.CanonicalURL())

	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/d", 2))
	f.MarkFetched("https://example.com/b")

	// C (depth 1) must come out before D (depth 2)
	entry, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/c", entry.CanonicalURL())
	f.MarkFetched("https://example.com/c")

	entry, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/d", entry.CanonicalURL())
	assert.Equal(t, 2, entry.Depth())
}

func TestFrontier_Deduplication(t *testing.T) {
	f := frontier.NewFrontier(100, 5, true, "example.com")

	assert.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))
	assert.Equal(t, frontier.Duplicate, submit(t, f, "https://example.com/a", 0))

	// First-seen depth wins: the duplicate's deeper rediscovery does
	// not alter the stored entry.
	assert.Equal(t, frontier.Duplicate, submit(t, f, "https://example.com/a", 3))
	entry, ok := f.Entry("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, 0, entry.Depth())
}

func TestFrontier_DepthRejection(t *testing.T) {
	f := frontier.NewFrontier(100, 2, true, "example.com")

	assert.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/at-limit", 2))
	assert.Equal(t, frontier.RejectedDepth, submit(t, f, "https://example.com/too-deep", 3))

	_, ok := f.Entry("https://example.com/too-deep")
	assert.False(t, ok, "rejected candidates leave no entry")
}

func TestFrontier_DomainRejection(t *testing.T) {
	f := frontier.NewFrontier(100, 5, true, "example.com")

	assert.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/in", 1))
	assert.Equal(t, frontier.RejectedDomain, submit(t, f, "https://other.example.org/out", 1))

	// With the restriction off, cross-domain candidates are admitted.
	open := frontier.NewFrontier(100, 5, false, "example.com")
	assert.Equal(t, frontier.Admitted, submit(t, open, "https://other.example.org/out", 1))
}

func TestFrontier_PageBudgetRefusesDispatchNotAdmission(t *testing.T) {
	// GIVEN a budget of 1 page and three admitted URLs
	f := frontier.NewFrontier(1, 5, true, "example.com")
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/b", 1))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/c", 1))

	// WHEN the first entry is dispatched and completed
	entry, ok := f.Next()
	require.True(t, ok)
	f.MarkFetched(entry.CanonicalURL())

	// THEN no further dispatch happens even though the queue has work
	_, ok = f.Next()
	assert.False(t, ok)
	assert.Equal(t, 2, f.PendingCount())

	// AND draining surfaces the budget-cut entries as skipped stubs
	drained := f.DrainQueued()
	require.Len(t, drained, 2)
	for _, e := range drained {
		assert.Equal(t, frontier.StateSkipped, e.State())
		assert.Equal(t, frontier.SkipBudgetExceeded, e.SkipReason())
	}
	assert.True(t, f.Exhausted())
}

func TestFrontier_BudgetCountsInFlight(t *testing.T) {
	f := frontier.NewFrontier(2, 5, true, "example.com")
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/b", 1))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/c", 1))

	_, ok := f.Next()
	require.True(t, ok)
	_, ok = f.Next()
	require.True(t, ok)

	// Two in-flight fills the budget of two.
	_, ok = f.Next()
	assert.False(t, ok, "in-flight work counts against the page budget")
}

func TestFrontier_FailedFetchFreesBudget(t *testing.T) {
	f := frontier.NewFrontier(1, 5, true, "example.com")
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/b", 1))

	entry, ok := f.Next()
	require.True(t, ok)
	f.MarkFailed(entry.CanonicalURL())

	// A failed fetch spent no budget; the next entry may be dispatched.
	entry, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/b", entry.CanonicalURL())
}

func TestFrontier_StateTransitions(t *testing.T) {
	f := frontier.NewFrontier(100, 5, true, "example.com")
	require.Equal(t, frontier.Admitted, submit(t, f, "https://example.com/a", 0))

	entry, ok := f.Entry("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, frontier.StateQueued, entry.State())

	dispatched, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, frontier.StateInFlight, dispatched.State())

	f.MarkFetched("https://example.com/a")
	entry, ok = f.Entry("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, frontier.StateFetched, entry.State())
	assert.Equal(t, 1, f.FetchedCount())
	assert.True(t, f.Exhausted())
}

func TestFrontier_Exhausted(t *testing.T) {
	f := frontier.NewFrontier(100, 5, true, "example.com")
	assert.True(t, f.Exhausted(), "an empty frontier is exhausted")

	submit(t, f, "https://example.com/a", 0)
	assert.False(t, f.Exhausted())

	entry, _ := f.Next()
	assert.False(t, f.Exhausted(), "in-flight work keeps the frontier live")

	f.MarkFetched(entry.CanonicalURL())
	assert.True(t, f.Exhausted())
}

func TestFrontier_ManyEntriesKeepFIFOWithinDepth(t *testing.T) {
	f := frontier.NewFrontier(100, 5, true, "example.com")

	var want []string
	for i := 0; i < 10; i++ {
		raw := fmt.Sprintf("https://example.com/page-%02d", i)
		want = append(want, raw)
		require.Equal(t, frontier.Admitted, submit(t, f, raw, 1))
	}

	var got []string
	for {
		entry, ok := f.Next()
		if !ok {
			break
		}
		got = append(got, entry.CanonicalURL())
		f.MarkFetched(entry.CanonicalURL())
	}
	assert.Equal(t, want, got)
}
