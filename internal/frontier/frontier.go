package frontier

/*
Frontier Responsibilities
- Maintain BFS ordering
- Deduplicate URLs by canonical form
- Track crawl depth
- Enforce max-pages and max-depth budgets
- Enforce the same-domain restriction
- Prevent infinite traversal
- Knows nothing about:
	- fetching
	- extraction
	- graph metrics

It is a data structure + policy module, not a pipeline executor.
All calls must come from the single scheduler goroutine; the Frontier
itself carries no locks. BFS ordering holds because every depth-(d+1)
candidate is discovered only after its depth-d parent was dispatched,
so a plain FIFO queue keeps depth non-decreasing across dequeues.
*/

// Frontier is the crawl scheduler state: pending queue, per-URL entry
// table, and budget counters.
type Frontier struct {
	maxPages   int
	maxDepth   int
	sameDomain bool
	seedHost   string

	queue   *FIFOQueue[string]
	seen    Set[string]
	entries map[string]*Entry

	fetched  int
	inFlight int
	failed   int
	skipped  int
}

func NewFrontier(maxPages, maxDepth int, sameDomain bool, seedHost string) *Frontier {
	return &Frontier{
		maxPages:   maxPages,
		maxDepth:   maxDepth,
		sameDomain: sameDomain,
		seedHost:   seedHost,
		queue:      NewFIFOQueue[string](),
		seen:       NewSet[string](),
		entries:    make(map[string]*Entry),
	}
}

// Submit evaluates a candidate for admission. A URL enters the frontier
// at most once across the run; the first-seen depth wins. Depth and
// domain violations are rejected here, before the URL ever reaches the
// queue. The page budget is NOT checked here: admitted-but-never-
// dispatched entries become unvisited stubs when the run finalizes.
func (f *Frontier) Submit(candidate AdmissionCandidate) AdmissionOutcome {
	key := candidate.CanonicalURL()

	if f.seen.Contains(key) {
		return Duplicate
	}

	if candidate.Depth() > f.maxDepth {
		return RejectedDepth
	}

	if f.sameDomain && candidate.URL().Host != f.seedHost {
		return RejectedDomain
	}

	f.seen.Add(key)
	f.entries[key] = &Entry{
		canonicalURL: key,
		parsedURL:    candidate.URL(),
		depth:        candidate.Depth(),
		state:        StateQueued,
	}
	f.queue.Enqueue(key)
	return Admitted
}

// Next dequeues the next entry for fetching, or reports that no work
// may be dispatched right now. Dispatch is refused once
// fetched + in-flight >= maxPages: the budget counts work already
// spent plus work already committed.
func (f *Frontier) Next() (Entry, bool) {
	if f.fetched+f.inFlight >= f.maxPages {
		return Entry{}, false
	}

	key, ok := f.queue.Dequeue()
	if !ok {
		return Entry{}, false
	}

	entry := f.entries[key]
	entry.state = StateInFlight
	f.inFlight++
	return *entry, true
}

// MarkFetched records a successful fetch completion.
func (f *Frontier) MarkFetched(canonicalURL string) {
	f.complete(canonicalURL, StateFetched)
	f.fetched++
}

// MarkFailed records a failed fetch completion.
func (f *Frontier) MarkFailed(canonicalURL string) {
	f.complete(canonicalURL, StateFailed)
	f.failed++
}

// MarkSkipped moves an entry to the skipped terminal state with a
// reason (robots disallow during dispatch, budget at finalization).
func (f *Frontier) MarkSkipped(canonicalURL string, reason SkipReason) {
	entry, ok := f.entries[canonicalURL]
	if !ok {
		return
	}
	if entry.state == StateInFlight {
		f.inFlight--
	}
	entry.state = StateSkipped
	entry.skipReason = reason
	f.skipped++
}

func (f *Frontier) complete(canonicalURL string, terminal EntryState) {
	entry, ok := f.entries[canonicalURL]
	if !ok {
		return
	}
	if entry.state == StateInFlight {
		f.inFlight--
	}
	entry.state = terminal
}

// DrainQueued removes and returns every still-queued entry. Called at
// finalization when the page budget cut the crawl short; the returned
// entries become unvisited stub nodes.
func (f *Frontier) DrainQueued() []Entry {
	var drained []Entry
	for {
		key, ok := f.queue.Dequeue()
		if !ok {
			break
		}
		entry := f.entries[key]
		entry.state = StateSkipped
		entry.skipReason = SkipBudgetExceeded
		f.skipped++
		drained = append(drained, *entry)
	}
	return drained
}

// Exhausted reports whether the crawl is over: nothing queued, nothing
// in flight, or the page budget fully spent with no work outstanding.
func (f *Frontier) Exhausted() bool {
	if f.inFlight > 0 {
		return false
	}
	if f.queue.Size() == 0 {
		return true
	}
	return f.fetched >= f.maxPages
}

// Entry returns the current state of a URL's frontier entry.
func (f *Frontier) Entry(canonicalURL string) (Entry, bool) {
	entry, ok := f.entries[canonicalURL]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

func (f *Frontier) FetchedCount() int {
	return f.fetched
}

func (f *Frontier) FailedCount() int {
	return f.failed
}

func (f *Frontier) SkippedCount() int {
	return f.skipped
}

func (f *Frontier) InFlightCount() int {
	return f.inFlight
}

func (f *Frontier) PendingCount() int {
	return f.queue.Size()
}
