package crawler

// State is a step of the crawl state machine.
//
// A run moves ResolvingStart → FetchingPage → ExtractingArticles →
// Accumulating → NextPage, loops back to FetchingPage until the page budget
// is spent, then goes Merging → Finished. Cancellation moves any state to
// Aborted.
type State int

const (
	// StateResolvingStart determines the first page index.
	StateResolvingStart State = iota
	// StateFetchingPage retrieves and parses one listing page.
	StateFetchingPage
	// StateExtractingArticles reads the articles of the current page.
	StateExtractingArticles
	// StateAccumulating stores the records of the current page.
	StateAccumulating
	// StateNextPage moves to the next older page.
	StateNextPage
	// StateMerging merges and deduplicates all page results.
	StateMerging
	// StateFinished is the terminal state of a completed run.
	StateFinished
	// StateAborted is the terminal state of a cancelled run.
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateResolvingStart:
		return "resolving-start"
	case StateFetchingPage:
		return "fetching-page"
	case StateExtractingArticles:
		return "extracting-articles"
	case StateAccumulating:
		return "accumulating"
	case StateNextPage:
		return "next-page"
	case StateMerging:
		return "merging"
	case StateFinished:
		return "finished"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateAborted
}
