package transfer

import "sync"

// Summary counts what one cp invocation did.
type Summary struct {
	Uploaded   int   `json:"uploaded"`
	Downloaded int   `json:"downloaded"`
	Skipped    int   `json:"skipped"`
	Excluded   int   `json:"excluded"`
	Bytes      int64 `json:"bytes"`
}

// tally accumulates a Summary across concurrent transfers.
type tally struct {
	mu  sync.Mutex
	sum Summary
}

func (t *tally) add(fn func(s *Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.sum)
}

func (t *tally) snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}
