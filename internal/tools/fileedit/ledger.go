package fileedit

import (
	"os"
	"sync"
)

// ReadLedger tracks which files have been read this session. Mutating
// edits to files the model has not read first are treated with more
// suspicion by the risk classifier.
type ReadLedger struct {
	mu   sync.Mutex
	read map[string]bool
}

// NewReadLedger creates an empty ledger.
func NewReadLedger() *ReadLedger {
	return &ReadLedger{read: make(map[string]bool)}
}

// MarkRead records that the file at abs was read.
func (l *ReadLedger) MarkRead(abs string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.read[abs] = true
}

// WasRead reports whether the file at abs was read this session.
func (l *ReadLedger) WasRead(abs string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read[abs]
}

// Exists reports whether a regular file exists at abs.
func (l *ReadLedger) Exists(abs string) bool {
	info, err := os.Stat(abs)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Reset clears the ledger.
func (l *ReadLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.read = make(map[string]bool)
}
