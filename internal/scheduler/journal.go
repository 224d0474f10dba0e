package scheduler

import (
	"sync"
	"time"
)

// EntryKind distinguishes journal entry types.
type EntryKind int

const (
	EntryExecution EntryKind = iota
	EntryDelegation
)

// Entry is one append-only record in the execution journal: either an agent
// executing a task, or one agent delegating a sub-task to another.
type Entry struct {
	Kind  EntryKind
	Agent string // executing agent (execution entries)
	From  string // delegating agent (delegation entries)
	To    string // delegate agent (delegation entries)
	Task  string
	At    time.Time
}

// Journal is the scheduler's append-only execution record. Every mutation
// goes through the journal's mutex, so worker-pool goroutines never append
// to a shared slice directly. Lifetime matches the scheduler instance.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// RecordExecution appends an execution entry.
func (j *Journal) RecordExecution(agentName, task string) {
	j.append(Entry{
		Kind:  EntryExecution,
		Agent: agentName,
		Task:  task,
		At:    time.Now(),
	})
}

// RecordDelegation appends a delegation entry.
func (j *Journal) RecordDelegation(from, to, task string) {
	j.append(Entry{
		Kind: EntryDelegation,
		From: from,
		To:   to,
		Task: task,
		At:   time.Now(),
	})
}

func (j *Journal) append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

// Entries returns a copy of all entries in append order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.entries...)
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
