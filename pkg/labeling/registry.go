package labeling

import (
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelbench/pkg/errors"
)

// Registry maps configured identifiers to implementations.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	labelers map[string]Labeler
	counters map[string]AccessCounter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		labelers: make(map[string]Labeler),
		counters: make(map[string]AccessCounter),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry holding the built-in algorithms.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		r.RegisterLabeler("SAUF", Reference)
		r.RegisterLabeler("BFS", LabelerFunc(BFS))
		r.RegisterLabeler("labelingNULL", Null)
		r.RegisterAccessCounter("SAUF_MEM", AccessCounterFunc(SAUFWithAccessCounts))
		r.RegisterAccessCounter("BFS_MEM", AccessCounterFunc(BFSWithAccessCounts))
		defaultRegistry = r
	})
	return defaultRegistry
}

// RegisterLabeler adds or replaces the labeler for id.
func (r *Registry) RegisterLabeler(id string, l Labeler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labelers[id] = l
}

// RegisterAccessCounter adds or replaces the access counter for id.
func (r *Registry) RegisterAccessCounter(id string, c AccessCounter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[id] = c
}

// Labeler looks up a labeler by id.
func (r *Registry) Labeler(id string) (Labeler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.labelers[id]
	return l, ok
}

// AccessCounter looks up an access counter by id.
func (r *Registry) AccessCounter(id string) (AccessCounter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.counters[id]
	return c, ok
}

// LabelerIDs returns the registered labeler ids, sorted.
func (r *Registry) LabelerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.labelers)
}

// AccessCounterIDs returns the registered access counter ids, sorted.
func (r *Registry) AccessCounterIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.counters)
}

// ResolveLabelers pairs configured ids with display names.
//
// ids and names must match in length and must not be empty; otherwise a
// CONFIG_INVALID error is returned. Ids that are not registered are skipped
// with a warning, so the result may be shorter than ids.
func (r *Registry) ResolveLabelers(ids, names []string, logger *log.Logger) ([]Entry, error) {
	if err := checkLists("algorithms", ids, names); err != nil {
		return nil, err
	}
	logger = orDiscard(logger)

	entries := make([]Entry, 0, len(ids))
	for i, id := range ids {
		l, ok := r.Labeler(id)
		if !ok {
			logger.Warn("unable to find algorithm, skipped", "err", notFound("algorithm", id))
			continue
		}
		entries = append(entries, Entry{ID: id, Name: names[i], Labeler: l})
	}
	return entries, nil
}

// ResolveAccessCounters is the memory-test counterpart of ResolveLabelers.
func (r *Registry) ResolveAccessCounters(ids, names []string, logger *log.Logger) ([]MemEntry, error) {
	if err := checkLists("memory algorithms", ids, names); err != nil {
		return nil, err
	}
	logger = orDiscard(logger)

	entries := make([]MemEntry, 0, len(ids))
	for i, id := range ids {
		c, ok := r.AccessCounter(id)
		if !ok {
			logger.Warn("unable to find memory algorithm, skipped", "err", notFound("memory algorithm", id))
			continue
		}
		entries = append(entries, MemEntry{ID: id, Name: names[i], Counter: c})
	}
	return entries, nil
}

func notFound(what, id string) error {
	return errors.New(errors.ErrCodeAlgorithmNotFound, "no %s registered as %q", what, id)
}

func checkLists(what string, ids, names []string) error {
	if len(ids) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "%s: function list must not be empty", what)
	}
	if len(ids) != len(names) {
		return errors.New(errors.ErrCodeConfigInvalid,
			"%s: %d functions but %d names (lists must match in length and order)", what, len(ids), len(names))
	}
	return nil
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
