// FILE: confforge/conf/store.go
package conf

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// MergeStrategy selects how Merge resolves conflicts between two trees.
type MergeStrategy int

const (
	// MergeOverride lets the incoming side win on conflict.
	MergeOverride MergeStrategy = iota

	// MergeAdditive keeps existing values; the incoming side only fills
	// gaps.
	MergeAdditive

	// MergeSecureOverride behaves like MergeOverride but marks the
	// incoming paths as sensitive, so audit events redact their values.
	MergeSecureOverride
)

// Store owns one Value tree plus modification tracking. It is the
// non-cached facade: many readers may resolve paths concurrently, a writer
// holds exclusive access only for the duration of the single mutating call.
//
// A panic inside a mutating section is recovered rather than propagated: a
// configuration subsystem taking down the host process is worse than
// serving a slightly stale read. The store then runs in degraded mode,
// keeps serving the tree it has, and reports the condition through its
// logger.
type Store struct {
	mu         sync.RWMutex
	root       *Value
	generation atomic.Uint64
	mutations  atomic.Uint64
	dirty      atomic.Bool
	degraded   atomic.Bool

	secure map[string]bool // paths merged via MergeSecureOverride

	logger *slog.Logger
	audit  *AuditRecorder
	actor  string
}

// NewStore wraps a Value tree. A nil root starts as an empty table. The
// logger may be nil; diagnostics are then discarded.
func NewStore(root *Value, logger *slog.Logger) *Store {
	if root == nil {
		root = Table()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:   root,
		secure: make(map[string]bool),
		logger: logger,
		actor:  "system",
	}
}

// SetAudit attaches an audit recorder. Passing nil detaches it.
func (s *Store) SetAudit(rec *AuditRecorder) {
	s.mu.Lock()
	s.audit = rec
	s.mu.Unlock()
}

// SetActor names the principal recorded in audit events.
func (s *Store) SetActor(actor string) {
	s.mu.Lock()
	s.actor = actor
	s.mu.Unlock()
}

// Get resolves a path against the current tree. The returned value is
// shared with the tree and must be treated as read-only.
func (s *Store) Get(path string) (*Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Get(path)
}

// getWithGeneration resolves a path together with the generation and
// point-mutation counter it belongs to, all under one read lock, so the
// cache can never tag a new-generation value with a stale generation id
// and can detect a point write landing between snapshot and cache insert.
func (s *Store) getWithGeneration(path string) (*Value, uint64, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen := s.generation.Load()
	mut := s.mutations.Load()
	v, err := s.root.Get(path)
	return v, gen, mut, err
}

// Set writes a value at the path, creating intermediate tables as needed,
// and marks the store dirty on success.
func (s *Store) Set(path string, val *Value) error {
	var old *Value
	err := s.withWrite("set", func() error {
		if prev, err := s.root.Get(path); err == nil {
			old = prev
		}
		if err := s.root.Set(path, val); err != nil {
			return err
		}
		s.dirty.Store(true)
		s.mutations.Add(1)
		return nil
	})
	if err == nil {
		s.record(AuditChange, path, old, val)
	}
	return err
}

// Remove deletes the value at the path and returns it. Removing an absent
// path returns (nil, nil) and leaves the tree and dirty flag untouched.
func (s *Store) Remove(path string) (*Value, error) {
	var removed *Value
	err := s.withWrite("remove", func() error {
		var err error
		removed, err = s.root.Remove(path)
		if err != nil {
			return err
		}
		if removed != nil {
			s.dirty.Store(true)
			s.mutations.Add(1)
		}
		return nil
	})
	if err == nil && removed != nil {
		s.record(AuditChange, path, removed, nil)
	}
	return removed, err
}

// Merge combines another tree into this one, table by table. Scalars and
// arrays are replaced wholesale; tables merge key by key. The whole merge
// counts as a wholesale change, so the generation advances and caches must
// bulk-invalidate.
func (s *Store) Merge(other *Value, strategy MergeStrategy) error {
	if other == nil || other.kind != KindTable {
		return &TypeError{Want: "table", Got: other.Kind(), Value: other.text()}
	}

	err := s.withWrite("merge", func() error {
		if s.root.kind != KindTable {
			return &TypeError{Want: "table", Got: s.root.kind, Value: s.root.text()}
		}
		override := strategy == MergeOverride || strategy == MergeSecureOverride
		mergeTables(s.root, other, override)
		s.dirty.Store(true)
		s.generation.Add(1)

		if strategy == MergeSecureOverride {
			for _, p := range other.Paths() {
				s.secure[p] = true
			}
		}
		return nil
	})
	if err == nil {
		s.record(AuditChange, "", nil, nil)
	}
	return err
}

// mergeTables folds src into dst key by key. Conflicts are decided by
// presence alone: a key set on both sides is a conflict even when one
// value is false, zero or empty. Tables on both sides merge recursively;
// any other pairing replaces wholesale when the incoming side wins.
// Incoming values are cloned so the merged tree never shares nodes with
// the source.
func mergeTables(dst, src *Value, override bool) {
	for key, sv := range src.t {
		dv, ok := dst.t[key]
		if !ok {
			dst.t[key] = sv.Clone()
			continue
		}
		if dv.kind == KindTable && sv.kind == KindTable {
			mergeTables(dv, sv, override)
			continue
		}
		if override {
			dst.t[key] = sv.Clone()
		}
	}
}

// SwapRoot atomically replaces the whole tree and advances the generation.
// This is the hot-reload publish step: the new tree is fully built before
// the lock is taken, so no reader ever observes a partially populated
// root. Returns the new generation id.
func (s *Store) SwapRoot(newRoot *Value) uint64 {
	if newRoot == nil {
		newRoot = Table()
	}
	s.mu.Lock()
	s.root = newRoot
	s.dirty.Store(false)
	gen := s.generation.Add(1)
	s.mu.Unlock()

	s.record(AuditReload, "", nil, nil)
	return gen
}

// Root returns the current tree. Read-only; a hot reload replaces the
// pointer rather than mutating the tree in place.
func (s *Store) Root() *Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Generation returns the current generation id. It advances on every
// wholesale tree replacement (SwapRoot, Merge).
func (s *Store) Generation() uint64 { return s.generation.Load() }

// IsModified reports whether the tree changed since the last MarkClean.
func (s *Store) IsModified() bool { return s.dirty.Load() }

// MarkClean resets the dirty flag, typically after a successful persist.
func (s *Store) MarkClean() { s.dirty.Store(false) }

// Degraded reports whether a mutating section panicked and was recovered.
// The tree is still served but should be considered valid-but-unverified.
func (s *Store) Degraded() bool { return s.degraded.Load() }

// IsSecure reports whether the path was merged via MergeSecureOverride.
func (s *Store) IsSecure(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secure[path]
}

// withWrite runs fn under the write lock. A panic inside fn is recovered:
// the store is marked degraded, the condition is logged, and the caller
// sees a normal return rather than an unwinding failure.
func (s *Store) withWrite(op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.degraded.Store(true)
			s.logger.Warn("store degraded: recovered panic in mutating section, serving last known state",
				"op", op, "panic", r)
			err = nil
		}
	}()
	return fn()
}

// record emits an audit event if a recorder is attached. Sink delivery is
// best-effort and never fails the operation.
func (s *Store) record(kind AuditKind, path string, old, new *Value) {
	s.mu.RLock()
	rec := s.audit
	actor := s.actor
	redact := s.secure[path]
	s.mu.RUnlock()

	if rec == nil {
		return
	}
	if redact {
		if old != nil {
			old = String(redactedPlaceholder)
		}
		if new != nil {
			new = String(redactedPlaceholder)
		}
	}
	rec.Record(AuditEvent{
		Kind:  kind,
		Path:  path,
		Old:   old,
		New:   new,
		Actor: actor,
		Time:  time.Now(),
	})
}
