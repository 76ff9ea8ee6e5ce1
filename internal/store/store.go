// Package store provides the in-memory session table.
//
// The table is sharded to reduce lock contention: operations on ids that
// land on different shards never block each other, and no table-wide lock
// is ever taken by a single-id operation.
package store

import (
	"hash/maphash"
	"sync"
	"time"

	apperrors "github.com/onelink/captcha-server-go/internal/errors"
	"github.com/onelink/captcha-server-go/internal/model"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Table is a concurrent-safe sharded session table. All field changes to a
// stored record must go through Mutate; Get hands out snapshot copies.
type Table struct {
	shards    []*shard
	shardMask uint64
	seed      maphash.Seed
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// New creates a session table with the default shard count.
func New() *Table {
	return NewWithShards(DefaultShardCount)
}

// NewWithShards creates a session table with the specified shard count.
// shardCount must be a power of 2.
func NewWithShards(shardCount int) *Table {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	t := &Table{
		shards:    make([]*shard, shardCount),
		shardMask: uint64(shardCount - 1),
		seed:      maphash.MakeSeed(),
	}

	for i := 0; i < shardCount; i++ {
		t.shards[i] = &shard{
			sessions: make(map[string]*model.Session),
		}
	}

	return t
}

func (t *Table) getShard(id string) *shard {
	hash := maphash.String(t.seed, id)
	return t.shards[hash&t.shardMask]
}

// Put inserts a new record. Ids are 122-bit random uuids, so a collision is
// astronomically unlikely; the duplicate check is defensive only.
func (t *Table) Put(s *model.Session) error {
	sh := t.getShard(s.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.sessions[s.ID]; exists {
		return apperrors.DuplicateID(s.ID)
	}
	sh.sessions[s.ID] = s
	return nil
}

// Get returns a snapshot copy of the record, if present. Mutating the copy
// has no effect on the stored record.
func (t *Table) Get(id string) (model.Session, bool) {
	sh := t.getShard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

// Mutate atomically applies fn to the record identified by id while holding
// the shard lock, so no caller can observe a partially-updated record. If fn
// returns false the record is removed from the table. Mutate returns false
// if the id is not present.
func (t *Table) Mutate(id string, fn func(*model.Session) bool) bool {
	sh := t.getShard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, ok := sh.sessions[id]
	if !ok {
		return false
	}
	if keep := fn(s); !keep {
		delete(sh.sessions, id)
	}
	return true
}

// Delete removes a record. Removing an absent id is a no-op.
func (t *Table) Delete(id string) {
	sh := t.getShard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, id)
}

// Len returns the total number of stored sessions.
func (t *Table) Len() int {
	count := 0
	for _, sh := range t.shards {
		sh.mu.RLock()
		count += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return count
}

// DeleteExpired removes every session whose expiry has passed at now and
// returns the number removed. Used by the background sweep; lazy expiry
// checks in the lifecycle operations remain the authoritative behavior.
func (t *Table) DeleteExpired(now time.Time) int {
	removed := 0
	for _, sh := range t.shards {
		sh.mu.Lock()
		for id, s := range sh.sessions {
			if s.Expired(now) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
