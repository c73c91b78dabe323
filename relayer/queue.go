package relayer

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageQueue is a thread-safe store of in-flight messages.
//
// It keeps two structures behind a single lock: the FIFO order in which
// messages became eligible for processing, and the records themselves keyed
// by ID. Every ID in order also exists in messages until it is pruned.
type MessageQueue struct {
	mu       sync.RWMutex
	order    []uuid.UUID
	messages map[uuid.UUID]*QueuedMessage

	now func() time.Time
}

// NewMessageQueue returns an empty queue.
func NewMessageQueue() *MessageQueue {
	return &MessageQueue{
		messages: make(map[uuid.UUID]*QueuedMessage),
		now:      time.Now,
	}
}

// Enqueue appends msg to the back of the queue.
func (q *MessageQueue) Enqueue(msg QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	c := msg.clone()
	q.order = append(q.order, c.ID)
	q.messages[c.ID] = &c
}

// Dequeue returns the oldest message that is still Pending.
//
// IDs popped from the front whose status is no longer Pending are discarded.
// The returned message stays in the queue with its status unchanged; it is
// up to the caller to advance it.
func (q *MessageQueue) Dequeue() (QueuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.order) > 0 {
		id := q.order[0]
		q.order[0] = uuid.Nil
		q.order = q.order[1:]

		msg, ok := q.messages[id]
		if ok && msg.Status.Kind == Pending {
			return msg.clone(), true
		}
	}
	q.order = nil
	return QueuedMessage{}, false
}

// UpdateStatus sets the status and last error of the message with the given id.
// A transition to Failed counts as one more attempt.
// Unknown ids are ignored.
func (q *MessageQueue) UpdateStatus(id uuid.UUID, status MessageStatus, errText string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.updateStatusLocked(id, status, errText)
}

func (q *MessageQueue) updateStatusLocked(id uuid.UUID, status MessageStatus, errText string) bool {
	msg, ok := q.messages[id]
	if !ok {
		return false
	}
	msg.Status = status
	msg.LastError = errText
	msg.UpdatedAt = q.now()
	if status.IsFailed() {
		msg.Attempts++
	}
	return true
}

// Get returns a copy of the message with the given id.
func (q *MessageQueue) Get(id uuid.UUID) (QueuedMessage, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	msg, ok := q.messages[id]
	if !ok {
		return QueuedMessage{}, false
	}
	return msg.clone(), true
}

// MustGet is like Get but returns a MessageNotFound error for unknown ids.
func (q *MessageQueue) MustGet(id uuid.UUID) (QueuedMessage, error) {
	msg, ok := q.Get(id)
	if !ok {
		return QueuedMessage{}, NewMessageNotFoundError(id)
	}
	return msg, nil
}

// PruneOldMessages removes every message older than maxAgeHours,
// except Pending and Proving messages which are never pruned.
// It returns the number of messages removed.
func (q *MessageQueue) PruneOldMessages(maxAgeHours uint64) int {
	maxAge := durationOf(maxAgeHours, time.Hour)

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	pruned := make(map[uuid.UUID]struct{})
	for id, msg := range q.messages {
		if msg.Status.InFlight() {
			continue
		}
		if now.Sub(msg.QueuedAt) < maxAge {
			continue
		}
		delete(q.messages, id)
		pruned[id] = struct{}{}
	}

	if len(pruned) == 0 {
		return 0
	}

	kept := q.order[:0]
	for _, id := range q.order {
		if _, ok := pruned[id]; !ok {
			kept = append(kept, id)
		}
	}
	q.order = kept

	return len(pruned)
}

// RequeueFailed moves Failed messages back to Pending so they are retried.
//
// A message is requeued when its failure reason is retryable, it has not
// made more than maxAttempts attempts, and at least delay has passed since it
// failed. Requeued ids are appended to the back of the queue in the order the
// messages were originally queued.
func (q *MessageQueue) RequeueFailed(maxAttempts uint32, delay time.Duration) []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	queued := make(map[uuid.UUID]struct{}, len(q.order))
	for _, id := range q.order {
		queued[id] = struct{}{}
	}

	var ready []*QueuedMessage
	for id, msg := range q.messages {
		if _, ok := queued[id]; ok {
			continue
		}
		if !msg.Status.IsFailed() || !retryableReason(msg.Status.Reason) {
			continue
		}
		if msg.Attempts > maxAttempts {
			continue
		}
		if now.Sub(msg.UpdatedAt) < delay {
			continue
		}
		ready = append(ready, msg)
	}

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].QueuedAt.Before(ready[j].QueuedAt)
	})

	ids := make([]uuid.UUID, 0, len(ready))
	for _, msg := range ready {
		q.updateStatusLocked(msg.ID, StatusPending, msg.LastError)
		q.order = append(q.order, msg.ID)
		ids = append(ids, msg.ID)
	}
	return ids
}

// Requeue returns an unfinished message to Pending without counting an
// attempt, appending it to the back of the queue unless it is already there.
// It reports whether id is known.
func (q *MessageQueue) Requeue(id uuid.UUID, errText string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.updateStatusLocked(id, StatusPending, errText) {
		return false
	}
	for _, queued := range q.order {
		if queued == id {
			return true
		}
	}
	q.order = append(q.order, id)
	return true
}

// setClock replaces the time source used for pruning and status timestamps.
func (q *MessageQueue) setClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

func retryableReason(reason string) bool {
	return reason != ReasonMaxRetriesExceeded
}

// Len returns the number of messages held by the queue, in any status.
func (q *MessageQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.messages)
}

// PendingLen returns the number of ids waiting in the processing order.
// Some of them may be skipped by Dequeue if their status changed.
func (q *MessageQueue) PendingLen() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order)
}

// Snapshot returns copies of all messages ordered by the time they were queued.
func (q *MessageQueue) Snapshot() []QueuedMessage {
	q.mu.RLock()
	out := make([]QueuedMessage, 0, len(q.messages))
	for _, msg := range q.messages {
		out = append(out, msg.clone())
	}
	q.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QueuedAt.Before(out[j].QueuedAt)
	})
	return out
}

// CountByStatus returns the number of messages per status kind.
func (q *MessageQueue) CountByStatus() map[StatusKind]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[StatusKind]int, len(statusKindNames))
	for _, msg := range q.messages {
		counts[msg.Status.Kind]++
	}
	return counts
}
