// Package subscription tracks which chat receives notifications for which group.
package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Subscription binds a chat to one group. A chat has at most one.
type Subscription struct {
	ChatID  int64
	Group   string
	AddedAt time.Time
}

// Backend persists subscriptions. Save must upsert by ChatID.
type Backend interface {
	Load(ctx context.Context) ([]Subscription, error)
	Save(ctx context.Context, sub Subscription) error
	Delete(ctx context.Context, chatIDs ...int64) error
}

// Registry is the in-memory view of all subscriptions, written through to a
// Backend. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	subs    map[int64]Subscription
	backend Backend
	now     func() time.Time
}

// NewRegistry returns an empty registry. A nil backend keeps subscriptions in
// memory only.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		subs:    make(map[int64]Subscription),
		backend: backend,
		now:     time.Now,
	}
}

// Load replaces the in-memory state with the backend contents. Duplicate chat
// ids keep the last row.
func (r *Registry) Load(ctx context.Context) error {
	if r.backend == nil {
		return nil
	}
	subs, err := r.backend.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load subscriptions")
	}
	loaded := make(map[int64]Subscription, len(subs))
	for _, sub := range subs {
		loaded[sub.ChatID] = sub
	}

	r.mu.Lock()
	r.subs = loaded
	r.mu.Unlock()
	return nil
}

// Subscribe points chatID at group, replacing any earlier group. It reports
// false when the chat was already subscribed to the same group.
func (r *Registry) Subscribe(ctx context.Context, chatID int64, group string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.subs[chatID]; ok && cur.Group == group {
		return false, nil
	}
	sub := Subscription{ChatID: chatID, Group: group, AddedAt: r.now()}
	if r.backend != nil {
		if err := r.backend.Save(ctx, sub); err != nil {
			return false, errors.Wrapf(err, "save subscription of chat %d", chatID)
		}
	}
	r.subs[chatID] = sub
	return true, nil
}

// Unsubscribe removes the subscription of chatID. It reports false when there
// was nothing to remove.
func (r *Registry) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[chatID]; !ok {
		return false, nil
	}
	if r.backend != nil {
		if err := r.backend.Delete(ctx, chatID); err != nil {
			return false, errors.Wrapf(err, "delete subscription of chat %d", chatID)
		}
	}
	delete(r.subs, chatID)
	return true, nil
}

// Prune removes several chats at once, typically ones that blocked the bot.
func (r *Registry) Prune(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend != nil {
		if err := r.backend.Delete(ctx, chatIDs...); err != nil {
			return errors.Wrap(err, "prune subscriptions")
		}
	}
	for _, id := range chatIDs {
		delete(r.subs, id)
	}
	return nil
}

// Get returns the subscription of chatID.
func (r *Registry) Get(chatID int64) (Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[chatID]
	return sub, ok
}

// ListByGroup returns the chats subscribed to group in ascending order.
func (r *Registry) ListByGroup(group string) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int64
	for id, sub := range r.subs {
		if sub.Group == group {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CountByGroup returns the number of subscribers per group.
func (r *Registry) CountByGroup() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, sub := range r.subs {
		counts[sub.Group]++
	}
	return counts
}

// Len ...
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
