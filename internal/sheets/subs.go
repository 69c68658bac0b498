package sheets

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/vipowerus/schedule-bot/internal/subscription"
)

var subsHeader = []interface{}{"user_id", "group", "added_at"}

type subsRow struct {
	UserID  int64  `mapstructure:"user_id"`
	Group   string `mapstructure:"group"`
	AddedAt string `mapstructure:"added_at"`
}

// SubscriptionSheet stores subscriptions in a worksheet with the columns
// user_id, group, added_at.
type SubscriptionSheet struct {
	client *Client
	sheet  string

	mu     sync.Mutex
	headed bool
}

// NewSubscriptionSheet ...
func NewSubscriptionSheet(client *Client, sheet string) *SubscriptionSheet {
	return &SubscriptionSheet{client: client, sheet: sheet}
}

func (s *SubscriptionSheet) rng(a1 string) string {
	return quoteSheet(s.sheet) + "!" + a1
}

// ensureHeader creates the sheet and rewrites its first row when needed.
func (s *SubscriptionSheet) ensureHeader(ctx context.Context) error {
	if s.headed {
		return nil
	}
	if err := s.client.EnsureSheet(ctx, s.sheet); err != nil {
		return err
	}
	first, err := s.client.values(ctx, s.rng("A1:C1"))
	if err != nil {
		return err
	}
	if len(first) == 0 || !sameRow(first[0], subsHeader) {
		if err := s.client.update(ctx, s.rng("A1:C1"), [][]interface{}{subsHeader}); err != nil {
			return err
		}
	}
	s.headed = true
	return nil
}

// Load ...
func (s *SubscriptionSheet) Load(ctx context.Context) ([]subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	values, err := s.client.values(ctx, quoteSheet(s.sheet))
	if err != nil {
		return nil, err
	}

	var subs []subscription.Subscription
	for _, rec := range toRecords(values) {
		var row subsRow
		if err := mapstructure.WeakDecode(map[string]interface{}(rec), &row); err != nil || row.UserID == 0 {
			continue
		}
		added, _ := time.Parse(time.RFC3339, row.AddedAt)
		subs = append(subs, subscription.Subscription{ChatID: row.UserID, Group: row.Group, AddedAt: added})
	}
	return subs, nil
}

// Save updates the row of the chat in place or appends a new one.
func (s *SubscriptionSheet) Save(ctx context.Context, sub subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(ctx); err != nil {
		return err
	}
	values, err := s.client.values(ctx, s.rng("A:C"))
	if err != nil {
		return err
	}
	row := []interface{}{strconv.FormatInt(sub.ChatID, 10), sub.Group, sub.AddedAt.Format(time.RFC3339)}
	id := strconv.FormatInt(sub.ChatID, 10)
	for i := 1; i < len(values); i++ {
		if len(values[i]) > 0 && cellString(values[i][0]) == id {
			return s.client.update(ctx, s.rng(fmt.Sprintf("A%d:C%d", i+1, i+1)), [][]interface{}{row})
		}
	}
	return s.client.appendRows(ctx, s.rng("A:C"), [][]interface{}{row})
}

// Delete rewrites the data rows without the given chats.
func (s *SubscriptionSheet) Delete(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(ctx); err != nil {
		return err
	}
	values, err := s.client.values(ctx, s.rng("A:C"))
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(chatIDs))
	for _, id := range chatIDs {
		drop[strconv.FormatInt(id, 10)] = true
	}

	var kept [][]interface{}
	removed := 0
	for _, row := range values[min(1, len(values)):] {
		if len(row) > 0 && drop[cellString(row[0])] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return nil
	}
	if err := s.client.clear(ctx, s.rng("A2:C")); err != nil {
		return errors.Wrap(err, "clear subscriptions")
	}
	if len(kept) == 0 {
		return nil
	}
	return s.client.update(ctx, s.rng("A2"), kept)
}

func sameRow(got, want []interface{}) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if cellString(got[i]) != cellString(want[i]) {
			return false
		}
	}
	return true
}
