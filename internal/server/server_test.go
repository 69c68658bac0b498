package server

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vipowerus/schedule-bot/internal/schedule"
	"github.com/vipowerus/schedule-bot/internal/subscription"
)

const adminID = 100

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	fail     map[int64]error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		b.requests = append(b.requests, c)
		return tgbotapi.Message{}, nil
	}
	if err := b.fail[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	b.sent = append(b.sent, msg)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) textsTo(chatID int64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type stubFetcher struct {
	mu     sync.Mutex
	sheets map[string][]schedule.Record
	err    error
}

func (f *stubFetcher) Records(_ context.Context, sheet string) ([]schedule.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sheets[sheet], nil
}

func (f *stubFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *stubFetcher) setRows(sheet string, rows []schedule.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[sheet] = rows
}

// newStubFetcher describes the week of Monday 2026-10-19.
func newStubFetcher() *stubFetcher {
	return &stubFetcher{sheets: map[string][]schedule.Record{
		"schedule": {
			{"group": "10", "weekday": "Tue", "time": "09:25-10:10", "subject": "Physics <Lab>", "room": "12"},
			{"group": "10", "weekday": "Tue", "time": "08:30-09:15", "subject": "Algebra", "teacher": "Ivanova"},
			{"group": "10", "weekday": "Wed", "time": "08:30-09:15", "subject": "Biology"},
			{"group": "11", "weekday": "Tue", "time": "08:30-09:15", "subject": "History"},
		},
		"exams": {
			{"group": "10", "date": "2026-10-21", "time": "10:00", "subject": "Quiz"},
			{"group": "10", "date": "28.10.2026", "subject": "Test"},
			{"group": "10", "date": "2027-02-01", "subject": "Far"},
		},
	}}
}

func newTestServer(t *testing.T, fetcher *stubFetcher) (*Server, *fakeBot) {
	t.Helper()

	config := NewConfig()
	config.Admins = []int64{adminID}
	config.Sheets.SpreadsheetID = "sheet-id"

	logger, _ := test.NewNullLogger()
	bot := &fakeBot{fail: make(map[int64]error)}

	s := New(config)
	s.logger = logger
	s.bot = bot
	s.location = time.UTC
	s.now = func() time.Time { return time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC) }
	s.cache = schedule.NewCache(fetcher, schedule.Options{Groups: config.Groups, Location: time.UTC}, logger)
	s.registry = subscription.NewRegistry(nil)
	return s, bot
}

func commandUpdate(chatID, userID int64, text string) tgbotapi.Update {
	name, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: userID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func textUpdate(chatID, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID},
		Text: text,
	}}
}

func callbackUpdate(chatID, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func lastText(t *testing.T, bot *fakeBot, chatID int64) string {
	t.Helper()
	texts := bot.textsTo(chatID)
	if len(texts) == 0 {
		t.Fatalf("nothing sent to chat %d", chatID)
	}
	return texts[len(texts)-1]
}

func lastMessage(t *testing.T, bot *fakeBot, chatID int64) tgbotapi.MessageConfig {
	t.Helper()
	bot.mu.Lock()
	defer bot.mu.Unlock()
	for i := len(bot.sent) - 1; i >= 0; i-- {
		if bot.sent[i].ChatID == chatID {
			return bot.sent[i]
		}
	}
	t.Fatalf("nothing sent to chat %d", chatID)
	return tgbotapi.MessageConfig{}
}
