package server

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	constants "github.com/vipowerus/schedule-bot/internal"
)

func TestScheduleNeedsGroup(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())

	s.handleUpdate(commandUpdate(1, 1, "/today"))
	if got := lastText(t, bot, 1); got != constants.GroupFirstMessage {
		t.Errorf("reply = %q, want %q", got, constants.GroupFirstMessage)
	}
}

func TestScheduleBeforeFirstLoad(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())

	s.handleUpdate(commandUpdate(1, 1, "/group 10"))
	s.handleUpdate(commandUpdate(1, 1, "/week"))
	if got := lastText(t, bot, 1); got != constants.DataUnavailableMessage {
		t.Errorf("reply = %q, want %q", got, constants.DataUnavailableMessage)
	}
}

func TestScheduleCommands(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	s.handleUpdate(callbackUpdate(1, 1, "pick_group:10"))
	if got := lastText(t, bot, 1); !strings.Contains(got, "<b>10</b>") {
		t.Fatalf("pick group reply = %q", got)
	}

	tests := []struct {
		name    string
		text    string
		want    []string
		notWant []string
	}{
		{
			name: "today",
			text: "/today",
			want: []string{"Вторник (20.10.2026)", "1. 08:30-09:15 — Algebra (Ivanova)", "2. 09:25-10:10 — Physics &lt;Lab&gt; (ауд. 12)"},
		},
		{
			name:    "tomorrow",
			text:    "/tomorrow",
			want:    []string{"Среда (21.10.2026)", "Biology", "📌 Quiz — 10:00"},
			notWant: []string{"Algebra"},
		},
		{
			name:    "week",
			text:    "/week",
			want:    []string{"Понедельник (19.10)", "Пятница (23.10)", "Algebra", "Biology"},
			notWant: []string{"Суббота"},
		},
		{
			name:    "next week",
			text:    "/nextweek",
			want:    []string{"Понедельник (26.10)", "📌 Test"},
			notWant: []string{"Quiz"},
		},
		{
			name: "date iso",
			text: "/date 2026-10-27",
			want: []string{"Вторник (27.10.2026)", "Algebra"},
		},
		{
			name: "date dotted",
			text: "/date 21.10.2026",
			want: []string{"Biology"},
		},
		{
			name: "date empty day",
			text: "/date 2026-10-25",
			want: []string{constants.NoLessonsMessage},
		},
		{
			name: "bad date",
			text: "/date tomorrow",
			want: []string{constants.DateFormatMessage},
		},
		{
			name: "date without argument",
			text: "/date",
			want: []string{constants.DateUsageMessage},
		},
		{
			name:    "upcoming exams",
			text:    "/exams",
			want:    []string{"Quiz", "Test"},
			notWant: []string{"Far"},
		},
		{
			name:    "exams this week",
			text:    "/exams_week",
			want:    []string{"19.10–25.10", "1. 2026-10-21 — 10:00: Quiz"},
			notWant: []string{"Test"},
		},
		{
			name:    "exams next week",
			text:    "/exams_nextweek",
			want:    []string{"26.10–01.11", "Test"},
			notWant: []string{"Quiz"},
		},
		{
			name: "unknown command",
			text: "/whatever",
			want: []string{constants.UnknownCommandMessage},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.handleUpdate(commandUpdate(1, 1, tc.text))
			got := lastText(t, bot, 1)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("reply to %s = %q, want it to contain %q", tc.text, got, w)
				}
			}
			for _, nw := range tc.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("reply to %s = %q, must not contain %q", tc.text, got, nw)
				}
			}
		})
	}
}

func TestMenuCallbackRunsCommand(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}

	s.handleUpdate(callbackUpdate(1, 1, "pick_group:11"))
	s.handleUpdate(callbackUpdate(1, 1, "menu:today"))
	if got := lastText(t, bot, 1); !strings.Contains(got, "History") {
		t.Errorf("menu:today reply = %q, want group 11 lessons", got)
	}

	s.handleUpdate(callbackUpdate(1, 1, "pick_group:99"))
	if got := lastText(t, bot, 1); got != constants.BadChoiceMessage {
		t.Errorf("unknown group reply = %q", got)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}

	steps := []struct {
		text string
		want string
	}{
		{"/subscribe 10", fmt.Sprintf(constants.SubscribedMessage, "10")},
		{"/subscribe 10", fmt.Sprintf(constants.AlreadySubscribedMessage, "10")},
		{"/subscribe 99", constants.UnknownGroupMessage},
		{"/unsubscribe", constants.UnsubscribedMessage},
		{"/unsubscribe", constants.NotSubscribedMessage},
	}
	for i, step := range steps {
		s.handleUpdate(commandUpdate(7, 7, step.text))
		if got := lastText(t, bot, 7); got != step.want {
			t.Fatalf("step %d %s: reply = %q, want %q", i, step.text, got, step.want)
		}
		if i == 1 {
			// the subscription alone is enough to pick the group
			s.handleUpdate(commandUpdate(7, 7, "/today"))
			if got := lastText(t, bot, 7); !strings.Contains(got, "Algebra") {
				t.Fatalf("today for subscriber = %q", got)
			}
		}
	}
	if _, ok := s.registry.Get(7); ok {
		t.Error("registry still holds chat 7 after unsubscribe")
	}

	s.handleUpdate(callbackUpdate(8, 8, "subs:add:11"))
	if got := s.registry.ListByGroup("11"); len(got) != 1 || got[0] != 8 {
		t.Errorf("ListByGroup(11) = %v, want [8]", got)
	}
}

func TestSessionGroupWinsOverSubscription(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}

	s.handleUpdate(commandUpdate(1, 1, "/subscribe 10"))
	s.handleUpdate(commandUpdate(1, 1, "/group 11"))
	s.handleUpdate(commandUpdate(1, 1, "/today"))
	if got := lastText(t, bot, 1); !strings.Contains(got, "History") {
		t.Errorf("today = %q, want the session group 11", got)
	}
}

func TestAdminCommandsRejected(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())

	for _, text := range []string{"/admin", "/admin_info", "/admin_reload", "/broadcast"} {
		s.handleUpdate(commandUpdate(5, 5, text))
		if got := lastText(t, bot, 5); got != constants.AdminOnlyMessage {
			t.Errorf("%s by a regular user: reply = %q", text, got)
		}
	}
	s.handleUpdate(callbackUpdate(5, 5, "admin:reload"))
	if got := lastText(t, bot, 5); got != constants.AdminOnlyMessage {
		t.Errorf("admin callback by a regular user: reply = %q", got)
	}
	if s.cache.Loaded() {
		t.Error("rejected reload still refreshed the cache")
	}
}

func TestCallbacksAreAnswered(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())

	s.handleUpdate(callbackUpdate(1, 1, "pick_group:10"))
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.requests) != 1 {
		t.Errorf("callback answers = %d, want 1", len(bot.requests))
	}
}

func TestPlainTextOutsideDialog(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())

	s.handleUpdate(textUpdate(1, 1, "hello"))
	if got := lastText(t, bot, 1); got != constants.HelpCommandMessage {
		t.Errorf("reply = %q, want help", got)
	}
}

func TestScheduleRepliesKeepMainMenu(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	s.handleUpdate(commandUpdate(adminID, adminID, "/group 10"))

	for _, text := range []string{"/today", "/tomorrow", "/date 2026-10-21", "/week", "/nextweek", "/exams", "/exams_week", "/exams_nextweek"} {
		s.handleUpdate(commandUpdate(adminID, adminID, text))
		msg := lastMessage(t, bot, adminID)
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			t.Errorf("%s: reply markup = %T, want the main menu", text, msg.ReplyMarkup)
			continue
		}
		last := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
		if data := last[0].CallbackData; data == nil || *data != "admin:panel" {
			t.Errorf("%s: admin menu row missing for an admin", text)
		}
	}
}

func TestGroupCommandEndsBroadcastDialog(t *testing.T) {
	s, bot := newTestServer(t, newStubFetcher())
	subscribeAll(t, s, map[int64]string{1: "10"})

	s.handleUpdate(commandUpdate(adminID, adminID, "/broadcast"))
	s.handleUpdate(callbackUpdate(adminID, adminID, "broadcast:grp:10"))
	s.handleUpdate(commandUpdate(adminID, adminID, "/group 11"))
	if st := s.sessions.get(adminID).state; st != stateIdle {
		t.Fatalf("dialog state after /group = %v, want idle", st)
	}
	if g := s.sessions.get(adminID).group; g != "11" {
		t.Errorf("session group = %q, want 11", g)
	}

	s.handleUpdate(textUpdate(adminID, adminID, "not an announcement"))
	s.jobs.Wait()
	if got := bot.textsTo(1); len(got) != 0 {
		t.Errorf("text after /group was broadcast: %q", got)
	}
	if got := lastText(t, bot, adminID); got != constants.HelpCommandMessage {
		t.Errorf("reply = %q, want help", got)
	}
}
