package server

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	constants "github.com/vipowerus/schedule-bot/internal"
	"github.com/vipowerus/schedule-bot/internal/schedule"
)

const (
	requestTimeout = 10 * time.Second
	upcomingDays   = 90
)

// request is what a handler needs from a message or a button press.
type request struct {
	chatID   int64
	userID   int64
	userName string
	args     string
}

type command struct {
	name        string
	description string
	admin       bool
	handle      func(*Server, request)
}

var commandTable = []command{
	{name: "start", description: "Начать и выбрать класс", handle: (*Server).handleStart},
	{name: "help", description: "Список команд", handle: (*Server).handleHelp},
	{name: "group", description: "Сменить группу", handle: (*Server).handleGroup},
	{name: "today", description: "Расписание на сегодня", handle: (*Server).handleToday},
	{name: "tomorrow", description: "Расписание на завтра", handle: (*Server).handleTomorrow},
	{name: "week", description: "Расписание на неделю", handle: (*Server).handleWeek},
	{name: "nextweek", description: "Расписание на следующую неделю", handle: (*Server).handleNextWeek},
	{name: "date", description: "Расписание на дату (YYYY-MM-DD)", handle: (*Server).handleDate},
	{name: "exams", description: "Ближайшие контрольные", handle: (*Server).handleExams},
	{name: "exams_week", description: "Контрольные на неделю", handle: (*Server).handleExamsWeek},
	{name: "exams_nextweek", description: "Контрольные на следующую неделю", handle: (*Server).handleExamsNextWeek},
	{name: "subscribe", description: "Подписаться на изменения", handle: (*Server).handleSubscribe},
	{name: "unsubscribe", description: "Отписаться от изменений", handle: (*Server).handleUnsubscribe},
	{name: "cancel", description: "Отменить текущую операцию", handle: (*Server).handleCancel},
	{name: "admin", description: "Админ-панель", admin: true, handle: (*Server).handleAdmin},
	{name: "admin_info", description: "Состояние бота", admin: true, handle: (*Server).handleAdminInfo},
	{name: "admin_reload", description: "Перечитать таблицу", admin: true, handle: (*Server).handleAdminReload},
	{name: "broadcast", description: "Рассылка объявления", admin: true, handle: (*Server).handleBroadcast},
}

func findCommand(name string) (command, bool) {
	for _, c := range commandTable {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// handleUpdate routes one update. A panicking handler is logged and does
// not stop the update loop.
func (s *Server) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("update handler panicked")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		s.handleMessage(update.Message)
	}
}

func (s *Server) handleMessage(m *tgbotapi.Message) {
	req := request{chatID: m.Chat.ID}
	if m.From != nil {
		req.userID = m.From.ID
		req.userName = m.From.UserName
	}

	if m.IsCommand() {
		req.args = strings.TrimSpace(m.CommandArguments())
		s.runCommand(m.Command(), req)
		return
	}

	if s.sessions.get(req.chatID).state == stateBroadcastText && s.config.IsAdmin(req.userID) {
		s.handleBroadcastText(req, m.Text)
		return
	}
	s.reply(req.chatID, constants.HelpCommandMessage, nil)
}

func (s *Server) runCommand(name string, req request) {
	cmd, ok := findCommand(name)
	if !ok {
		s.reply(req.chatID, constants.UnknownCommandMessage, nil)
		return
	}
	s.logger.WithFields(logrus.Fields{
		"command": name,
		"chat_id": req.chatID,
		"user":    req.userName,
	}).Debug("command")

	if cmd.admin && !s.config.IsAdmin(req.userID) {
		s.reply(req.chatID, constants.AdminOnlyMessage, nil)
		return
	}
	cmd.handle(s, req)
}

// handleCallback serves inline keyboard presses. Callback data is
// "<kind>:<value>".
func (s *Server) handleCallback(cq *tgbotapi.CallbackQuery) {
	defer s.answer(cq, "")
	if cq.Message == nil || cq.From == nil {
		return
	}
	req := request{chatID: cq.Message.Chat.ID, userID: cq.From.ID, userName: cq.From.UserName}

	kind, value, _ := strings.Cut(cq.Data, ":")
	switch kind {
	case "pick_group":
		if !s.config.HasGroup(value) {
			s.reply(req.chatID, constants.BadChoiceMessage, nil)
			return
		}
		s.setGroup(req, value)
	case "menu":
		if value == "change_group" {
			value = "group"
		}
		s.runCommand(value, req)
	case "subs":
		group := strings.TrimPrefix(value, "add:")
		s.subscribe(req, group)
	case "admin":
		if !s.config.IsAdmin(req.userID) {
			s.reply(req.chatID, constants.AdminOnlyMessage, nil)
			return
		}
		s.handleAdminAction(req, value)
	case "broadcast":
		if !s.config.IsAdmin(req.userID) {
			s.reply(req.chatID, constants.AdminOnlyMessage, nil)
			return
		}
		if value == "cancel" {
			s.handleCancel(req)
			return
		}
		s.chooseBroadcastGroup(req, strings.TrimPrefix(value, "grp:"))
	default:
		s.logger.WithField("data", cq.Data).Warn("unknown callback")
	}
}

// handleStart ...
func (s *Server) handleStart(req request) {
	s.sessions.endDialog(req.chatID)
	s.reply(req.chatID, constants.StartCommandMessage, groupsKeyboard(s.config.Groups))
}

// handleHelp ...
func (s *Server) handleHelp(req request) {
	s.reply(req.chatID, constants.HelpCommandMessage, mainMenuKeyboard(s.config.IsAdmin(req.userID)))
}

func (s *Server) handleGroup(req request) {
	s.sessions.endDialog(req.chatID)
	switch {
	case req.args == "":
		s.reply(req.chatID, constants.ChooseGroupMessage, groupsKeyboard(s.config.Groups))
	case s.config.HasGroup(req.args):
		s.setGroup(req, req.args)
	default:
		s.reply(req.chatID, constants.UnknownGroupMessage, groupsKeyboard(s.config.Groups))
	}
}

func (s *Server) setGroup(req request, group string) {
	s.sessions.update(req.chatID, func(sess *session) { sess.group = group })
	s.reply(req.chatID, fmt.Sprintf(constants.GroupSetMessage, html.EscapeString(group)), s.menu(req))
}

// menu is the keyboard attached under every schedule reply.
func (s *Server) menu(req request) tgbotapi.InlineKeyboardMarkup {
	return mainMenuKeyboard(s.config.IsAdmin(req.userID))
}

// groupFor picks the group a chat asked about: the one chosen in this
// session, else the subscribed one.
func (s *Server) groupFor(chatID int64) (string, bool) {
	if g := s.sessions.get(chatID).group; g != "" {
		return g, true
	}
	if sub, ok := s.registry.Get(chatID); ok && s.config.HasGroup(sub.Group) {
		return sub.Group, true
	}
	return "", false
}

// scheduleGroup resolves the group and checks the cache has data. It
// answers the user itself when either is missing.
func (s *Server) scheduleGroup(req request) (string, bool) {
	group, ok := s.groupFor(req.chatID)
	if !ok {
		s.reply(req.chatID, constants.GroupFirstMessage, groupsKeyboard(s.config.Groups))
		return "", false
	}
	if !s.cache.Loaded() {
		s.reply(req.chatID, constants.DataUnavailableMessage, nil)
		return "", false
	}
	return group, true
}

func (s *Server) today() time.Time {
	return schedule.Day(s.now().In(s.location))
}

func (s *Server) handleToday(req request) {
	s.sendDay(req, s.today())
}

func (s *Server) handleTomorrow(req request) {
	s.sendDay(req, s.today().AddDate(0, 0, 1))
}

func (s *Server) handleDate(req request) {
	if req.args == "" {
		s.reply(req.chatID, constants.DateUsageMessage, nil)
		return
	}
	day, ok := schedule.ParseDate(req.args, s.location)
	if !ok {
		s.reply(req.chatID, constants.DateFormatMessage, nil)
		return
	}
	s.sendDay(req, day)
}

func (s *Server) sendDay(req request, day time.Time) {
	group, ok := s.scheduleGroup(req)
	if !ok {
		return
	}
	s.reply(req.chatID, formatDay(s.cache.Lookup(group, day), "02.01.2006"), s.menu(req))
}

func (s *Server) handleWeek(req request) {
	s.sendWeek(req, 0)
}

func (s *Server) handleNextWeek(req request) {
	s.sendWeek(req, 1)
}

func (s *Server) sendWeek(req request, offset int) {
	group, ok := s.scheduleGroup(req)
	if !ok {
		return
	}
	monday := schedule.MondayOf(s.today()).AddDate(0, 0, 7*offset)
	s.reply(req.chatID, formatWeek(s.cache.LookupWeek(group, monday)), s.menu(req))
}

func (s *Server) handleExams(req request) {
	group, ok := s.scheduleGroup(req)
	if !ok {
		return
	}
	from := s.today()
	exams := s.cache.Exams(group, from, from.AddDate(0, 0, upcomingDays))
	title := fmt.Sprintf(constants.ExamsUpcomingTitle, html.EscapeString(group))
	s.reply(req.chatID, formatExams(exams, title), s.menu(req))
}

func (s *Server) handleExamsWeek(req request) {
	s.sendExamsWeek(req, 0, constants.ExamsWeekTitle)
}

func (s *Server) handleExamsNextWeek(req request) {
	s.sendExamsWeek(req, 1, constants.ExamsNextWeekTitle)
}

func (s *Server) sendExamsWeek(req request, offset int, titleFormat string) {
	group, ok := s.scheduleGroup(req)
	if !ok {
		return
	}
	monday := schedule.MondayOf(s.today()).AddDate(0, 0, 7*offset)
	exams := s.cache.Exams(group, monday, monday.AddDate(0, 0, 6))
	title := fmt.Sprintf(titleFormat, weekRange(monday), html.EscapeString(group))
	s.reply(req.chatID, formatExams(exams, title), s.menu(req))
}

func (s *Server) handleSubscribe(req request) {
	switch {
	case req.args == "":
		s.reply(req.chatID, constants.SubscribeChooseMessage, subscribeKeyboard(s.config.Groups))
	case s.config.HasGroup(req.args):
		s.subscribe(req, req.args)
	default:
		s.reply(req.chatID, constants.UnknownGroupMessage, subscribeKeyboard(s.config.Groups))
	}
}

func (s *Server) subscribe(req request, group string) {
	if !s.config.HasGroup(group) {
		s.reply(req.chatID, constants.BadChoiceMessage, nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	changed, err := s.registry.Subscribe(ctx, req.chatID, group)
	if err != nil {
		s.logger.WithField("chat_id", req.chatID).WithError(err).Error("subscribe")
		s.reply(req.chatID, constants.InternalErrorMessage, nil)
		return
	}
	if !changed {
		s.reply(req.chatID, fmt.Sprintf(constants.AlreadySubscribedMessage, html.EscapeString(group)), nil)
		return
	}
	s.logger.WithFields(logrus.Fields{"chat_id": req.chatID, "group": group}).Info("subscribed")
	s.reply(req.chatID, fmt.Sprintf(constants.SubscribedMessage, html.EscapeString(group)), nil)
}

func (s *Server) handleUnsubscribe(req request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	removed, err := s.registry.Unsubscribe(ctx, req.chatID)
	if err != nil {
		s.logger.WithField("chat_id", req.chatID).WithError(err).Error("unsubscribe")
		s.reply(req.chatID, constants.InternalErrorMessage, nil)
		return
	}
	if !removed {
		s.reply(req.chatID, constants.NotSubscribedMessage, nil)
		return
	}
	s.logger.WithField("chat_id", req.chatID).Info("unsubscribed")
	s.reply(req.chatID, constants.UnsubscribedMessage, nil)
}

func (s *Server) handleCancel(req request) {
	if s.sessions.get(req.chatID).state != stateIdle {
		s.sessions.endDialog(req.chatID)
		s.reply(req.chatID, constants.BroadcastCancelled, nil)
		return
	}
	s.reply(req.chatID, constants.OperationCancelled, nil)
}
