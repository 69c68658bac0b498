package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	constants "github.com/vipowerus/schedule-bot/internal"
)

// fanOutBackoff is the pause after a failed send so a flood limit can clear.
var fanOutBackoff = 50 * time.Millisecond

func (s *Server) handleAdminAction(req request, action string) {
	switch action {
	case "panel":
		s.handleAdmin(req)
	case "info":
		s.handleAdminInfo(req)
	case "reload":
		s.handleAdminReload(req)
	case "broadcast":
		s.handleBroadcast(req)
	case "back":
		s.reply(req.chatID, constants.MainMenuMessage, mainMenuKeyboard(true))
	default:
		s.logger.WithField("action", action).Warn("unknown admin action")
	}
}

func (s *Server) handleAdmin(req request) {
	s.reply(req.chatID, constants.AdminPanelMessage, adminPanelKeyboard())
}

func (s *Server) handleAdminInfo(req request) {
	snap := s.cache.Snapshot()
	updated := "—"
	if s.cache.Loaded() {
		updated = snap.FetchedAt.In(s.location).Format("02.01.2006 15:04:05")
	}
	text := fmt.Sprintf(constants.AdminInfoMessage,
		s.location.String(),
		snap.ScheduleRows,
		snap.ExamRows,
		snap.Skipped,
		updated,
		html.EscapeString(s.subscriberSummary()),
		html.EscapeString(s.config.Sheets.SpreadsheetID),
	)
	s.reply(req.chatID, text, adminPanelKeyboard())
}

// subscriberSummary renders "10: 3, 11: 5"; configured groups come first.
func (s *Server) subscriberSummary() string {
	counts := s.registry.CountByGroup()
	parts := make([]string, 0, len(counts))
	for _, g := range s.config.Groups {
		parts = append(parts, fmt.Sprintf("%s: %d", g, counts[g]))
		delete(counts, g)
	}
	rest := make([]string, 0, len(counts))
	for g := range counts {
		rest = append(rest, g)
	}
	sort.Strings(rest)
	for _, g := range rest {
		parts = append(parts, fmt.Sprintf("%s: %d", g, counts[g]))
	}
	return strings.Join(parts, ", ")
}

// handleAdminReload refreshes in the background and reports back to the
// admin; the update loop keeps serving meanwhile.
func (s *Server) handleAdminReload(req request) {
	s.reply(req.chatID, constants.ReloadStartedMessage, nil)

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.refresh(ctx); err != nil {
			s.reply(req.chatID, fmt.Sprintf(constants.ReloadFailedMessage, html.EscapeString(err.Error())), nil)
			return
		}
		s.reply(req.chatID, constants.ReloadDoneMessage, nil)
	}()
}

func (s *Server) handleBroadcast(req request) {
	s.sessions.update(req.chatID, func(sess *session) {
		sess.state = stateBroadcastGroup
		sess.broadcastGroup = ""
	})
	s.reply(req.chatID, constants.BroadcastChooseMessage, broadcastKeyboard(s.config.Groups))
}

func (s *Server) chooseBroadcastGroup(req request, group string) {
	if s.sessions.get(req.chatID).state != stateBroadcastGroup {
		s.reply(req.chatID, constants.BadChoiceMessage, nil)
		return
	}
	if group != allGroups && !s.config.HasGroup(group) {
		s.reply(req.chatID, constants.BadChoiceMessage, nil)
		return
	}
	s.sessions.update(req.chatID, func(sess *session) {
		sess.state = stateBroadcastText
		sess.broadcastGroup = group
	})
	s.reply(req.chatID, fmt.Sprintf(constants.BroadcastTextMessage, html.EscapeString(groupLabel(group))), nil)
}

func (s *Server) handleBroadcastText(req request, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.reply(req.chatID, constants.BroadcastEmptyMessage, nil)
		return
	}
	group := s.sessions.get(req.chatID).broadcastGroup
	s.sessions.endDialog(req.chatID)

	var targets []int64
	if group == allGroups {
		for _, g := range s.config.Groups {
			targets = append(targets, s.registry.ListByGroup(g)...)
		}
	} else {
		targets = s.registry.ListByGroup(group)
	}
	if len(targets) == 0 {
		s.reply(req.chatID, constants.BroadcastNoTargetMessage, nil)
		return
	}

	body := fmt.Sprintf(constants.BroadcastHeader, html.EscapeString(groupLabel(group)), html.EscapeString(text))
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(targets))*requestTimeout)
		defer cancel()

		sent, failed := s.fanOut(ctx, targets, body, "broadcast")
		s.reply(req.chatID, fmt.Sprintf(constants.BroadcastDoneMessage, sent, failed), nil)
	}()
}

func groupLabel(group string) string {
	if group == allGroups {
		return "все группы"
	}
	return group
}

// fanOut sends text to every chat in targets and returns how many sends
// succeeded and failed. Chats that blocked the bot are unsubscribed.
func (s *Server) fanOut(ctx context.Context, targets []int64, text, kind string) (sent, failed int) {
	log := s.logger.WithFields(logrus.Fields{
		"fanout_id": uuid.NewString(),
		"kind":      kind,
		"targets":   len(targets),
	})

	var blocked []int64
	for _, chatID := range targets {
		if ctx.Err() != nil {
			failed += len(targets) - sent - failed
			break
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := s.bot.Send(msg); err != nil {
			failed++
			if isBlocked(err) {
				blocked = append(blocked, chatID)
			}
			log.WithField("chat_id", chatID).WithError(err).Warn("send failed")
			time.Sleep(fanOutBackoff)
			continue
		}
		sent++
	}

	if len(blocked) > 0 {
		if err := s.registry.Prune(ctx, blocked...); err != nil {
			log.WithError(err).Error("prune blocked chats")
		} else {
			log.WithField("pruned", len(blocked)).Info("blocked chats unsubscribed")
		}
	}
	log.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("fan-out finished")
	return sent, failed
}

// isBlocked reports a 403 from Telegram: the user blocked the bot or the
// chat is gone.
func isBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}
