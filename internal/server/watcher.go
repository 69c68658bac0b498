package server

import (
	"context"
	"fmt"
	"html"
	"time"

	constants "github.com/vipowerus/schedule-bot/internal"
)

// refreshJob is the cron entry.
func (s *Server) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("scheduled refresh failed")
	}
}

// refresh reloads the cache, warns admins once per failure streak and tells
// subscribers of every group whose data changed. The first successful load
// only records digests.
func (s *Server) refresh(ctx context.Context) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		if !s.refreshFailing {
			s.refreshFailing = true
			s.alert(fmt.Sprintf(constants.RefreshFailedWarning, html.EscapeString(err.Error())))
		}
		return err
	}
	if s.refreshFailing {
		s.logger.Info("spreadsheet refresh recovered")
		s.refreshFailing = false
	}

	first := s.digests == nil
	digests := make(map[string]string, len(s.config.Groups))
	var changed []string
	for _, g := range s.config.Groups {
		digests[g] = snap.Digest(g)
		if !first && s.digests[g] != digests[g] {
			changed = append(changed, g)
		}
	}
	s.digests = digests

	for _, g := range changed {
		s.logger.WithField("group", g).Info("schedule changed")
		s.notifyChanged(g, snap.FetchedAt)
	}
	return nil
}

func (s *Server) notifyChanged(group string, at time.Time) {
	targets := s.registry.ListByGroup(group)
	if len(targets) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(targets))*requestTimeout)
	defer cancel()

	text := fmt.Sprintf(constants.ScheduleChangedMessage, html.EscapeString(group), at.In(s.location).Format("02.01.2006 15:04"))
	s.fanOut(ctx, targets, text, "schedule_change")
}

func (s *Server) alert(text string) {
	targets := s.config.alertTargets()
	if len(targets) == 0 {
		s.logger.Warn("no admins configured to receive refresh warnings")
		return
	}
	for _, id := range targets {
		s.reply(id, text, nil)
	}
}
