package server

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vipowerus/schedule-bot/internal/schedule"
	"github.com/vipowerus/schedule-bot/internal/sheets"
	"github.com/vipowerus/schedule-bot/internal/store"
	"github.com/vipowerus/schedule-bot/internal/subscription"
)

const refreshTimeout = 30 * time.Second

// botAPI is the part of *tgbotapi.BotAPI the handlers use.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Server ...
type Server struct {
	config      *Config
	logger      *logrus.Logger
	api         *tgbotapi.BotAPI
	bot         botAPI
	updatesConf tgbotapi.UpdateConfig
	location    *time.Location
	now         func() time.Time

	sheetsClient *sheets.Client
	cache        *schedule.Cache
	registry     *subscription.Registry
	sessions     *sessions
	cron         *cron.Cron
	closers      []func()
	jobs         sync.WaitGroup

	// guarded by watchMu
	watchMu        sync.Mutex
	digests        map[string]string
	refreshFailing bool
}

// New ...
func New(config *Config) *Server {
	return &Server{
		config:   config,
		logger:   logrus.New(),
		location: time.UTC,
		now:      time.Now,
		sessions: newSessions(),
	}
}

// Start configures every component, loads the spreadsheet and serves
// updates until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.configureLogger(); err != nil {
		return err
	}
	s.configureLocation()

	if err := s.configureSource(ctx); err != nil {
		return err
	}
	if err := s.configureStore(ctx); err != nil {
		return err
	}
	defer s.close()

	if err := s.configureBot(); err != nil {
		return err
	}
	s.configureCommands()
	s.configureBotUpdates()

	if err := s.refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("initial spreadsheet load failed, will retry on schedule")
	}
	if err := s.configureCron(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"tz":       s.location.String(),
		"groups":   s.config.Groups,
		"store":    s.config.StoreDriver(),
		"interval": s.config.RefreshInterval.String(),
	}).Info("Telegram bot started!")

	s.handleBotUpdates(ctx)
	return nil
}

// Dump loads the spreadsheet once and writes the current and next week of
// group to out without connecting to Telegram.
func Dump(ctx context.Context, config *Config, group string, out io.Writer) error {
	s := New(config)
	if err := s.configureLogger(); err != nil {
		return err
	}
	s.configureLocation()
	if err := s.configureSource(ctx); err != nil {
		return err
	}
	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		return err
	}
	monday := schedule.MondayOf(s.now().In(s.location))
	fmt.Fprintf(out, "rows: schedule=%d exams=%d skipped=%d\n\n", snap.ScheduleRows, snap.ExamRows, snap.Skipped)
	for week := 0; week < 2; week++ {
		start := monday.AddDate(0, 0, 7*week)
		fmt.Fprintln(out, plainText(formatWeek(s.cache.LookupWeek(group, start))))
		fmt.Fprintln(out)
		fmt.Fprintln(out, plainText(formatExams(s.cache.Exams(group, start, start.AddDate(0, 0, 6)), "Контрольные "+weekRange(start))))
		fmt.Fprintln(out)
	}
	return nil
}

func (s *Server) configureLogger() error {
	level, err := logrus.ParseLevel(s.config.LogLevel)
	if err != nil {
		return err
	}
	s.logger.SetLevel(level)
	return nil
}

func (s *Server) configureLocation() {
	loc, err := time.LoadLocation(s.config.Timezone)
	if err != nil {
		s.logger.WithError(err).Warnf("timezone %s unavailable, falling back to UTC", s.config.Timezone)
		loc = time.UTC
	}
	s.location = loc
}

// configureSource sets up the schedule cache over the Sheets API or over the
// published HTML export.
func (s *Server) configureSource(ctx context.Context) error {
	cfg := s.config.Sheets
	var fetcher schedule.Fetcher
	if cfg.HasCredentials() {
		client, err := sheets.NewClient(ctx, cfg, s.logger)
		if err != nil {
			return err
		}
		s.sheetsClient = client
		fetcher = client
	}
	if cfg.Published {
		fetcher = sheets.NewPublished(cfg)
	}
	if fetcher == nil {
		return errors.New("no spreadsheet source configured")
	}

	s.cache = schedule.NewCache(fetcher, schedule.Options{
		ScheduleSheet: cfg.ScheduleSheet,
		ExamsSheet:    cfg.ExamsSheet,
		Groups:        s.config.Groups,
		Location:      s.location,
	}, s.logger)
	return nil
}

func (s *Server) configureStore(ctx context.Context) error {
	var backend subscription.Backend
	switch s.config.StoreDriver() {
	case DriverPostgres:
		st := store.New(s.config.Store)
		if err := st.Open(); err != nil {
			return err
		}
		s.closers = append(s.closers, st.Close)
		backend = st
	case DriverMySQL:
		st := store.NewGorm(s.config.Store)
		if err := st.Open(); err != nil {
			return err
		}
		s.closers = append(s.closers, st.Close)
		backend = st
	case DriverSheets:
		if s.sheetsClient == nil {
			return errors.New("sheets store needs google credentials")
		}
		backend = sheets.NewSubscriptionSheet(s.sheetsClient, s.config.Sheets.SubsSheet)
	}

	s.registry = subscription.NewRegistry(backend)
	if err := s.registry.Load(ctx); err != nil {
		return err
	}
	s.logger.WithField("subscriptions", s.registry.Len()).Info("subscriptions loaded")
	return nil
}

func (s *Server) configureBot() error {
	bot, err := tgbotapi.NewBotAPI(s.config.BotToken)
	if err != nil {
		return errors.Wrap(err, "connect to telegram")
	}
	bot.Debug = s.config.Debug
	s.api = bot
	s.bot = bot
	s.logger.Infof("Authorized on account %s", bot.Self.UserName)
	return nil
}

func (s *Server) configureCommands() {
	if _, err := s.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		s.logger.WithError(err).Warn("delete webhook")
	}
	cmds := make([]tgbotapi.BotCommand, 0, len(commandTable))
	for _, c := range commandTable {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.name, Description: c.description})
	}
	if _, err := s.bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		s.logger.WithError(err).Warn("set bot commands")
	}
}

func (s *Server) configureBotUpdates() {
	s.updatesConf = tgbotapi.NewUpdate(0)
	s.updatesConf.Timeout = 60
	s.updatesConf.AllowedUpdates = []string{"message", "callback_query"}
}

func (s *Server) configureCron() error {
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.logger))),
	)
	spec := fmt.Sprintf("@every %s", s.config.RefreshInterval)
	if _, err := s.cron.AddFunc(spec, s.refreshJob); err != nil {
		return errors.Wrapf(err, "schedule refresh %q", spec)
	}
	s.cron.Start()
	return nil
}

// handleBotUpdates processes updates one at a time until ctx is done.
func (s *Server) handleBotUpdates(ctx context.Context) {
	updates := s.api.GetUpdatesChan(s.updatesConf)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			s.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(update)
		}
	}
}

func (s *Server) close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.jobs.Wait()
	for _, c := range s.closers {
		c()
	}
}

// reply sends an HTML message and logs failures.
func (s *Server) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := s.bot.Send(msg); err != nil {
		s.logger.WithField("chat_id", chatID).WithError(err).Error("send message")
	}
}

// answer acknowledges a callback query so the client stops the spinner.
func (s *Server) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := s.bot.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		s.logger.WithError(err).Debug("answer callback")
	}
}
