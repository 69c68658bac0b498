package store

import (
	"context"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vipowerus/schedule-bot/internal/subscription"
)

type subscriptionRow struct {
	ChatID  int64     `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	Group   string    `gorm:"column:group_name;not null"`
	AddedAt time.Time `gorm:"column:added_at;not null"`
}

func (subscriptionRow) TableName() string { return "subscriptions" }

// GormStore keeps subscriptions in MySQL through gorm.
type GormStore struct {
	config *Config
	db     *gorm.DB
}

// NewGorm ...
func NewGorm(config *Config) *GormStore {
	return &GormStore{config: config}
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(raw string) (string, error) {
	cfg, err := sqldriver.ParseDSN(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Open connects and migrates the subscriptions table.
func (s *GormStore) Open() error {
	dsn, err := mysqlDSN(s.config.DatabaseURL)
	if err != nil {
		return err
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.Wrap(err, "open mysql")
	}
	if err := db.AutoMigrate(&subscriptionRow{}); err != nil {
		return errors.Wrap(err, "migrate subscriptions")
	}
	s.db = db
	return nil
}

// Close ...
func (s *GormStore) Close() {
	if s.db == nil {
		return
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// Load ...
func (s *GormStore) Load(ctx context.Context) ([]subscription.Subscription, error) {
	var rows []subscriptionRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select subscriptions")
	}
	subs := make([]subscription.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, subscription.Subscription{ChatID: row.ChatID, Group: row.Group, AddedAt: row.AddedAt})
	}
	return subs, nil
}

// Save upserts by chat id.
func (s *GormStore) Save(ctx context.Context, sub subscription.Subscription) error {
	row := subscriptionRow{ChatID: sub.ChatID, Group: sub.Group, AddedAt: sub.AddedAt}
	return errors.Wrapf(s.db.WithContext(ctx).Save(&row).Error, "upsert subscription %d", sub.ChatID)
}

// Delete ...
func (s *GormStore) Delete(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("chat_id IN ?", chatIDs).Delete(&subscriptionRow{}).Error
	return errors.Wrap(err, "delete subscriptions")
}
