// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"errors"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQL keeps the state in a row of the incidentbot_state table, keyed by the
// bot name. Several bots can share one database.
type SQL struct {
	db   *gorm.DB
	name string
}

type stateRow struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (stateRow) TableName() string { return "incidentbot_state" }

// NewSQL returns an SQL store for the bot called name, creating the table
// if needed.
func NewSQL(db *gorm.DB, name string) (*SQL, error) {
	if err := db.AutoMigrate(&stateRow{}); err != nil {
		return nil, err
	}
	return &SQL{db: db, name: name}, nil
}

// dialector picks the gorm driver for u. sqlite URLs carry a file path,
// postgres ones are passed to the driver as is.
func dialector(u *url.URL) gorm.Dialector {
	if u.Scheme == "sqlite" {
		return sqlite.Open(u.Host + u.Path)
	}
	return postgres.Open(u.String())
}

func openSQL(u *url.URL, name string) (*SQL, error) {
	db, err := gorm.Open(dialector(u), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	s, err := NewSQL(db, name)
	if err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			err = errors.Join(err, sqlDB.Close())
		}
		return nil, err
	}
	return s, nil
}

// Load implements [Store].
func (s *SQL) Load(ctx context.Context) (string, error) {
	var row stateRow
	err := s.db.WithContext(ctx).Where("name = ?", s.name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return row.Value, err
}

// Save implements [Store].
func (s *SQL) Save(ctx context.Context, value string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&stateRow{}).Where("name = ?", s.name).Update("value", value)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&stateRow{Name: s.name, Value: value}).Error
	})
}

// Close implements [Store].
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*SQL)(nil)
