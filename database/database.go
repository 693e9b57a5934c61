// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database is the persistent relational store for the membership
// reflection engine: the member roster, contracts, conditions, registration
// state, and the task/history records of reflection runs.
package database

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Database is a SQLite-backed store. It provides persistent storage for the
// member roster and all contract/registration state the reflection engine
// reads and writes.
type Database struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

// New creates a membership store. Uses an in-memory database if dataDir is
// empty, which is useful for testing.
func New(
	dataDir string,
	logger *slog.Logger,
) (*Database, error) {
	var gormDb *gorm.DB
	var err error
	if dataDir == "" {
		// cache=shared allows multiple connections to share the same in-memory database
		gormDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dbPath := filepath.Join(
			dataDir,
			"rollcall.sqlite",
		)
		// WAL journal mode, disable sync on write
		connOpts := "_pragma=journal_mode(WAL)&_pragma=sync(OFF)"
		gormDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", dbPath, connOpts),
			),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	}
	db := &Database{
		db:      gormDb,
		dataDir: dataDir,
		logger:  logger,
	}
	if err := db.init(); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		db.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := db.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Configure tracing for GORM
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	return nil
}

// DB returns the underlying gorm handle.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// DataDir returns the path to the data directory used for storage.
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance.
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Transaction runs fn inside a database transaction.
func (d *Database) Transaction(fn func(txn *gorm.DB) error) error {
	return d.db.Transaction(fn)
}

// Close cleans up the database connection.
func (d *Database) Close() error {
	sqlDb, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
