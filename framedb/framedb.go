// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package framedb exports decoded command frames to a SQL database
// and queries them back.
package framedb // import "github.com/go-lpc/ifx/framedb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-lpc/ifx/annot"
	_ "github.com/go-sql-driver/mysql"
)

var (
	drvName = "mysql"
	timeout = 5 * time.Second
)

const schema = `CREATE TABLE IF NOT EXISTS frames (
	capture      VARCHAR(255) NOT NULL,
	bus          VARCHAR(8)   NOT NULL,
	start_sample BIGINT       NOT NULL,
	end_sample   BIGINT       NOT NULL,
	is_write     BOOL         NOT NULL,
	tag          INT UNSIGNED NOT NULL,
	length       INT UNSIGNED NOT NULL,
	code         INT UNSIGNED NOT NULL,
	name         VARCHAR(64)  NOT NULL,
	data         BLOB
)`

const insertFrame = `INSERT INTO frames (
	capture, bus, start_sample, end_sample, is_write, tag, length, code, name, data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// DB exposes convenience methods to store and retrieve decoded frames.
type DB struct {
	db *sql.DB
}

// Open opens a connection to the frames database described by dsn.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("framedb: could not open db: %w", err)
	}

	err = ping(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("framedb: could not ping db: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Setup creates the frames table, if needed.
func (db *DB) Setup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := db.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("framedb: could not create frames table: %w", err)
	}
	return nil
}

// Insert stores the frames decoded from the named capture, in a single
// transaction.
func (db *DB) Insert(ctx context.Context, capture string, frames []annot.FrameEvent) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("framedb: could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFrame)
	if err != nil {
		return fmt.Errorf("framedb: could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range frames {
		_, err = stmt.ExecContext(
			ctx, capture, f.Bus, f.Start, f.End, f.Write,
			int64(f.Tag), int64(f.Length), int64(f.Code), f.Name, f.Data,
		)
		if err != nil {
			return fmt.Errorf("framedb: could not insert frame %d of %q: %w", i, capture, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("framedb: could not commit frames of %q: %w", capture, err)
	}
	return nil
}

// Frames returns the frames stored for the named capture, in sample order.
func (db *DB) Frames(ctx context.Context, capture string) ([]annot.FrameEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := db.db.QueryContext(
		ctx,
		`SELECT bus, start_sample, end_sample, is_write, tag, length, code, name, data
		FROM frames WHERE capture = ? ORDER BY start_sample`,
		capture,
	)
	if err != nil {
		return nil, fmt.Errorf("framedb: could not query frames of %q: %w", capture, err)
	}
	defer rows.Close()

	var frames []annot.FrameEvent
	for rows.Next() {
		var f annot.FrameEvent
		err = rows.Scan(
			&f.Bus, &f.Start, &f.End, &f.Write,
			&f.Tag, &f.Length, &f.Code, &f.Name, &f.Data,
		)
		if err != nil {
			return nil, fmt.Errorf("framedb: could not scan frame: %w", err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("framedb: could not scan db for frames of %q: %w", capture, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("framedb: context error while retrieving frames: %w", err)
	}

	return frames, nil
}

// Histogram returns the number of stored frames of the named capture,
// per command name.
func (db *DB) Histogram(ctx context.Context, capture string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := db.db.QueryContext(
		ctx,
		"SELECT name, COUNT(*) FROM frames WHERE capture = ? GROUP BY name",
		capture,
	)
	if err != nil {
		return nil, fmt.Errorf("framedb: could not query histogram of %q: %w", capture, err)
	}
	defer rows.Close()

	hist := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		err = rows.Scan(&name, &n)
		if err != nil {
			return nil, fmt.Errorf("framedb: could not scan histogram: %w", err)
		}
		hist[name] += n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("framedb: could not scan db for histogram of %q: %w", capture, err)
	}

	return hist, nil
}
