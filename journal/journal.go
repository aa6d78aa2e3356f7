// Copyright (c) 2025 BVK Chaitanya

// Package journal keeps an append-only history of refresh runs in a
// key-value database. Records are written after a run completes and are only
// used for reporting.
package journal

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/bvk/refresher/kvutil"
	"github.com/bvk/refresher/refresh"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// RunsKeyspace is the key prefix for all run records.
const RunsKeyspace = "/runs"

// keyLayout gives lexicographically sorted keys in chronological order.
const keyLayout = "20060102T150405.000000000Z"

// RunRecord is the saved summary of a single run.
type RunRecord struct {
	ID string

	Mode   refresh.Mode
	DryRun bool

	StartedAt  time.Time
	FinishedAt time.Time

	OpenOrders  int
	LimitOrders int
	Selected    int

	BackupFile string

	// Error is set when the run failed with a top-level error.
	Error string

	Outcomes []refresh.Outcome
}

// NewRunRecord creates a record for a run with the given report and
// top-level error. Report can be nil when the run has failed.
func NewRunRecord(mode refresh.Mode, startedAt time.Time, report *refresh.Report, runErr error) *RunRecord {
	rec := &RunRecord{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: startedAt,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if report != nil {
		rec.DryRun = report.DryRun
		rec.StartedAt = report.StartedAt
		rec.FinishedAt = report.FinishedAt
		rec.OpenOrders = report.OpenOrders
		rec.LimitOrders = report.LimitOrders
		rec.Selected = report.Selected
		rec.BackupFile = report.BackupFile
		for _, out := range report.Outcomes {
			rec.Outcomes = append(rec.Outcomes, *out)
		}
	}
	return rec
}

// Count returns the number of outcomes in the given state.
func (v *RunRecord) Count(s refresh.State) int {
	n := 0
	for _, out := range v.Outcomes {
		if out.State == s {
			n++
		}
	}
	return n
}

func (v *RunRecord) key() string {
	return path.Join(RunsKeyspace, v.StartedAt.UTC().Format(keyLayout)+"-"+v.ID)
}

type Journal struct {
	db kv.Database
}

// New creates a journal over an existing database.
func New(db kv.Database) *Journal {
	return &Journal{db: db}
}

// Open opens the badger database in the given directory as a journal. The
// returned closer must be called to release the database.
func Open(dir string) (*Journal, func() error, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("could not create journal directory: %w", err)
	}
	bopts := badger.DefaultOptions(dir)
	bopts.Logger = nil
	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the journal database: %w", err)
	}
	db := kvbadger.New(bdb, kvutil.IsGoodKey)
	return New(db), bdb.Close, nil
}

// Append saves a run record.
func (j *Journal) Append(ctx context.Context, rec *RunRecord) error {
	if len(rec.ID) == 0 {
		rec.ID = uuid.NewString()
	}
	if err := kvutil.SetDB(ctx, j.db, rec.key(), rec); err != nil {
		return fmt.Errorf("could not save run record: %w", err)
	}
	return nil
}

// Last returns up to n most recent run records, newest first. Zero or
// negative n returns all records.
func (j *Journal) Last(ctx context.Context, n int) ([]*RunRecord, error) {
	var recs []*RunRecord
	begin, end := kvutil.PathRange(RunsKeyspace)
	collect := func(ctx context.Context, key string, rec *RunRecord) error {
		recs = append(recs, rec)
		if n > 0 && len(recs) >= n {
			return kvutil.ErrStop
		}
		return nil
	}
	if err := kvutil.DescendDB(ctx, j.db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not scan run records: %w", err)
	}
	return recs, nil
}

// Prune deletes all but the most recent keep records. Returns the number of
// records deleted.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	deleted := 0
	begin, end := kvutil.PathRange(RunsKeyspace)
	prune := func(ctx context.Context, rw kv.ReadWriter) error {
		var keys []string
		seen := 0
		collect := func(ctx context.Context, key string, rec *RunRecord) error {
			if seen++; seen > keep {
				keys = append(keys, key)
			}
			return nil
		}
		if err := kvutil.Descend(ctx, rw, begin, end, collect); err != nil {
			return err
		}
		for _, key := range keys {
			if err := rw.Delete(ctx, key); err != nil {
				return fmt.Errorf("could not delete key %q: %w", key, err)
			}
		}
		deleted = len(keys)
		return nil
	}
	if err := kv.WithReadWriter(ctx, j.db, prune); err != nil {
		return 0, fmt.Errorf("could not prune run records: %w", err)
	}
	return deleted, nil
}
