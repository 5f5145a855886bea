package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unit-telemetry-backend/internal/apperr"
)

// Store defines the data access layer over units and their sensor readings.
type Store interface {
	Units() UnitRepository
	Readings() ReadingRepository
	// Ping checks that the database answers. It goes through the gate like
	// any other operation.
	Ping(ctx context.Context) error
}

// Observer receives one call per finished store operation. kind is empty on
// success.
type Observer interface {
	ObserveOperation(op string, kind apperr.Kind, elapsed time.Duration)
}

// Options tunes a gormStore.
type Options struct {
	// MaxConcurrent bounds the number of operations holding a connection.
	// Usually the pool's max_open_conns. Zero disables the gate.
	MaxConcurrent int
	// AcquireTimeout is how long an operation waits for the gate before
	// failing with StoreUnavailable.
	AcquireTimeout time.Duration
	Observer       Observer
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db       *gorm.DB
	gate     *gate
	observer Observer

	units    *unitRepo
	readings *readingRepo
}

// NewGormStore creates a new GORM-backed store. The schema must already be
// in place, see db.EnsureSchema.
func NewGormStore(db *gorm.DB, opts Options) Store {
	s := &gormStore{
		db:       db,
		gate:     newGate(int64(opts.MaxConcurrent), opts.AcquireTimeout),
		observer: opts.Observer,
	}
	s.units = &unitRepo{s: s}
	s.readings = &readingRepo{s: s}
	return s
}

func (s *gormStore) Units() UnitRepository       { return s.units }
func (s *gormStore) Readings() ReadingRepository { return s.readings }

func (s *gormStore) Ping(ctx context.Context) error {
	return s.run(ctx, "store.ping", func(tx *gorm.DB) error {
		sqlDB, err := tx.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// run executes fn with a context-bound session once the gate admits it, and
// classifies whatever fn returns. Only exported repository methods call run;
// helpers receive the session and must not call it again.
func (s *gormStore) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	start := time.Now()

	release, err := s.gate.acquire(ctx, op)
	if err != nil {
		s.observe(op, err, start)
		return err
	}
	defer release()

	err = apperr.Classify(op, fn(s.db.WithContext(ctx)))
	s.observe(op, err, start)
	return err
}

// transaction is run with fn wrapped in a database transaction.
func (s *gormStore) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return s.run(ctx, op, func(tx *gorm.DB) error {
		return tx.Transaction(fn)
	})
}

func (s *gormStore) observe(op string, err error, start time.Time) {
	if s.observer == nil {
		return
	}
	var kind apperr.Kind
	if err != nil {
		kind = apperr.KindOf(err)
	}
	s.observer.ObserveOperation(op, kind, time.Since(start))
}
