// Package sqlitestore provides a sqlite-backed validating record store.
//
// It keeps one row per name, so the database never grows with publish
// volume, only with the number of identities. Acceptance rules match the
// in-memory store: a record must verify for its key, must not be older than
// the stored row, and equal-sequence records must be byte-identical.
package sqlitestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
)

// nameRecord is the gorm model. Rows are keyed by the name's canonical
// string form rather than raw routing-key bytes, which keeps the primary
// key printable and avoids blob-affinity surprises in sqlite.
type nameRecord struct {
	Name      string    `gorm:"primaryKey;size:128"`
	Sequence  uint64    `gorm:"not null;index"`
	Validity  time.Time `gorm:"not null"`
	Record    []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (nameRecord) TableName() string { return "name_records" }

// Options controls store construction. The zero value uses the system clock.
type Options struct {
	// Clock supplies the current time for validity checks.
	Clock clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// Store is a sqlite-backed validating routing backend.
type Store struct {
	db   *gorm.DB
	opts Options
}

var _ routing.Backend = (*Store)(nil)

// Open opens or creates the database at path and migrates the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlitestore: database path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&nameRecord{}); err != nil {
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return &Store{db: db, opts: opts.withDefaults()}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (s *Store) Put(ctx context.Context, key, raw []byte) error {
	rec, n, err := routing.Validate(key, raw, s.opts.Clock.Now())
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row nameRecord
		err := tx.Where("name = ?", n.String()).First(&row).Error
		switch {
		case err == nil:
			// A stored row that no longer decodes is corrupt; overwrite it.
			if cur, derr := record.Decode(row.Record); derr == nil {
				switch cmp := record.Compare(rec, cur); {
				case cmp < 0:
					return fmt.Errorf("%w: older than the stored record (sequence %d < %d)", routing.ErrRejected, rec.Sequence, cur.Sequence)
				case cmp == 0 && bytes.Equal(raw, row.Record):
					return nil
				case cmp == 0:
					return fmt.Errorf("%w: conflicts with an equal-sequence record", routing.ErrRejected)
				}
			}
			row.Sequence = rec.Sequence
			row.Validity = rec.Validity
			row.Record = append([]byte(nil), raw...)
			return tx.Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&nameRecord{
				Name:     n.String(),
				Sequence: rec.Sequence,
				Validity: rec.Validity,
				Record:   append([]byte(nil), raw...),
			}).Error
		default:
			return err
		}
	})
	if err == nil || routing.IsRejected(err) {
		return err
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return fmt.Errorf("%w: %v", routing.ErrUnavailable, err)
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	n, err := name.FromRoutingKey(key)
	if err != nil {
		// Nothing can live under a key that does not name an identity.
		return nil, routing.ErrNotFound
	}

	var row nameRecord
	err = s.db.WithContext(ctx).Where("name = ?", n.String()).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, routing.ErrNotFound
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %v", routing.ErrUnavailable, err)
	}

	rec, err := record.Decode(row.Record)
	if err != nil || rec.Expired(s.opts.Clock.Now()) {
		// Expired and corrupt rows are pruned on read.
		s.db.WithContext(ctx).Where("name = ?", n.String()).Delete(&nameRecord{})
		return nil, routing.ErrNotFound
	}
	return row.Record, nil
}
