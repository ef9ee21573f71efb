package timeslotdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a release, slot or availability does not exist.
	ErrNotFound = errors.New("timeslot record not found")
	// ErrSubmissionBooked is returned by BookSlot when the submission already
	// owns another booked slot.
	ErrSubmissionBooked = errors.New("submission already booked a timeslot")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new timeslot repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (r *Impl) CreateRelease(ctx context.Context, db bun.IDB, rel *Release) error {
	if _, err := r.resolveDB(db).NewInsert().Model(rel).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}
	return nil
}

func (r *Impl) GetRelease(ctx context.Context, db bun.IDB, releaseID int64) (*Release, error) {
	rel := new(Release)
	if err := r.resolveDB(db).NewSelect().Model(rel).Where("rl.id = ?", releaseID).Scan(ctx); err != nil {
		return nil, notFound(err, "release")
	}
	return rel, nil
}

func (r *Impl) GetCurrentRelease(ctx context.Context, db bun.IDB) (*Release, error) {
	rel := new(Release)
	err := r.resolveDB(db).NewSelect().Model(rel).
		Where("rl.is_current").
		Order("rl.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "current release")
	}
	return rel, nil
}

func (r *Impl) SetCurrentRelease(ctx context.Context, db bun.IDB, releaseID int64) error {
	conn := r.resolveDB(db)
	exists, err := conn.NewSelect().Model((*Release)(nil)).Where("id = ?", releaseID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check release: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := conn.NewUpdate().
		Model((*Release)(nil)).
		Set("is_current = (id = ?)", releaseID).
		Where("TRUE").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to set current release: %w", err)
	}
	return nil
}

func (r *Impl) CreateSlot(ctx context.Context, db bun.IDB, s *TimeSlot) error {
	if _, err := r.resolveDB(db).NewInsert().Model(s).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create timeslot: %w", err)
	}
	return nil
}

func (r *Impl) GetSlot(ctx context.Context, db bun.IDB, slotID int64) (*TimeSlot, error) {
	slot := new(TimeSlot)
	if err := r.resolveDB(db).NewSelect().Model(slot).Where("ts.id = ?", slotID).Scan(ctx); err != nil {
		return nil, notFound(err, "timeslot")
	}
	return slot, nil
}

func (r *Impl) ListAvailableSlots(ctx context.Context, db bun.IDB, releaseID int64, from time.Time) ([]TimeSlot, error) {
	var slots []TimeSlot
	err := r.resolveDB(db).NewSelect().Model(&slots).
		Where("ts.release_id = ?", releaseID).
		Where("NOT ts.is_booked").
		Where("ts.start_date >= ?", from).
		Order("ts.start_date ASC", "ts.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available timeslots: %w", err)
	}
	return slots, nil
}

// BookSlot runs in a nested transaction, a savepoint inside a caller's tx,
// so a unique violation leaves the caller's transaction usable.
func (r *Impl) BookSlot(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error) {
	var n int64
	err := r.resolveDB(db).RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*TimeSlot)(nil)).
			Set("submission_id = ?", submissionID).
			Set("is_booked = TRUE").
			Set("booking_date = ?", at).
			Where("id = ?", slotID).
			Where("NOT is_booked").
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrSubmissionBooked
		}
		return false, fmt.Errorf("failed to book timeslot: %w", err)
	}
	return n == 1, nil
}

func (r *Impl) GetBookedSlotForSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*TimeSlot, error) {
	slot := new(TimeSlot)
	err := r.resolveDB(db).NewSelect().Model(slot).
		Where("ts.submission_id = ?", submissionID).
		Where("ts.is_booked").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "booked timeslot")
	}
	return slot, nil
}

func (r *Impl) ListBooked(ctx context.Context, db bun.IDB, filter BookedFilter) ([]TimeSlot, error) {
	var slots []TimeSlot
	q := r.resolveDB(db).NewSelect().Model(&slots).Where("ts.is_booked")
	if filter.OwnerID != nil {
		q = q.Join("JOIN submissions AS s ON s.id = ts.submission_id").
			Where("s.created_by = ?", *filter.OwnerID)
	}
	if filter.SubmissionIDs != nil {
		if len(filter.SubmissionIDs) == 0 {
			return nil, nil
		}
		q = q.Where("ts.submission_id IN (?)", bun.In(filter.SubmissionIDs))
	}
	if filter.EndsAfter != nil {
		q = q.Where("ts.end_date >= ?", *filter.EndsAfter)
	}
	if err := q.Order("ts.start_date ASC", "ts.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list booked timeslots: %w", err)
	}
	return slots, nil
}

func (r *Impl) ListBookedSubmissionIDs(ctx context.Context, db bun.IDB, releaseID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.resolveDB(db).NewSelect().
		Model((*TimeSlot)(nil)).
		Column("submission_id").
		Where("release_id = ?", releaseID).
		Where("is_booked").
		Where("submission_id IS NOT NULL").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked submissions: %w", err)
	}
	booked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		booked[id] = true
	}
	return booked, nil
}

func (r *Impl) GetAvailability(ctx context.Context, db bun.IDB, submissionID int64) (*BookingAvailability, error) {
	row := new(BookingAvailability)
	if err := r.resolveDB(db).NewSelect().Model(row).Where("ba.submission_id = ?", submissionID).Scan(ctx); err != nil {
		return nil, notFound(err, "booking availability")
	}
	return row, nil
}

func (r *Impl) ListAvailabilitySubmissionIDs(ctx context.Context, db bun.IDB) (map[int64]bool, error) {
	var ids []int64
	if err := r.resolveDB(db).NewSelect().Model((*BookingAvailability)(nil)).Column("submission_id").Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to list booking availabilities: %w", err)
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *Impl) CreateAvailabilities(ctx context.Context, db bun.IDB, rows []BookingAvailability) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.resolveDB(db).NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create booking availabilities: %w", err)
	}
	return nil
}
