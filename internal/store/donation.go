package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rbfontana/acolhe/internal/model"
)

// DonationStore owns the donation records and the derived last_donation
// field on families. Every mutation pairs the donation write with the
// matching last-donation update inside a single transaction, so the two
// can never diverge through a partial failure.
type DonationStore struct {
	db *sql.DB
}

func NewDonationStore(db *sql.DB) *DonationStore {
	return &DonationStore{db: db}
}

const donationCols = `id, family_id, family_name, donation_type, quantity, date, responsible, observations, created_at`

func scanDonation(scanner interface{ Scan(...any) error }) (*model.Donation, error) {
	var d model.Donation
	err := scanner.Scan(
		&d.ID, &d.FamilyID, &d.FamilyName, &d.DonationType, &d.Quantity,
		&d.Date, &d.Responsible, &d.Observations, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Date = d.Date.UTC()
	return &d, nil
}

// isBusy reports whether err is a transient SQLITE_BUSY/locked failure
// worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withBusyRetry runs op, retrying with fibonacci backoff while the
// database reports a transient lock. Any other error surfaces directly
// and means nothing was applied.
func withBusyRetry(op func() error) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(10*time.Millisecond))
	return retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		err := op()
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Create registers a donation for an existing family. In the same
// transaction it snapshots the family's current responsible name and runs
// the last-donation add-path. Returns ErrFamilyNotFound when the family
// does not exist; no donation is written in that case.
func (s *DonationStore) Create(d model.Donation) (*model.Donation, error) {
	date := d.Date.UTC()

	var id int64
	err := withBusyRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		var familyName string
		err = tx.QueryRow(`SELECT responsible_name FROM families WHERE id = ?`, d.FamilyID).Scan(&familyName)
		if err == sql.ErrNoRows {
			return ErrFamilyNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup family: %w", err)
		}

		result, err := tx.Exec(
			`INSERT INTO donations (family_id, family_name, donation_type, quantity, date, responsible, observations)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.FamilyID, familyName, d.DonationType, d.Quantity, date, d.Responsible, d.Observations,
		)
		if err != nil {
			return fmt.Errorf("insert donation: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := setLastDonation(tx, d.FamilyID, date); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(id)
}

// Delete removes the donation and, in the same transaction, recomputes
// the owning family's last_donation from the surviving records. Returns
// ErrNotFound when the donation does not exist.
func (s *DonationStore) Delete(id int64) error {
	return withBusyRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		var familyID int64
		err = tx.QueryRow(`SELECT family_id FROM donations WHERE id = ?`, id).Scan(&familyID)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup donation: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM donations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete donation: %w", err)
		}

		if err := recomputeLastDonation(tx, familyID); err != nil {
			return err
		}

		return tx.Commit()
	})
}

// recomputeLastDonation rescans every donation for the family and writes
// the maximum date back, clearing the field when none remain. The delete
// path cannot know whether the removed record held the maximum, so a full
// rescan is required.
func recomputeLastDonation(tx *sql.Tx, familyID int64) error {
	rows, err := tx.Query(`SELECT date FROM donations WHERE family_id = ?`, familyID)
	if err != nil {
		return fmt.Errorf("scan donations: %w", err)
	}
	defer rows.Close()

	var max *time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return fmt.Errorf("scan date: %w", err)
		}
		d = d.UTC()
		if max == nil || d.After(*max) {
			max = &d
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var value any
	if max != nil {
		value = *max
	}
	// The family may already be gone (orphaned donations); updating zero
	// rows is fine.
	if _, err := tx.Exec(`UPDATE families SET last_donation = ? WHERE id = ?`, value, familyID); err != nil {
		return fmt.Errorf("write last donation: %w", err)
	}
	return nil
}

// RecomputeLastDonation rebuilds the family's last_donation from its
// donation records. Running it twice with no intervening mutation stores
// the same value both times.
func (s *DonationStore) RecomputeLastDonation(familyID int64) error {
	return withBusyRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if err := recomputeLastDonation(tx, familyID); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *DonationStore) GetByID(id int64) (*model.Donation, error) {
	row := s.db.QueryRow(`SELECT `+donationCols+` FROM donations WHERE id = ?`, id)
	d, err := scanDonation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// List returns all donations ordered by donation date, newest first.
func (s *DonationStore) List() ([]model.Donation, error) {
	return s.query(`SELECT ` + donationCols + ` FROM donations ORDER BY date DESC, id DESC`)
}

// ListByFamily returns the family's donations ordered by date, newest
// first. The family itself may no longer exist; its historical donations
// are still returned.
func (s *DonationStore) ListByFamily(familyID int64) ([]model.Donation, error) {
	return s.query(`SELECT `+donationCols+` FROM donations WHERE family_id = ? ORDER BY date DESC, id DESC`, familyID)
}

func (s *DonationStore) query(q string, args ...any) ([]model.Donation, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, *d)
	}
	return donations, rows.Err()
}
