package store

import (
	"database/sql"
	"fmt"

	"github.com/rbfontana/acolhe/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Upsert stores a subscription, replacing any earlier registration of the
// same endpoint (browsers re-subscribe with fresh keys).
func (s *PushStore) Upsert(sub model.PushSubscription) error {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key) VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *PushStore) List() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT id, user_id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteByEndpoint drops a subscription. Used both for explicit
// unsubscribes and when a push service reports the endpoint gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	if _, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// WasSent reports whether a notification of this type for this reference
// was already delivered on the given day (YYYY-MM-DD).
func (s *PushStore) WasSent(notifType, refID, sentOn string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM push_sent WHERE notification_type = ? AND ref_id = ? AND sent_on = ?`,
		notifType, refID, sentOn,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check sent: %w", err)
	}
	return n > 0, nil
}

func (s *PushStore) MarkSent(notifType, refID, sentOn string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO push_sent (notification_type, ref_id, sent_on) VALUES (?, ?, ?)`,
		notifType, refID, sentOn,
	)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}
