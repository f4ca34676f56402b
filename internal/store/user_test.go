package store

import (
	"testing"
	"time"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	u, err := users.Create("admin@acolhe.org", "Admin", "$2a$10$fakehash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}

	byEmail, err := users.GetByEmail("admin@acolhe.org")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email returned %+v", byEmail)
	}

	missing, err := users.GetByEmail("nobody@acolhe.org")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown email")
	}

	n, err := users.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	if _, err := users.Create("dup@acolhe.org", "One", "h1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := users.Create("dup@acolhe.org", "Two", "h2")
	if err != ErrEmailTaken {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	sessions := NewSessionStore(db)

	u, err := users.Create("admin@acolhe.org", "Admin", "h")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := sessions.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Fatalf("session lookup returned %+v", got)
	}

	if err := sessions.DeleteByToken(sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("session still resolvable after delete")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	sessions := NewSessionStore(db)

	u, err := users.Create("admin@acolhe.org", "Admin", "h")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Insert an already-expired session directly.
	expired := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		"deadbeef", u.ID, expired,
	); err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	got, err := sessions.GetByToken("deadbeef")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("expired session was resolved")
	}

	n, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}
