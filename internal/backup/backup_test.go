package backup

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rbfontana/acolhe/internal/database"
	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func configured() Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "backup-passphrase",
	}
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, nil, nil, slog.Default())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("unconfigured manager reports enabled")
	}

	// Missing passphrase also disables the manager.
	noPass := configured()
	noPass.Passphrase = ""
	m2 := NewManager(noPass, nil, nil, nil, nil, slog.Default())
	if m2.Status().State != StateDisabled {
		t.Errorf("state without passphrase = %q, want %q", m2.Status().State, StateDisabled)
	}

	m3 := NewManager(configured(), nil, nil, nil, nil, slog.Default())
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
	if !m3.Enabled() {
		t.Error("configured manager reports disabled")
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(configured(), nil, nil, nil, cb, slog.Default())

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(configured(), nil, nil, nil, nil, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, slog.Default())

	ctx := context.Background()
	m.Start(ctx) // no-op while disabled

	// Stop should not block
	m.Stop()
}

func TestRetentionDefault(t *testing.T) {
	m := NewManager(configured(), nil, nil, nil, nil, slog.Default())
	if m.cfg.RetentionDays != 30 {
		t.Errorf("retention = %d, want default 30", m.cfg.RetentionDays)
	}
}

func TestRunNow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "acolhe.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	settings := store.NewSettingsStore(db)
	mock := newMockS3()

	cfg := configured()
	cfg.DBPath = dbPath
	m := NewManager(cfg, db, backups, settings, nil, slog.Default())
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	record, err := backups.GetByID(id)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		t.Fatalf("backup record = %+v, want completed", record)
	}
	if record.SizeBytes == 0 {
		t.Error("completed backup has zero size")
	}

	mock.mu.Lock()
	uploaded, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("object %s not uploaded", record.S3Key)
	}
	if len(uploaded) != int(record.SizeBytes) {
		t.Errorf("uploaded %d bytes, record says %d", len(uploaded), record.SizeBytes)
	}

	// The uploaded object decrypts back to a valid file with the
	// configured passphrase.
	if _, err := decrypt(uploaded, cfg.Passphrase); err != nil {
		t.Errorf("uploaded object does not decrypt: %v", err)
	}
}
