package backup

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tobinmarsh/reelnight/internal/database"
	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
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

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testConfig(dbPath string) Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "test-passphrase",
	}
}

func setupManager(t *testing.T) (*Manager, *mockS3Client, *store.BackupStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reelnight.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(testConfig(dbPath), db, bs, slog.New(slog.DiscardHandler))
	mock := newMockS3()
	m.client = mock
	return m, mock, bs
}

func TestManagerEnabled(t *testing.T) {
	if NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler)).Enabled() {
		t.Error("expected Enabled() = false without config")
	}
	if !NewManager(testConfig("x.db"), nil, nil, slog.New(slog.DiscardHandler)).Enabled() {
		t.Error("expected Enabled() = true with full config")
	}

	cfg := testConfig("x.db")
	cfg.Passphrase = ""
	if NewManager(cfg, nil, nil, slog.New(slog.DiscardHandler)).Enabled() {
		t.Error("expected Enabled() = false without passphrase")
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, mock, bs := setupManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if record.SizeBytes == 0 {
		t.Error("expected non-zero size")
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	data, ok := mock.objects[record.S3Key]
	if !ok {
		t.Fatalf("object %q not uploaded", record.S3Key)
	}
	// SQLite files start with a magic header; the upload must not.
	if strings.HasPrefix(string(data), "SQLite format 3") {
		t.Error("uploaded object appears unencrypted")
	}
}

func TestRunNowUploadFailureMarksRecord(t *testing.T) {
	m, mock, bs := setupManager(t)
	mock.putErr = &s3NotFound{}

	id, err := m.RunNow(context.Background())
	if err == nil {
		t.Fatal("expected error from failed upload")
	}
	_ = id

	recent, err := bs.ListRecent(1)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != model.BackupStatusFailed {
		t.Fatalf("expected one failed record, got %+v", recent)
	}
	if recent[0].ErrorMessage == "" {
		t.Error("expected error message on failed record")
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	m, _, _ := setupManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, size, err := m.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if int64(len(data)) != size {
		t.Errorf("downloaded %d bytes, record says %d", len(data), size)
	}
}

func TestDownloadUnknownBackup(t *testing.T) {
	m, _, _ := setupManager(t)

	if _, _, err := m.Download(context.Background(), 999); err == nil {
		t.Fatal("expected error for unknown backup id")
	}
}

func TestRestoreReplacesDatabase(t *testing.T) {
	m, _, bs := setupManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	// Rows written after the snapshot must disappear once it is restored.
	if _, err := bs.Create("post-snapshot-marker"); err != nil {
		t.Fatalf("create marker record: %v", err)
	}

	if err := m.Restore(context.Background(), id); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := sql.Open("sqlite", m.cfg.DBPath)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer restored.Close()

	var count int
	if err := restored.QueryRow("SELECT COUNT(*) FROM backup_history").Scan(&count); err != nil {
		t.Fatalf("count backups: %v", err)
	}
	if count != 1 {
		t.Errorf("restored db has %d backup records, want 1 (the snapshot's own)", count)
	}
}

func TestRestoreUnknownBackup(t *testing.T) {
	m, _, _ := setupManager(t)

	if err := m.Restore(context.Background(), 999); err == nil {
		t.Fatal("expected error for unknown backup id")
	}
}

func TestManagerStopSafety(t *testing.T) {
	m, _, _ := setupManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))

	m.Start(context.Background()) // no-op when disabled
	m.Stop()
}
