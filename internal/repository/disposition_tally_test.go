package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/onco-triage-server/internal/database"
	"github.com/onco-triage-server/internal/domain"
)

// generateTestPassword creates a secure random password for test databases
func generateTestPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "test_fallback_password_123"
	}
	return "test_" + hex.EncodeToString(bytes)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	testPassword := generateTestPassword()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	config := database.Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "testdb",
		Username:    "testuser",
		Password:    testPassword,
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: time.Minute * 30,
		SSLMode:     "disable",
	}

	logger := quietLogger()
	db, err := database.NewConnection(ctx, config, logger)
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}

	migrationRunner, err := database.NewMigrationRunner(config.URL(), logger)
	if err != nil {
		t.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := migrationRunner.Up(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		migrationRunner.Close()
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	return db
}

type execCall struct {
	sql  string
	args []any
}

// execRecorder satisfies pgxQuerier for tests that never read rows.
type execRecorder struct {
	calls []execCall
	err   error
}

func (e *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.calls = append(e.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), e.err
}

func (e *execRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestDispositionTallyRepository_RecordArgs(t *testing.T) {
	db := &execRecorder{}
	repo := NewDispositionTallyRepository(db, quietLogger())

	evening := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("ART", -3*3600))
	require.NoError(t, repo.Record(context.Background(), evening, domain.UrgentCare))

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "ON CONFLICT (day, disposition)")
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), db.calls[0].args[0], "days are bucketed in UTC")
	assert.Equal(t, "URGENT_CARE", db.calls[0].args[1])
}

func TestDispositionTallyRepository_RecordErrors(t *testing.T) {
	db := &execRecorder{err: errors.New("relation does not exist")}
	repo := NewDispositionTallyRepository(db, quietLogger())

	err := repo.Record(context.Background(), time.Now(), domain.Continue)
	assert.ErrorContains(t, err, "recording disposition")

	err = repo.Record(context.Background(), time.Now(), domain.Priority(12))
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	assert.Len(t, db.calls, 1, "invalid dispositions never reach the database")
}

func TestDispositionTallyRepository_RangeRejectsInvertedBounds(t *testing.T) {
	repo := NewDispositionTallyRepository(&execRecorder{}, quietLogger())

	_, err := repo.Range(context.Background(), time.Now(), time.Now().Add(-48*time.Hour))
	assert.ErrorContains(t, err, "invalid range")
}

func TestTotals(t *testing.T) {
	totals := Totals([]DispositionCount{
		{Disposition: domain.UrgentCare, Total: 3},
		{Disposition: domain.UrgentCare, Total: 2},
		{Disposition: domain.Continue, Total: 7},
	})

	assert.Equal(t, int64(5), totals[domain.UrgentCare])
	assert.Equal(t, int64(7), totals[domain.Continue])
	assert.Equal(t, int64(0), totals[domain.EmergencyUrgentCare])
	assert.Len(t, totals, 4)
}

func TestDispositionTallyRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDispositionTallyRepository(db.Pool, quietLogger())
	ctx := context.Background()

	day1 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, day1, domain.Continue))
	require.NoError(t, repo.Record(ctx, day1, domain.Continue))
	require.NoError(t, repo.Record(ctx, day1, domain.EmergencyUrgentCare))
	require.NoError(t, repo.Record(ctx, day2, domain.Interconsultation))

	counts, err := repo.Range(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, domain.Continue, counts[0].Disposition)
	assert.Equal(t, int64(2), counts[0].Total)
	assert.True(t, counts[0].Day.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, domain.EmergencyUrgentCare, counts[1].Disposition)
	assert.Equal(t, domain.Interconsultation, counts[2].Disposition)

	only2, err := repo.Range(ctx, day2, day2)
	require.NoError(t, err)
	assert.Len(t, only2, 1)
}
