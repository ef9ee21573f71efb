// Package testutils starts the containers the integration tests run against.
package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mozilla/mozilla-ignite/app/migrations"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/integration_tests/containers"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	natsmodule "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/uptrace/bun"
)

// Tables are truncated in one statement between tests.
var Tables = []string{
	"challenges", "phases", "phase_rounds", "profiles", "submissions",
	"awards", "judge_allowances", "submission_awards",
	"judging_criteria", "phase_criteria", "judgements", "judging_answers", "judge_assignments",
	"releases", "time_slots", "booking_availabilities", "slot_locks",
	"blog_entries",
}

// TestEnvironment holds the running containers and clients to them.
type TestEnvironment struct {
	Ctx context.Context

	PgContainer   *postgres.PostgresContainer
	NatsContainer *natsmodule.NATSContainer

	DB        *bun.DB
	Pool      *pgxpool.Pool
	NatsConn  *nats.Conn
	JetStream jetstream.JetStream
	Config    *config.Config
	Logger    *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS and migrates every module.
func NewTestEnvironment(t testing.TB) (*TestEnvironment, error) {
	if t != nil {
		t.Helper()
	}
	ctx := context.Background()
	env := &TestEnvironment{
		Ctx:    ctx,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.NatsContainer = natsContainer

	if env.DB, err = dbtx.Open(ctx, dsn); err != nil {
		env.Cleanup()
		return nil, err
	}
	if env.Pool, err = pgxpool.New(ctx, dsn); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := migrations.Up(ctx, env.DB, env.Pool); err != nil {
		env.Cleanup()
		return nil, err
	}

	if env.NatsConn, err = nats.Connect(natsURL, nats.Timeout(10*time.Second)); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if env.JetStream, err = jetstream.New(env.NatsConn); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	cfg := config.Defaults()
	cfg.Postgres.DSN = dsn
	cfg.NATS.URL = natsURL
	cfg.NATS.KVBucket = "slot-locks-test"
	env.Config = cfg
	return env, nil
}

// Reset empties every table and restarts their id sequences.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	_, err := env.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(Tables, ", ")+" RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Cleanup closes clients and terminates containers. It is safe after a
// partial start.
func (env *TestEnvironment) Cleanup() {
	if env.NatsConn != nil {
		env.NatsConn.Close()
	}
	if env.Pool != nil {
		env.Pool.Close()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(env.Ctx)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(env.Ctx)
	}
}
