//go:build integration

package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// StartPostgres runs a disposable Postgres container and returns its DSN and
// a function that terminates it. Used by TestMain when TEST_DATABASE_URL is
// not set and the integration build tag is on.
func StartPostgres(ctx context.Context) (string, func(), error) {
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("smartagen_test"),
		tcpostgres.WithUsername("smartagen"),
		tcpostgres.WithPassword("smartagen"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("testutil.StartPostgres: run: %w", err)
	}

	terminate := func() { _ = testcontainers.TerminateContainer(ctr) }

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("testutil.StartPostgres: connection string: %w", err)
	}
	return dsn, terminate, nil
}
