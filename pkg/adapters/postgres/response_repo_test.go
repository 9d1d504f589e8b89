package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/stretchr/testify/require"
)

func TestResponseRepo_Contract(t *testing.T) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		t.Skip("DB_URL not set; skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	ports.RunResponseStoreContract(t, NewResponseRepo(pool))
}

func TestNullString(t *testing.T) {
	require.Nil(t, nullString(""))
	require.Equal(t, "a", *nullString("a"))
}
