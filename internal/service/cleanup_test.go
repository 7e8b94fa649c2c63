package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCleanupRemovesStaleSignups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.accounts.Register(ctx, "alice", "Secret1!", "alice@example.com")
	require.NoError(t, err)
	e.clock.Advance(2 * time.Hour)

	stop := AccountCleanup(10*time.Millisecond, time.Hour, e.accounts)
	defer stop()

	assert.Eventually(t, func() bool {
		users, err := loadUsers(ctx, e.store)
		return err == nil && len(users) == 0
	}, time.Second, 10*time.Millisecond)
}
