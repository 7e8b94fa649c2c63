package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AccountCleanup periodically deletes accounts that signed up but never
// confirmed their email within maxAge. The returned function stops it.
func AccountCleanup(t, maxAge time.Duration, a *Accounts) (stop func()) {
	ticker := time.NewTicker(t)
	done := make(chan struct{})

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", t), zap.Duration("max_age", maxAge))

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n, err := a.PruneUnverified(context.Background(), maxAge)
				if err != nil {
					zap.L().Error("Failed to prune unverified accounts", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Info("Pruned unverified accounts", zap.Int("count", n))
				}

				zap.L().Debug("Account cleanup finished")
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}
