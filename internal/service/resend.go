package service

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"tickr/study-api/internal/model"

	"github.com/jellydator/ttlcache/v3"
)

const (
	ResendCooldown   = time.Minute
	ResendDailyLimit = 5
	resendWindow     = 24 * time.Hour
)

// ResendLimiter throttles verification code resends per email address.
// State lives in memory so it works the same with every storage driver.
type ResendLimiter struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, model.ResendRequest]
	now   func() time.Time
}

func NewResendLimiter(now func() time.Time) *ResendLimiter {
	if now == nil {
		now = time.Now
	}

	return &ResendLimiter{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, model.ResendRequest](resendWindow),
			ttlcache.WithDisableTouchOnHit[string, model.ResendRequest](),
		),
		now: now,
	}
}

func (l *ResendLimiter) Start() {
	go l.cache.Start()
}

func (l *ResendLimiter) Stop() {
	l.cache.Stop()
}

// Allow records a resend for email or returns a 429 explaining how long to wait
func (l *ResendLimiter) Allow(email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	r := model.ResendRequest{Email: email, WindowStart: now}
	if item := l.cache.Get(email); item != nil && now.Sub(item.Value().WindowStart) < resendWindow {
		r = item.Value()
	}

	if r.Blocked {
		return tooManyRequests("Too many verification emails were requested today. Please try again tomorrow")
	}

	if now.Before(r.Cooldown) {
		wait := (r.Cooldown.Sub(now) + time.Second - 1) / time.Second
		return tooManyRequests(fmt.Sprintf("Please wait %d seconds before requesting another code", wait))
	}

	r.Count++
	r.LastResend = now
	r.Cooldown = now.Add(ResendCooldown)
	r.Blocked = r.Count >= ResendDailyLimit

	l.cache.Set(email, r, ttlcache.DefaultTTL)
	return nil
}

func tooManyRequests(msg string) *Error {
	return &Error{Code: http.StatusTooManyRequests, Message: msg}
}
