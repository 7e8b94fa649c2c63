package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to, subject, text string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *fakeMailer) Send(_ context.Context, to, subject, text, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("smtp unavailable")
	}

	m.sent = append(m.sent, sentMail{to: to, subject: subject, text: text})
	return nil
}

// lastCode returns the code of the latest mail sent to an address
func (m *fakeMailer) lastCode(t *testing.T, to string) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].to == to {
			code := codePattern.FindString(m.sent[i].text)
			require.NotEmpty(t, code)
			return code
		}
	}

	t.Fatalf("no mail sent to %s", to)
	return ""
}

type env struct {
	store    *store.Store
	clock    *fakeClock
	mailer   *fakeMailer
	accounts *Accounts
	study    *Study
	groups   *Groups
	ranking  *Ranking
}

func newEnv(t *testing.T) *env {
	t.Helper()

	b, err := store.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	s := store.New(b)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	mailer := &fakeMailer{}
	groups := &Groups{Store: s, Now: clock.Now}

	return &env{
		store:  s,
		clock:  clock,
		mailer: mailer,
		accounts: &Accounts{
			Store:   s,
			Argon:   security.NewFast(),
			Codes:   security.NewCodeStore(security.DefaultCodeTTL, clock.Now),
			Mailer:  mailer,
			Groups:  groups,
			Resends: NewResendLimiter(clock.Now),
			Now:     clock.Now,
		},
		study:   &Study{Store: s, Now: clock.Now},
		groups:  groups,
		ranking: &Ranking{Store: s, Groups: groups, Now: clock.Now},
	}
}

// verifiedUser registers and confirms an account
func (e *env) verifiedUser(t *testing.T, username string) *model.User {
	t.Helper()

	ctx := context.Background()
	email := username + "@example.com"

	u, err := e.accounts.Register(ctx, username, "Secret1!", email)
	require.NoError(t, err)

	_, err = e.accounts.ConfirmSignup(ctx, email, e.mailer.lastCode(t, email))
	require.NoError(t, err)

	return u
}

// session records a session of the given length that ended now
func (e *env) session(t *testing.T, userID int64, subject string, d time.Duration) *model.StudySession {
	t.Helper()

	end := e.clock.Now()
	s, err := e.study.Record(context.Background(), userID, subject, end.Add(-d), end)
	require.NoError(t, err)

	return s
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, code, StatusOf(err), err.Error())
}
