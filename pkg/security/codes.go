package security

import (
	"crypto/subtle"
	"time"

	"github.com/jellydator/ttlcache/v3"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Purpose string

const (
	PurposeSignup         Purpose = "signup"
	PurposeEmailChange    Purpose = "email_change"
	PurposePasswordChange Purpose = "password_change"
)

const (
	DefaultCodeTTL = 3 * time.Minute
	codeLength     = 6
	digits         = "0123456789"
)

type CodeResult int

const (
	CodeOK CodeResult = iota
	CodeMissing
	CodeMismatch
	CodeExpired
)

type codeKey struct {
	purpose Purpose
	key     string
}

type codeEntry struct {
	code     string
	issuedAt time.Time
}

// CodeStore keeps one pending verification code per purpose and key
// (an email or a user id). Issuing again replaces the previous code.
type CodeStore struct {
	cache *ttlcache.Cache[codeKey, codeEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewCodeStore creates a store whose codes are valid for ttl. The cache
// sweeper evicts stale entries in the background once Start is called,
// the age check at confirmation time uses now.
func NewCodeStore(ttl time.Duration, now func() time.Time) *CodeStore {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if now == nil {
		now = time.Now
	}

	// The sweeper runs on wall clock time, keep entries a little longer so the
	// age check decides the outcome
	cache := ttlcache.New(
		ttlcache.WithTTL[codeKey, codeEntry](ttl+time.Minute),
		ttlcache.WithDisableTouchOnHit[codeKey, codeEntry](),
	)

	return &CodeStore{
		cache: cache,
		ttl:   ttl,
		now:   now,
	}
}

func (s *CodeStore) Start() {
	go s.cache.Start()
}

func (s *CodeStore) Stop() {
	s.cache.Stop()
}

func (s *CodeStore) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh numeric code for the key
func (s *CodeStore) Issue(p Purpose, key string) (string, error) {
	code, err := gonanoid.Generate(digits, codeLength)
	if err != nil {
		return "", err
	}

	s.cache.Set(codeKey{p, key}, codeEntry{code: code, issuedAt: s.now()}, ttlcache.DefaultTTL)
	return code, nil
}

// Check validates a code without consuming it. Expired codes are removed.
func (s *CodeStore) Check(p Purpose, key, code string) CodeResult {
	k := codeKey{p, key}

	item := s.cache.Get(k)
	if item == nil {
		return CodeMissing
	}

	e := item.Value()
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		return CodeMismatch
	}

	if s.now().Sub(e.issuedAt) > s.ttl {
		s.cache.Delete(k)
		return CodeExpired
	}

	return CodeOK
}

// Consume discards a code after a successful confirmation
func (s *CodeStore) Consume(p Purpose, key string) {
	s.cache.Delete(codeKey{p, key})
}

func (s *CodeStore) Len() int {
	return s.cache.Len()
}
