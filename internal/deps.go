package internal

import (
	"time"

	"tickr/study-api/internal/service"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/security"
)

type Deps struct {
	Store    *store.Store
	Argon    *security.ArgonHash
	Codes    *security.CodeStore
	Resends  *service.ResendLimiter
	Accounts *service.Accounts
	Study    *service.Study
	Groups   *service.Groups
	Ranking  *service.Ranking

	JWTSecret     string
	SecureCookies bool
	Now           func() time.Time
}

type DepsConfig struct {
	Store     *store.Store
	Argon     *security.ArgonHash
	Mailer    service.Mailer
	CodeTTL   time.Duration
	JWTSecret string
	// SecureCookies marks the auth cookie as HTTPS only
	SecureCookies bool
	Now           func() time.Time
}

// NewDeps wires the services around one store
func NewDeps(cfg DepsConfig) *Deps {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Argon == nil {
		cfg.Argon = security.New()
	}

	codes := security.NewCodeStore(cfg.CodeTTL, cfg.Now)
	groups := &service.Groups{Store: cfg.Store, Now: cfg.Now}
	resends := service.NewResendLimiter(cfg.Now)

	return &Deps{
		Store:   cfg.Store,
		Argon:   cfg.Argon,
		Codes:   codes,
		Resends: resends,
		Accounts: &service.Accounts{
			Store:   cfg.Store,
			Argon:   cfg.Argon,
			Codes:   codes,
			Mailer:  cfg.Mailer,
			Groups:  groups,
			Resends: resends,
			Now:     cfg.Now,
		},
		Study:         &service.Study{Store: cfg.Store, Now: cfg.Now},
		Groups:        groups,
		Ranking:       &service.Ranking{Store: cfg.Store, Groups: groups, Now: cfg.Now},
		JWTSecret:     cfg.JWTSecret,
		SecureCookies: cfg.SecureCookies,
		Now:           cfg.Now,
	}
}
