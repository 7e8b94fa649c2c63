package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"tickr/study-api/app"
	"tickr/study-api/config"
	"tickr/study-api/db"
	"tickr/study-api/internal"
	"tickr/study-api/internal/service"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/middleware"
	"tickr/study-api/pkg/security"
	"tickr/study-api/pkg/util"

	"github.com/gin-gonic/gin"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		var noSecret *config.ErrNoSecret
		if errors.As(err, &noSecret) {
			fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + noSecret.Secret + "\n\nPaste it into your config.toml file.")
			os.Exit(0)
		}

		panic(err)
	}

	if err := app.MakeLogger(v.GetString("app.log_level")); err != nil {
		panic(err)
	}

	ctx := context.Background()
	argon := security.New()

	s, gdb, err := openStore(ctx)
	if err != nil {
		zap.L().Fatal("Failed to open storage", zap.Error(err))
	}
	defer s.Close()

	if dir := v.GetString("storage.import_dir"); dir != "" {
		if gdb == nil {
			zap.L().Warn("storage.import_dir is only supported with the sqlite and postgres drivers")
		} else if _, err := db.ImportLegacy(ctx, gdb, s, argon, dir); err != nil {
			zap.L().Fatal("Failed to import legacy data", zap.Error(err))
		}
	}

	d := internal.NewDeps(internal.DepsConfig{
		Store:         s,
		Argon:         argon,
		Mailer:        newMailer(),
		CodeTTL:       v.GetDuration("verification.code_ttl"),
		JWTSecret:     v.GetString("jwt.secret"),
		SecureCookies: v.GetBool("host.secure_cookies"),
	})

	d.Codes.Start()
	defer d.Codes.Stop()

	d.Resends.Start()
	defer d.Resends.Stop()

	if ttl := v.GetDuration("accounts.unverified_ttl"); ttl > 0 {
		stop := service.AccountCleanup(v.GetDuration("accounts.cleanup_every"), ttl, d.Accounts)
		defer stop()
	}

	router := app.NewRouter(d, app.Options{
		CORSOrigins:         corsOrigins(),
		RateLimit:           v.GetInt("security.rate_limit"),
		RequireAuth:         v.GetBool("security.require_auth"),
		RankingCacheSeconds: v.GetInt("cache.ranking_seconds"),
		Turnstile: middleware.TurnstileConfig{
			Enabled:     v.GetBool("cloudflare.turnstile.enabled"),
			SecretToken: v.GetString("cloudflare.turnstile.secret_token"),
		},
	})

	if !v.GetBool("cloudflare.turnstile.enabled") {
		zap.L().Warn("Cloudflare's turnstile is disabled, signup won't be guarded against bots")
	}

	addr := fmt.Sprintf(":%d", v.GetInt("host.port"))
	zap.L().Info("Server starting", zap.String("addr", addr), zap.String("storage", v.GetString("storage.driver")))

	if err := router.Run(addr); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

// openStore builds the configured backend. The gorm handle is nil for the
// file and object store drivers.
func openStore(ctx context.Context) (*store.Store, *gorm.DB, error) {
	switch driver := v.GetString("storage.driver"); driver {
	case "sqlite", "postgres":
		gdb, err := db.New(db.Options{
			Driver:      driver,
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
			MustExist:   util.InContainer(),
		})
		if err != nil {
			return nil, nil, err
		}

		return store.New(store.NewGormBackend(gdb)), gdb, nil
	case "local":
		b, err := store.NewLocalBackend(v.GetString("storage.local_dir"))
		if err != nil {
			return nil, nil, err
		}

		return store.New(b), nil, nil
	case "s3":
		b, err := store.NewS3Backend(ctx, store.S3Options{
			Bucket:          v.GetString("s3.bucket"),
			Region:          v.GetString("s3.region"),
			AccessKey:       v.GetString("s3.access_key"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
			Endpoint:        v.GetString("s3.endpoint"),
			Prefix:          v.GetString("s3.prefix"),
		})
		if err != nil {
			return nil, nil, err
		}

		return store.New(b), nil, nil
	default:
		return nil, nil, fmt.Errorf("invalid storage driver %q", driver)
	}
}

func newMailer() service.Mailer {
	if !v.GetBool("mail.enabled") {
		zap.L().Warn("Mail delivery is disabled, verification codes are written to the log")
		return service.LogMailer{}
	}

	return service.NewSMTPMailer(service.SMTPConfig{
		Host:     v.GetString("mail.host"),
		Port:     v.GetInt("mail.port"),
		Sender:   v.GetString("mail.sender"),
		Password: v.GetString("mail.password"),
	})
}

// corsOrigins accepts a TOML list or a comma separated env var
func corsOrigins() []string {
	var out []string
	for _, o := range v.GetStringSlice("host.cors_origins") {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
