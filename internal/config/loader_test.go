package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			_, err := config.Load(ctx)

			convey.Convey("Then the missing secret is reported", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROLLCALL_JWT_SECRET", "s3cret")
			_ = os.Setenv("ROLLCALL_ADDR", ":8080")
			_ = os.Setenv("ROLLCALL_DEFAULT_WINDOW", "7")
			_ = os.Setenv("ROLLCALL_REDIS_DB", "2")
			_ = os.Setenv("ROLLCALL_NAME_CACHE_TTL_SECONDS", "30")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "s3cret")
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DefaultWindow, convey.ShouldEqual, 7)
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.NameCacheTTLSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.DefaultLimit, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempFile(t, "config.yaml", `
addr: ":9090"
jwt_secret: from-file
data_source: postgres
database_url: postgres://db/rollcall
default_limit: 25
`)
			_ = os.Setenv("ROLLCALL_CONFIG", tmpFile)
			_ = os.Setenv("ROLLCALL_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "from-file")
				convey.So(cfg.DataSource, convey.ShouldEqual, config.DataSourcePostgres)
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://db/rollcall")
				convey.So(cfg.DefaultLimit, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When metrics settings come from file and env", func() {
			tmpFile := createTempFile(t, "metrics.yaml", `
jwt_secret: from-file
metrics_namespace: school
metrics_refresh_interval_seconds: 30
metrics_labels:
  deployment: eu-1
metrics_latency_buckets: [1, 10, 100]
`)
			_ = os.Setenv("ROLLCALL_CONFIG", tmpFile)
			_ = os.Setenv("ROLLCALL_METRICS_ENABLED", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then both layers are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "school")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "analytics")
				convey.So(cfg.MetricsRefreshInterval(), convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"deployment": "eu-1"})
				convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{1, 10, 100})
			})
		})

		convey.Convey("When the YAML file is missing", func() {
			_ = os.Setenv("ROLLCALL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a dotenv file is given", func() {
			dotenv := createTempFile(t, "test.env", "ROLLCALL_JWT_SECRET=dotenv-secret\nROLLCALL_LOG_FORMAT=json\n")
			_ = os.Setenv("ROLLCALL_DOTENV", dotenv)
			_ = os.Setenv("ROLLCALL_LOG_FORMAT", "text")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "dotenv-secret")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			})
		})

		convey.Convey("When the given dotenv file is missing", func() {
			_ = os.Setenv("ROLLCALL_DOTENV", filepath.Join(t.TempDir(), "nope.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := config.Load(cctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
		})
	})
}

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "ROLLCALL_") {
			_ = os.Unsetenv(key)
		}
	}
}
