package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/rollcall/internal/adapters/http/api"
	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/probe"
	"github.com/okian/rollcall/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 10 * time.Minute
	defaultLimit        = 50
	defaultRepeat       = 3
	tokenTTL            = time.Hour
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		token   = flag.String("token", "", "Bearer token; when empty one is signed with -secret")
		secret  = flag.String("secret", os.Getenv("ROLLCALL_JWT_SECRET"), "HS256 secret used to sign a token")
		userID  = flag.Int64("user", 1, "User id placed in the signed token")
		role    = flag.String("role", "admin", "Role claim placed in the signed token")
		course  = flag.Int64("course", 0, "Restrict requests to one course")
		scope   = flag.String("scope", "", "Scope parameter sent with every request")
		windows = flag.String("windows", "2,5,10,20", "Comma separated window sizes")
		limit   = flag.Int("limit", defaultLimit, "Row limit per request")
		repeat  = flag.Int("repeat", defaultRepeat, "Requests per window size")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every response")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("probe")

	ks, err := probe.ParseWindows(*windows)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	bearer := *token
	if bearer == "" {
		if *secret == "" {
			os.Stderr.WriteString("either -token or -secret is required\n")
			os.Exit(2)
		}
		bearer, err = api.NewAuthenticator(*secret).Sign(access.Identity{UserID: *userID, ClaimRole: *role}, tokenTTL)
		if err != nil {
			os.Stderr.WriteString("failed to sign token: " + err.Error() + "\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL: *baseURL,
		Token:   bearer,
		Scope:   *scope,
		Windows: ks,
		Limit:   *limit,
		Repeat:  *repeat,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	}
	if *course > 0 {
		cfg.CourseID = course
	}

	if _, err := probe.Run(ctx, cfg, log); err != nil {
		log.Error(ctx, "probe failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "probe passed")
}
