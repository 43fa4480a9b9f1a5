package probe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseWindows parses a comma separated list of window sizes.
func ParseWindows(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("invalid window %q", part)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no windows in %q", s)
	}
	return out, nil
}

// ShowHelp prints usage information for the risk probe.
func ShowHelp() {
	os.Stdout.WriteString(`Rollcall Risk Probe
===================

Issues concurrent risk requests against a running rollcall server and checks
ranking order, probability bounds, window sizes and determinism.

Usage:
  go run ./cmd/risk-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -token string
        Bearer token; when empty one is signed with -secret
  -secret string
        HS256 secret used to sign a token (default $ROLLCALL_JWT_SECRET)
  -user int
        User id placed in the signed token (default 1)
  -role string
        Role claim placed in the signed token (default "admin")
  -course int
        Restrict requests to one course (default: all accessible)
  -windows string
        Comma separated window sizes (default "2,5,10,20")
  -limit int
        Row limit per request (default 50)
  -repeat int
        Requests per window size (default 3)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Log every response
  -help
        Show this help message

Examples:
  go run ./cmd/risk-probe -secret dev-secret
  go run ./cmd/risk-probe -secret dev-secret -user 2 -role teacher -course 100 -windows 3,7
`)
}
