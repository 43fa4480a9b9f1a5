// Package probe exercises a running rollcall server's risk endpoint and
// checks every response against the ranking and bounds guarantees.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Token    string        // Bearer token sent with every request
	CourseID *int64        // Optional course restriction
	Scope    string        // Optional scope parameter
	Windows  []int         // Window sizes to request
	Limit    int           // Row limit per request
	Repeat   int           // Requests per window size
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every response
}

// Stats holds run statistics.
type Stats struct {
	Requests   int
	Successful int
	Failed     int
	Violations int
	RowsSeen   int
	Trained    int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// job is one request to issue.
type job struct {
	window  int
	attempt int
}
