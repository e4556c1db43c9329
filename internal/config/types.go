package config

import "time"

// Config holds defaults read from a config file. Nil fields were not set and
// leave the flag default in place.
type Config struct {
	Recursive    *bool
	Depth        *int
	IgnoreCase   *bool
	Fixed        *bool
	Include      *[]string
	Exclude      *[]string
	MaxBytes     *int64
	Before       *int
	After        *int
	Encoding     *string
	Color        *string
	Threads      *int
	Archives     *bool
	SkipBinary   *bool
	PollInterval *time.Duration
	LogLevel     *string
}
