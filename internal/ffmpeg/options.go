package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType represents a strongly typed FFmpeg input option.
type OptionType string

// FFmpeg option constants.
const (
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionLowLatency         OptionType = "low_latency"
	OptionIgnoreErrors       OptionType = "ignore_err"
)

// Option describes one input option.
type Option struct {
	Key         OptionType `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	AppDefault  bool       `json:"app_default"`
}

// AllOptions lists the supported input options.
var AllOptions = []Option{
	{
		Key:         OptionThreadQueue1024,
		Name:        "Large Thread Queue",
		Description: "Use 1024 thread queue size (helps with buffer corruption)",
	},
	{
		Key:         OptionWallclockTimestamp,
		Name:        "Wallclock Timestamps",
		Description: "Use wallclock as timestamps (helps with buffer issues)",
	},
	{
		Key:         OptionLowLatency,
		Name:        "Low Latency",
		Description: "Flush packets immediately and prefer low delay",
		AppDefault:  true,
	},
	{
		Key:         OptionIgnoreErrors,
		Name:        "Ignore Errors",
		Description: "Continue decoding despite corrupt frames",
	},
}

// DefaultOptions returns the options enabled by default.
func DefaultOptions() []OptionType {
	var opts []OptionType
	for _, o := range AllOptions {
		if o.AppDefault {
			opts = append(opts, o.Key)
		}
	}
	return opts
}

// ParseOptions converts option keys, rejecting unknown ones.
func ParseOptions(keys []string) ([]OptionType, error) {
	opts := make([]OptionType, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if GetOptionByKey(OptionType(k)) == nil {
			return nil, fmt.Errorf("unknown ffmpeg option %q", k)
		}
		opts = append(opts, OptionType(k))
	}
	return opts, nil
}

// GetOptionByKey returns the option with key, or nil.
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// inputArgs renders options that belong before -i.
func inputArgs(options []OptionType) []string {
	var args []string
	for _, option := range options {
		switch option {
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionLowLatency:
			args = append(args, "-fflags", "+nobuffer", "-flags", "+low_delay")
		case OptionIgnoreErrors:
			args = append(args, "-err_detect", "ignore_err")
		}
	}
	return args
}
