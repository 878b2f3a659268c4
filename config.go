package unnest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	// MinMaxDepth and MaxMaxDepth are the inclusive bounds of Config.MaxDepth.
	MinMaxDepth = 1
	MaxMaxDepth = 200

	// DefaultMaxDepth is the MaxDepth returned by DefaultConfigOptions.
	DefaultMaxDepth = 50

	// DefaultOutputDir is used when ConfigOptions.OutputDir is empty.
	DefaultOutputDir = "extracted"
)

// NestedMatchPolicy decides what happens to an entry that both matches the target pattern and is itself an archive.
type NestedMatchPolicy int

const (
	// MatchAndRecurse extracts the entry as a match and also looks inside it.
	MatchAndRecurse NestedMatchPolicy = iota
	// MatchOnly extracts the entry as a match without looking inside it.
	MatchOnly
	// RecurseOnly looks inside the entry without extracting it as a match.
	RecurseOnly
)

func (p NestedMatchPolicy) String() string {
	switch p {
	case MatchAndRecurse:
		return "match-and-recurse"
	case MatchOnly:
		return "match-only"
	case RecurseOnly:
		return "recurse-only"
	default:
		return fmt.Sprintf("NestedMatchPolicy(%d)", int(p))
	}
}

// ParseNestedMatchPolicy is the inverse of NestedMatchPolicy.String.
func ParseNestedMatchPolicy(s string) (NestedMatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "match-and-recurse", "both", "":
		return MatchAndRecurse, nil
	case "match-only", "match":
		return MatchOnly, nil
	case "recurse-only", "recurse":
		return RecurseOnly, nil
	default:
		return 0, fmt.Errorf("unknown policy %q", s)
	}
}

// ConfigOptions are the raw inputs to NewConfig.
type ConfigOptions struct {
	// TargetPattern is a regular expression tested against the base name of every archive entry, never its path.
	TargetPattern string

	// Prefix is prepended to every output file name. May be empty but must not contain path separators.
	Prefix string

	// OutputDir is the directory that extracted matches are written to. Created on demand.
	//
	// Defaults to DefaultOutputDir.
	OutputDir string

	// MaxDepth bounds how many nested archive layers may be opened when UnlimitedDepth is false. Must be within
	// [MinMaxDepth, MaxMaxDepth] regardless.
	MaxDepth int

	// UnlimitedDepth if true will look inside nested archives no matter how deep they are.
	UnlimitedDepth bool

	// Policy decides what happens to entries that both match and are archives.
	Policy NestedMatchPolicy

	// MaxEntrySize is the maximum uncompressed size of any single entry that is extracted or looked into. Zero means
	// unlimited.
	MaxEntrySize int64

	// MaxTotalSize is the maximum number of bytes that a single run may write to disk, including temporary copies of
	// nested archives. Zero means unlimited.
	MaxTotalSize int64

	// MaxEntries is the maximum number of entries that a single run may examine. Zero means unlimited.
	MaxEntries int
}

// DefaultConfigOptions returns options with MaxDepth=DefaultMaxDepth and UnlimitedDepth=true.
func DefaultConfigOptions() ConfigOptions {
	return ConfigOptions{
		OutputDir:      DefaultOutputDir,
		MaxDepth:       DefaultMaxDepth,
		UnlimitedDepth: true,
		Policy:         MatchAndRecurse,
	}
}

// Config is the validated, immutable configuration of an extraction run.
//
// The only way to obtain a Config is NewConfig.
type Config struct {
	pattern        *regexp.Regexp
	prefix         string
	outputDir      string
	maxDepth       int
	unlimitedDepth bool
	policy         NestedMatchPolicy
	maxEntrySize   int64
	maxTotalSize   int64
	maxEntries     int
}

// NewConfig validates the given options and returns an immutable Config.
//
// The returned error is always a *ConfigError.
func NewConfig(opts ConfigOptions) (*Config, error) {
	pattern, err := regexp.Compile(opts.TargetPattern)
	if err != nil {
		return nil, &ConfigError{Field: "TargetPattern", Value: opts.TargetPattern, Err: err}
	}

	if strings.ContainsAny(opts.Prefix, `/\`+string(os.PathSeparator)) {
		return nil, &ConfigError{Field: "Prefix", Value: opts.Prefix, Err: fmt.Errorf("must not contain path separators")}
	}

	if opts.MaxDepth < MinMaxDepth || opts.MaxDepth > MaxMaxDepth {
		return nil, &ConfigError{
			Field: "MaxDepth",
			Value: opts.MaxDepth,
			Err:   fmt.Errorf("must be between %d and %d", MinMaxDepth, MaxMaxDepth),
		}
	}

	switch opts.Policy {
	case MatchAndRecurse, MatchOnly, RecurseOnly:
	default:
		return nil, &ConfigError{Field: "Policy", Value: opts.Policy, Err: fmt.Errorf("unknown policy")}
	}

	if opts.MaxEntrySize < 0 {
		return nil, &ConfigError{Field: "MaxEntrySize", Value: opts.MaxEntrySize, Err: fmt.Errorf("must not be negative")}
	}
	if opts.MaxTotalSize < 0 {
		return nil, &ConfigError{Field: "MaxTotalSize", Value: opts.MaxTotalSize, Err: fmt.Errorf("must not be negative")}
	}
	if opts.MaxEntries < 0 {
		return nil, &ConfigError{Field: "MaxEntries", Value: opts.MaxEntries, Err: fmt.Errorf("must not be negative")}
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	return &Config{
		pattern:        pattern,
		prefix:         opts.Prefix,
		outputDir:      outputDir,
		maxDepth:       opts.MaxDepth,
		unlimitedDepth: opts.UnlimitedDepth,
		policy:         opts.Policy,
		maxEntrySize:   opts.MaxEntrySize,
		maxTotalSize:   opts.MaxTotalSize,
		maxEntries:     opts.MaxEntries,
	}, nil
}

// TargetPattern returns the compiled target pattern.
//
// A regexp.Regexp is safe for concurrent use so it's fine to share it.
func (c *Config) TargetPattern() *regexp.Regexp { return c.pattern }

// Prefix returns the output file name prefix.
func (c *Config) Prefix() string { return c.prefix }

// OutputDir returns the output directory.
func (c *Config) OutputDir() string { return c.outputDir }

// MaxDepth returns the maximum nesting depth when UnlimitedDepth is false.
func (c *Config) MaxDepth() int { return c.maxDepth }

// UnlimitedDepth returns true if nested archives are opened regardless of depth.
func (c *Config) UnlimitedDepth() bool { return c.unlimitedDepth }

// Policy returns the policy for entries that both match and are archives.
func (c *Config) Policy() NestedMatchPolicy { return c.policy }

// MaxEntrySize returns the per-entry size ceiling, 0 if unlimited.
func (c *Config) MaxEntrySize() int64 { return c.maxEntrySize }

// MaxTotalSize returns the per-run written bytes ceiling, 0 if unlimited.
func (c *Config) MaxTotalSize() int64 { return c.maxTotalSize }

// MaxEntries returns the per-run examined entries ceiling, 0 if unlimited.
func (c *Config) MaxEntries() int { return c.maxEntries }

// allowsDepth returns true if a nested archive at the given frame depth may be opened.
func (c *Config) allowsDepth(depth int) bool {
	return c.unlimitedDepth || depth <= c.maxDepth
}
