package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/unnest"
	"github.com/nguyengg/unnest/internal"
	"github.com/nguyengg/unnest/internal/config"
	"github.com/nguyengg/unnest/internal/source"
	"github.com/nguyengg/unnest/util"
)

type Extract struct {
	Prefix         string `long:"prefix" description:"prefix prepended to every extracted file name"`
	OutputDir      string `short:"o" long:"output-dir" description:"directory to write matches to; by default a new directory named after the archive is created in the working directory"`
	MaxDepth       int    `long:"max-depth" description:"maximum number of nested archive layers to open when depth is limited (1-200, default 50)"`
	UnlimitedDepth bool   `long:"unlimited-depth" description:"open nested archives regardless of depth (default)"`
	LimitedDepth   bool   `long:"limited-depth" description:"only open nested archives up to max-depth"`
	Policy         string `long:"policy" choice:"match-and-recurse" choice:"match-only" choice:"recurse-only" description:"what to do with an entry that both matches and is an archive (default match-and-recurse)"`
	MaxEntrySize   string `long:"max-entry-size" description:"skip entries bigger than this, e.g. 100MB"`
	MaxTotalSize   string `long:"max-total-size" description:"stop once this many bytes have been written to disk, e.g. 10GB"`
	MaxEntries     int    `long:"max-entries" description:"stop after examining this many entries"`
	Quiet          bool   `short:"q" long:"quiet" description:"only print the paths of extracted files"`
	Args           struct {
		Archive flags.Filename `positional-arg-name:"archive" description:"the local archive or s3://bucket/key to extract from" required:"yes"`
		Pattern string         `positional-arg-name:"pattern" description:"regular expression matched against the base name of every entry" required:"yes"`
	} `positional-args:"yes"`

	profile *string
	logger  *log.Logger
}

func (c *Extract) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	if c.UnlimitedDepth && c.LimitedDepth {
		return fmt.Errorf("--unlimited-depth and --limited-depth are mutually exclusive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	name := string(c.Args.Archive)
	c.logger = internal.NewLogger(name, c.Quiet)

	profile := ""
	if c.profile != nil {
		profile = *c.profile
	}
	if file, err := config.LoadProfile(ctx, profile); err != nil {
		return fmt.Errorf("load config error: %w", err)
	} else if file != "" {
		c.logger.Printf(`using config file "%s"`, file)
	}

	opts, err := c.configOptions()
	if err != nil {
		return err
	}

	if opts.OutputDir == "" {
		stem, _ := util.StemAndExt(path.Base(strings.ReplaceAll(name, "\\", "/")))
		if opts.OutputDir, err = util.MkExclDir(".", stem+"-extracted", 0755); err != nil {
			return err
		}
		defer removeIfEmpty(opts.OutputDir)
	}

	cfg, err := unnest.NewConfig(opts)
	if err != nil {
		return err
	}

	local, cleanup, err := source.Resolver{Logger: c.logger}.Resolve(ctx, name, os.TempDir())
	defer cleanup()
	if err != nil {
		return err
	}

	bar := internal.DefaultBytes(-1, "extracting", c.Quiet)
	defer bar.Close()

	res := unnest.New(cfg, func(o *unnest.Options) {
		o.Logger = c.logger
		o.Progress = bar
		o.OnMatch = func(m unnest.FileMatch) {
			if c.Quiet {
				fmt.Println(m.Path)
			}
		}
	}).Extract(ctx, local)

	if !c.Quiet {
		for _, m := range res.Matches {
			c.logger.Printf(`%d: "%s" => "%s"`, m.Seq, strings.Join(append(slices.Clone(m.Chain), m.Name), " > "), m.Path)
		}
		for _, err = range res.Diagnostics {
			c.logger.Printf("warning: %v", err)
		}
	}

	if !res.Success {
		return res.Err
	}

	c.logger.Printf("extracted %d files (%s) to \"%s\"", len(res.Matches), humanize.Bytes(uint64(res.BytesWritten)), cfg.OutputDir())
	return nil
}

// configOptions merges the defaults, the .unnest file, and the command line flags, in increasing precedence.
func (c *Extract) configOptions() (opts unnest.ConfigOptions, err error) {
	opts = unnest.DefaultConfigOptions()
	opts.TargetPattern = c.Args.Pattern

	fc, err := config.ForExtract()
	if err != nil {
		return opts, fmt.Errorf("read [extract] config error: %w", err)
	}

	opts.Prefix = fc.Prefix
	opts.OutputDir = fc.OutputDir
	if fc.MaxDepth != nil {
		opts.MaxDepth = *fc.MaxDepth
	}
	if fc.UnlimitedDepth != nil {
		opts.UnlimitedDepth = *fc.UnlimitedDepth
	}
	if fc.MaxEntrySize != nil {
		opts.MaxEntrySize = *fc.MaxEntrySize
	}
	if fc.MaxTotalSize != nil {
		opts.MaxTotalSize = *fc.MaxTotalSize
	}
	if fc.MaxEntries != nil {
		opts.MaxEntries = *fc.MaxEntries
	}
	policy := fc.Policy

	if c.Prefix != "" {
		opts.Prefix = c.Prefix
	}
	if c.OutputDir != "" {
		opts.OutputDir = c.OutputDir
	}
	if c.MaxDepth != 0 {
		opts.MaxDepth = c.MaxDepth
	}
	switch {
	case c.UnlimitedDepth:
		opts.UnlimitedDepth = true
	case c.LimitedDepth:
		opts.UnlimitedDepth = false
	}
	if c.Policy != "" {
		policy = c.Policy
	}
	if c.MaxEntries != 0 {
		opts.MaxEntries = c.MaxEntries
	}
	if opts.MaxEntrySize, err = parseBytes("max-entry-size", c.MaxEntrySize, opts.MaxEntrySize); err != nil {
		return
	}
	if opts.MaxTotalSize, err = parseBytes("max-total-size", c.MaxTotalSize, opts.MaxTotalSize); err != nil {
		return
	}

	if opts.Policy, err = unnest.ParseNestedMatchPolicy(policy); err != nil {
		return opts, &unnest.ConfigError{Field: "Policy", Value: policy, Err: err}
	}

	return opts, nil
}

func parseBytes(flag, v string, fallback int64) (int64, error) {
	if v == "" {
		return fallback, nil
	}

	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", flag, err)
	}

	return int64(n), nil
}

// removeIfEmpty removes the output directory that was created on behalf of the user if nothing was extracted into it.
func removeIfEmpty(dir string) {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if err = os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf(`remove empty directory "%s" error: %v`, dir, err)
		}
	}
}
