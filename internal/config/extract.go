package config

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/dustin/go-humanize"
	"github.com/go-ini/ini"
)

// ExtractConfig contains the defaults for the extract command.
//
// Pointer fields are nil if the key is absent so that callers can tell an explicit zero from a missing value.
type ExtractConfig struct {
	Prefix         string
	OutputDir      string
	MaxDepth       *int
	UnlimitedDepth *bool
	Policy         string
	MaxEntrySize   *int64
	MaxTotalSize   *int64
	MaxEntries     *int
}

// ForExtract returns configuration for extract from the "[extract]" section.
//
// Sizes accept human-readable strings such as "10MB" or "1 GiB".
func (l *Loader) ForExtract() (c ExtractConfig, err error) {
	sec := l.section("extract")
	if sec == nil {
		return c, nil
	}

	c.Prefix = sec.Key("prefix").String()
	c.OutputDir = sec.Key("output-dir").String()
	c.Policy = sec.Key("policy").String()

	if c.MaxDepth, err = intKey(sec, "max-depth"); err != nil {
		return
	}
	if c.MaxEntries, err = intKey(sec, "max-entries"); err != nil {
		return
	}
	if c.MaxEntrySize, err = bytesKey(sec, "max-entry-size"); err != nil {
		return
	}
	if c.MaxTotalSize, err = bytesKey(sec, "max-total-size"); err != nil {
		return
	}

	if sec.HasKey("unlimited-depth") {
		v, err := sec.Key("unlimited-depth").Bool()
		if err != nil {
			return c, fmt.Errorf("parse unlimited-depth error: %w", err)
		}
		c.UnlimitedDepth = aws.Bool(v)
	}

	return c, nil
}

// ForExtract calls Loader.ForExtract on the DefaultLoader instance.
func ForExtract() (ExtractConfig, error) {
	return DefaultLoader.ForExtract()
}

func intKey(sec *ini.Section, name string) (*int, error) {
	if !sec.HasKey(name) {
		return nil, nil
	}

	v, err := sec.Key(name).Int()
	if err != nil {
		return nil, fmt.Errorf("parse %s error: %w", name, err)
	}

	return aws.Int(v), nil
}

func bytesKey(sec *ini.Section, name string) (*int64, error) {
	if !sec.HasKey(name) {
		return nil, nil
	}

	v, err := humanize.ParseBytes(sec.Key(name).String())
	if err != nil {
		return nil, fmt.Errorf("parse %s error: %w", name, err)
	}

	return aws.Int64(int64(v)), nil
}
