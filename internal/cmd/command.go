package cmd

import (
	"github.com/jessevdk/go-flags"
)

type Unnest struct {
	Profile string  `short:"p" long:"profile" description:"override the AWS profile used to download s3:// archives"`
	Extract Extract `command:"extract" alias:"x" description:"extract files matching a pattern from nested archives"`
	Fixture Fixture `command:"fixture" description:"write sample nested archives to a directory"`
}

func NewParser() (*flags.Parser, error) {
	opts := &Unnest{}

	p := flags.NewNamedParser("unnest", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	// the extract command needs the global profile when resolving s3:// archives.
	opts.Extract.profile = &opts.Profile

	return p, nil
}
