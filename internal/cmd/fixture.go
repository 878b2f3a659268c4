package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/unnest/fixture"
)

type Fixture struct {
	Levels int `long:"levels" description:"number of levels of the deep ZIP chain" default:"5"`
	Args   struct {
		Dir flags.Filename `positional-arg-name:"dir" description:"the directory to write the sample archives to" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Fixture) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	dir := string(c.Args.Dir)

	name, err := fixture.NestedSample(dir)
	if err != nil {
		return fmt.Errorf("write nested sample error: %w", err)
	}
	log.Printf(`wrote "%s"`, name)

	if name, err = fixture.DeepZipChain(dir, c.Levels); err != nil {
		return fmt.Errorf("write deep zip chain error: %w", err)
	}
	log.Printf(`wrote "%s"`, name)

	return nil
}
