package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/hazyhaar/wikipron/pkg/variant"
	"github.com/urfave/cli/v3"
)

var expandCommand = &cli.Command{
	Name:      "expand",
	Usage:     "print every variant of each pattern, one per line",
	ArgsUsage: "[pattern...]",
	Description: "Each parenthesized group is optional: \"hotda(w)g\" prints hotdawg and hotdag.\n" +
		"Without arguments, patterns are read from stdin, one per line.",
	Action: runExpand,
}

func runExpand(_ context.Context, cmd *cli.Command) error {
	w := bufio.NewWriter(cmd.Root().Writer)
	emit := func(pattern string) error {
		variants, err := variant.TryExpand(pattern)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, v := range variants {
			fmt.Fprintln(w, v)
		}
		return nil
	}

	if cmd.NArg() > 0 {
		for _, p := range cmd.Args().Slice() {
			if err := emit(p); err != nil {
				w.Flush()
				return err
			}
		}
		return w.Flush()
	}

	sc := bufio.NewScanner(cmd.Root().Reader)
	for sc.Scan() {
		if err := emit(sc.Text()); err != nil {
			w.Flush()
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read patterns: %w", err)
	}
	return w.Flush()
}
