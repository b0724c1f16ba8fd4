package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/alnah/go-later2pdf/internal/source"
)

// runList prints saved articles, oldest first unless --sort desc.
func runList(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseListFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	a, err := loadApp(&flags.common, &flags.backend, env)
	if err != nil {
		return err
	}
	src, err := a.newSource()
	if err != nil {
		return err
	}

	summaries, err := src.List(ctx, a.credentials(), source.Query{
		Tag:  strings.TrimSpace(flags.tag),
		Sort: source.ParseSort(flags.sort),
	})
	if err != nil {
		return err
	}
	if flags.index && len(summaries) > a.cfg.Listing.MaxIndex {
		summaries = summaries[:a.cfg.Listing.MaxIndex]
	}

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tSAVED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Ref(), s.Title, s.Author, s.CreatedAt)
	}
	return tw.Flush()
}
