package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/progress"
)

// dirPermissions is used when creating the output directory.
const dirPermissions = 0o750

// runConvert fetches the given ids and writes one document.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, ids, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoIDs
	}
	if flags.workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, flags.workers)
	}

	a, err := loadApp(&flags.common, &flags.backend, env)
	if err != nil {
		return err
	}
	mergeConvertFlags(flags, a)

	format, err := later2pdf.ParseFormat(a.cfg.Document.Format)
	if err != nil {
		return err
	}

	opts, err := a.converterOptions()
	if err != nil {
		return err
	}
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, flags.timeout)
		}
		opts = append(opts, later2pdf.WithTimeout(d))
	}
	if flags.assets.noCover {
		opts = append(opts, later2pdf.WithoutCover())
	}

	src, err := a.newSource()
	if err != nil {
		return err
	}
	conv, err := later2pdf.NewConverter(src, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = conv.Close() }()

	var reporter progress.Reporter
	if !flags.common.quiet {
		reporter = progressPrinter(env.Stderr)
	}

	start := env.Now()
	res, err := conv.Convert(ctx, later2pdf.Request{
		Credentials: a.credentials(),
		IDs:         ids,
		Format:      format,
		Layout:      later2pdf.LayoutFor(a.cfg.Document.TwoColumn),
		Archive:     a.cfg.Archive.Enabled,
		Progress:    reporter,
	})
	if err != nil {
		return err
	}
	defer res.Cleanup()

	out, err := resolveOutputPath(flags.output, a.cfg.Document.OutputDir, res.Filename)
	if err != nil {
		return err
	}
	if err := res.SaveAs(out); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	a.logger.Debug("conversion finished", "articles", len(res.Articles), "duration", env.Now().Sub(start))
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "%d articles\n", len(res.Articles))
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}

// mergeConvertFlags applies convert flags over the loaded config (CLI wins).
func mergeConvertFlags(f *convertFlags, a *app) {
	c := a.cfg
	if f.format != "" {
		c.Document.Format = f.format
	}
	if f.twoColumn {
		c.Document.TwoColumn = true
	}
	if f.archive {
		c.Archive.Enabled = true
	}
	if f.noCompress {
		c.PDF.Compress = false
	}
	if f.preface != "" {
		c.Document.Preface = f.preface
	}
	if f.workers > 0 {
		c.Processing.Workers = f.workers
	}
	if f.assets.style != "" {
		c.Assets.Style = f.assets.style
	}
	if f.assets.template != "" {
		c.Assets.TemplateSet = f.assets.template
	}
	if f.assets.assetPath != "" {
		c.Assets.BasePath = f.assets.assetPath
	}
	if f.assets.fontDir != "" {
		c.Assets.FontDir = f.assets.fontDir
	}
}

// resolveOutputPath returns where the document goes. An explicit path
// ending in a separator, or naming an existing directory, receives the
// generated filename; any other explicit path is used as is.
func resolveOutputPath(flagOutput, defaultDir, filename string) (string, error) {
	var out string
	switch {
	case flagOutput == "":
		dir := defaultDir
		if dir == "" {
			dir = "."
		}
		out = filepath.Join(dir, filename)
	case strings.HasSuffix(flagOutput, "/") || strings.HasSuffix(flagOutput, string(filepath.Separator)):
		out = filepath.Join(flagOutput, filename)
	default:
		if info, err := os.Stat(flagOutput); err == nil && info.IsDir() {
			out = filepath.Join(flagOutput, filename)
		} else {
			out = flagOutput
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), dirPermissions); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return out, nil
}

// progressPrinter writes milestones as "[ 20%] status" lines.
func progressPrinter(w io.Writer) progress.Reporter {
	return progress.Func(func(p int, status string) {
		fmt.Fprintf(w, "[%3d%%] %s\n", p, status)
	})
}
