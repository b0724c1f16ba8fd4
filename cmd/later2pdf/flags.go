package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// backendFlags selects the read-it-later service.
type backendFlags struct {
	kind     string
	endpoint string
	apiKey   string
}

// assetFlags holds asset-related flags.
type assetFlags struct {
	style     string
	template  string
	assetPath string
	fontDir   string
	noCover   bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	backend    backendFlags
	assets     assetFlags
	output     string
	format     string
	twoColumn  bool
	archive    bool
	noCompress bool
	preface    string
	timeout    string
	workers    int
}

// listFlags holds flags for the list command.
type listFlags struct {
	common  commonFlags
	backend backendFlags
	tag     string
	sort    string
	index   bool
	json    bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	backend backendFlags
	addr    string
	pool    int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
}

// addBackendFlags adds backend selection flags to a FlagSet.
func addBackendFlags(fs *flag.FlagSet, f *backendFlags) {
	fs.StringVar(&f.kind, "backend", "", "backend: omnivore, readeck")
	fs.StringVar(&f.endpoint, "endpoint", "", "backend API URL")
	fs.StringVar(&f.apiKey, "api-key", "", "backend API key (prefer LATER2PDF_API_KEY)")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name")
	fs.StringVar(&f.template, "template", "", "template set name")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.fontDir, "font-dir", "", "directory of TrueType fonts to embed")
	fs.BoolVar(&f.noCover, "no-cover", false, "disable cover page")
}

func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	fs := newFlagSet("convert", printConvertUsage, stderr)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: pdf, epub")
	fs.BoolVar(&f.twoColumn, "two-column", false, "two-column PDF layout")
	fs.BoolVar(&f.archive, "archive", false, "archive articles after conversion")
	fs.BoolVar(&f.noCompress, "no-compress", false, "skip Ghostscript compression")
	fs.StringVar(&f.preface, "preface", "", "Markdown file rendered after the table of contents")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "page load timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "articles processed in parallel (0 = config)")

	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)
	addAssetFlags(fs, &f.assets)

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, fs.Args(), nil
}

// parseListFlags parses list command flags.
func parseListFlags(args []string, stderr io.Writer) (*listFlags, error) {
	fs := newFlagSet("list", printListUsage, stderr)
	f := &listFlags{}

	fs.StringVar(&f.tag, "tag", "", "only articles with this label")
	fs.StringVar(&f.sort, "sort", "asc", "save date order: asc, desc")
	fs.BoolVar(&f.index, "index", false, "cap the listing at listing.maxIndex")
	fs.BoolVar(&f.json, "json", false, "print JSON")

	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	fs := newFlagSet("serve", printServeUsage, stderr)
	f := &serveFlags{}

	fs.StringVar(&f.addr, "addr", "", "listen address (default from config, :8080)")
	fs.IntVar(&f.pool, "pool", 0, "browser pool size (0 = auto)")

	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, nil
}
