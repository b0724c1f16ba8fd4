package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: later2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert saved articles to PDF or EPUB")
	fmt.Fprintln(w, "  list       List saved articles")
	fmt.Fprintln(w, "  serve      Run the HTTP server")
	fmt.Fprintln(w, "  doctor     Check Chrome, Ghostscript and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'later2pdf help <command>' for details on a specific command.")
}

func printBackendUsage(w io.Writer) {
	fmt.Fprintln(w, "Backend:")
	fmt.Fprintln(w, "      --backend <s>         omnivore or readeck")
	fmt.Fprintln(w, "      --endpoint <url>      Backend API URL (required for readeck)")
	fmt.Fprintln(w, "      --api-key <s>         API key (default $LATER2PDF_API_KEY)")
	fmt.Fprintln(w)
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: later2pdf convert <id>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch up to 10 articles and assemble them into one document.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  id       Omnivore slug or Readeck bookmark id, in document order")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <s>          pdf (default) or epub")
	fmt.Fprintln(w, "      --two-column          Two-column PDF layout")
	fmt.Fprintln(w, "      --archive             Archive articles after conversion")
	fmt.Fprintln(w, "      --no-compress         Skip Ghostscript compression")
	fmt.Fprintln(w, "      --preface <path>      Markdown preface")
	fmt.Fprintln(w, "  -t, --timeout <d>         Page load timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Articles processed in parallel")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name>        CSS style name")
	fmt.Fprintln(w, "      --template <name>     Template set name")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --font-dir <dir>      TrueType fonts to embed")
	fmt.Fprintln(w, "      --no-cover            Disable cover page")
	fmt.Fprintln(w)
	printBackendUsage(w)
	printCommonUsage(w)
}

// printListUsage prints usage for the list command.
func printListUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: later2pdf list [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List saved, unarchived articles.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Listing:")
	fmt.Fprintln(w, "      --tag <s>             Only articles with this label")
	fmt.Fprintln(w, "      --sort <s>            asc (default) or desc by save date")
	fmt.Fprintln(w, "      --index               Show at most listing.maxIndex articles")
	fmt.Fprintln(w, "      --json                Print JSON")
	fmt.Fprintln(w)
	printBackendUsage(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: later2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the conversion API.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w, "      --pool <n>            Browser pool size (0 = auto)")
	fmt.Fprintln(w)
	printBackendUsage(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "list":
		printListUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: later2pdf doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Chrome and Ghostscript are usable.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: later2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: later2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
