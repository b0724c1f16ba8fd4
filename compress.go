package later2pdf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-later2pdf/internal/fileutil"
	"github.com/alnah/go-later2pdf/internal/hints"
	"github.com/alnah/go-later2pdf/internal/process"
)

// Ghostscript defaults.
const (
	DefaultGhostscript        = "gs"
	DefaultCompressionTimeout = 2 * time.Minute
)

// DocInfo is the metadata written into a compressed PDF.
type DocInfo struct {
	Title   string
	Author  string
	Creator string
}

// Compressor shrinks a rendered PDF from in into out.
type Compressor interface {
	Compress(ctx context.Context, in, out string, info DocInfo) error
}

var _ Compressor = (*GhostscriptCompressor)(nil)

// GhostscriptCompressor runs Ghostscript's pdfwrite device at the /ebook
// quality tier.
type GhostscriptCompressor struct {
	binary  string
	timeout time.Duration
}

// NewGhostscriptCompressor creates a compressor. An empty binary selects
// "gs" from PATH; a non-positive timeout selects DefaultCompressionTimeout.
func NewGhostscriptCompressor(binary string, timeout time.Duration) *GhostscriptCompressor {
	if binary == "" {
		binary = DefaultGhostscript
	}
	if timeout <= 0 {
		timeout = DefaultCompressionTimeout
	}
	return &GhostscriptCompressor{binary: binary, timeout: timeout}
}

// LookPath resolves the Ghostscript binary.
func (g *GhostscriptCompressor) LookPath() (string, error) {
	path, err := exec.LookPath(g.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v%s", ErrCompressorNotFound, err, hints.ForGhostscript())
	}
	return path, nil
}

// Compress writes a compressed copy of in to out. On timeout or
// cancellation the whole Ghostscript process group is killed.
func (g *GhostscriptCompressor) Compress(ctx context.Context, in, out string, info DocInfo) error {
	path, err := g.LookPath()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, ghostscriptArgs(in, out, info)...) // #nosec G204 -- binary from config, args built here
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrCompression, ctxErr)
		}
		return fmt.Errorf("%w: %v: %s", ErrCompression, err, strings.TrimSpace(stderr.String()))
	}
	if !fileutil.NonEmptyFile(out) {
		return fmt.Errorf("%w: no output written", ErrCompression)
	}
	return nil
}

func ghostscriptArgs(in, out string, info DocInfo) []string {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/ebook",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + out,
		"-f", in,
	}
	if mark := docInfoMark(info); mark != "" {
		args = append(args, "-c", mark)
	}
	return args
}

// docInfoMark builds a pdfmark setting the document information dictionary.
func docInfoMark(info DocInfo) string {
	var b strings.Builder
	for _, kv := range [][2]string{{"Title", info.Title}, {"Author", info.Author}, {"Creator", info.Creator}} {
		if kv[1] == "" {
			continue
		}
		fmt.Fprintf(&b, " /%s (%s)", kv[0], psString(kv[1]))
	}
	if b.Len() == 0 {
		return ""
	}
	return "[" + b.String() + " /DOCINFO pdfmark"
}

var psEscaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\n", " ", "\r", " ")

func psString(s string) string {
	return psEscaper.Replace(s)
}
