package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/config"
	"github.com/alnah/go-later2pdf/internal/hints"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string          `json:"status"` // "ready", "warnings", "errors"
	Chrome      chromeInfo      `json:"chrome"`
	Ghostscript ghostscriptInfo `json:"ghostscript"`
	Backend     backendInfo     `json:"backend"`
	Env         envInfo         `json:"environment"`
	System      systemInfo      `json:"system"`
	Warnings    []string        `json:"warnings,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// ghostscriptInfo holds compressor detection results.
type ghostscriptInfo struct {
	Enabled bool   `json:"enabled"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
}

// backendInfo summarizes backend configuration without the key.
type backendInfo struct {
	Kind      string `json:"kind"`
	Endpoint  string `json:"endpoint,omitempty"`
	HasAPIKey bool   `json:"has_api_key"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print JSON")
	configName := fs.StringP("config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg := config.DefaultConfig()
	if *configName != "" {
		loaded, err := config.LoadConfig(*configName)
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return exitCodeFor(err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(env.getenv)

	result := runDoctor(cfg, env)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.getenv("ROD_BROWSER_BIN"),
		},
		Backend: backendInfo{
			Kind:      cfg.Backend.Kind,
			Endpoint:  cfg.Backend.Endpoint,
			HasAPIKey: cfg.Backend.APIKey != "",
		},
	}

	checkChrome(result)
	checkGhostscript(result, cfg)
	checkBackend(result)
	checkEnvironment(result, env)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN (needed for PDF)")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- detected browser path
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkGhostscript warns when compression is on but gs is missing;
// conversions still succeed with uncompressed PDFs.
func checkGhostscript(result *doctorResult, cfg *config.Config) {
	result.Ghostscript.Enabled = cfg.PDF.Compress
	if !cfg.PDF.Compress {
		return
	}
	path, err := later2pdf.NewGhostscriptCompressor(cfg.PDF.Ghostscript, 0).LookPath()
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Ghostscript %q not found, PDFs will not be compressed%s", cfg.PDF.Ghostscript, hints.ForGhostscript()))
		return
	}
	result.Ghostscript.Found = true
	result.Ghostscript.Path = path
}

// checkBackend flags configuration that will fail on first use.
func checkBackend(result *doctorResult) {
	if !result.Backend.HasAPIKey {
		result.Warnings = append(result.Warnings,
			"No API key configured"+hints.ForMissingCredentials())
	}
	if result.Backend.Kind == "readeck" && result.Backend.Endpoint == "" {
		result.Errors = append(result.Errors,
			"Readeck backend needs backend.endpoint or LATER2PDF_ENDPOINT")
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer returns whether we run in a container and which signal said so.
func isContainer(env *Environment) (bool, string) {
	if env.getenv("LATER2PDF_CONTAINER") == "1" {
		return true, "LATER2PDF_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := env.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "later2pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "later2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Ghostscript")
	switch {
	case !r.Ghostscript.Enabled:
		fmt.Fprintln(w, "  [OK] Compression: disabled")
	case r.Ghostscript.Found:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Ghostscript.Path)
	default:
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Backend")
	fmt.Fprintf(w, "  [OK] Kind: %s\n", r.Backend.Kind)
	if r.Backend.Endpoint != "" {
		fmt.Fprintf(w, "  [OK] Endpoint: %s\n", r.Backend.Endpoint)
	}
	if r.Backend.HasAPIKey {
		fmt.Fprintln(w, "  [OK] API key: set")
	} else {
		fmt.Fprintln(w, "  [WARN] API key: missing")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
