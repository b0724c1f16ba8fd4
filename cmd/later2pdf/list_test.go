package main

// Notes:
// - runList: the fake server speaks Readeck, so rows show bookmark ids.
//   Slug display is covered by article.Summary.Ref tests.

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alnah/go-later2pdf/internal/article"
)

// ---------------------------------------------------------------------------
// TestRunList - Table and JSON output
// ---------------------------------------------------------------------------

func TestRunList_Table(t *testing.T) {
	t.Parallel()

	srv := newReadeckServer(t, 2)
	env := newTestEnv(map[string]string{"LATER2PDF_API_KEY": "k"})

	code := runMain(context.Background(), []string{
		"list", "-q", "--backend", "readeck", "--endpoint", srv.URL,
	}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, env.stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), env.stdout.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "TITLE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "b0") || !strings.Contains(lines[1], "Title b0") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestRunList_JSON(t *testing.T) {
	t.Parallel()

	srv := newReadeckServer(t, 3)
	env := newTestEnv(map[string]string{"LATER2PDF_API_KEY": "k"})

	code := runMain(context.Background(), []string{
		"list", "-q", "--json", "--backend", "readeck", "--endpoint", srv.URL,
	}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, env.stderr.String())
	}

	var got []article.Summary
	if err := json.Unmarshal(env.stdout.Bytes(), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, env.stdout.String())
	}
	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}
	if got[2].ID != "b2" || got[2].Title != "Title b2" {
		t.Errorf("summary = %+v", got[2])
	}
}

func TestRunList_IndexCap(t *testing.T) {
	t.Parallel()

	srv := newReadeckServer(t, 12)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"full listing", nil, 12},
		{"index page", []string{"--index"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(map[string]string{"LATER2PDF_API_KEY": "k"})
			args := append([]string{"list", "-q", "--json", "--backend", "readeck", "--endpoint", srv.URL}, tt.args...)
			if code := runMain(context.Background(), args, env.Environment); code != ExitSuccess {
				t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr.String())
			}

			var got []article.Summary
			if err := json.Unmarshal(env.stdout.Bytes(), &got); err != nil {
				t.Fatalf("decoding output: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d summaries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRunList_MissingAPIKey(t *testing.T) {
	t.Parallel()

	srv := newReadeckServer(t, 1)
	env := newTestEnv(nil)

	code := runMain(context.Background(), []string{
		"list", "--backend", "readeck", "--endpoint", srv.URL,
	}, env.Environment)
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(env.stderr.String(), "LATER2PDF_API_KEY") {
		t.Errorf("stderr = %q, want credentials hint", env.stderr.String())
	}
}
