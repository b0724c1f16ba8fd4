package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/logging"
	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/sanitize"
)

func makeArticles(n int) []article.Article {
	out := make([]article.Article, n)
	for i := range out {
		out[i] = article.Article{
			ID:     fmt.Sprintf("id-%d", i),
			Title:  fmt.Sprintf("Title %d", i),
			Author: "Ann",
			URL:    fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return out
}

func newTestProcessor(opts ...ProcessorOption) *Processor {
	return NewProcessor(append([]ProcessorOption{WithProcessorLogger(logging.Discard())}, opts...)...)
}

func TestProcess_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	articles := makeArticles(8)
	// Earlier articles finish last.
	fn := func(_ context.Context, i int, a article.Article) (Processed, error) {
		time.Sleep(time.Duration(len(articles)-i) * 2 * time.Millisecond)
		return project(a), nil
	}

	got := newTestProcessor().Process(context.Background(), articles, fn)

	if len(got) != len(articles) {
		t.Fatalf("len = %d, want %d", len(got), len(articles))
	}
	for i, p := range got {
		if p.ID != articles[i].ID || p.Index != i {
			t.Errorf("got[%d] = {ID:%s Index:%d}, want {ID:%s Index:%d}", i, p.ID, p.Index, articles[i].ID, i)
		}
	}
}

func TestProcess_DuplicateTitlesKeepOrder(t *testing.T) {
	t.Parallel()

	articles := makeArticles(4)
	for i := range articles {
		articles[i].Title = "Same"
	}

	got := newTestProcessor().Process(context.Background(), articles, SanitizeStep(sanitize.New()))
	for i, p := range got {
		if p.ID != articles[i].ID {
			t.Errorf("got[%d].ID = %s, want %s", i, p.ID, articles[i].ID)
		}
	}
}

func TestProcess_FailuresAreDropped(t *testing.T) {
	t.Parallel()

	articles := makeArticles(5)
	fn := func(_ context.Context, i int, a article.Article) (Processed, error) {
		switch i {
		case 1:
			return Processed{}, errors.New("boom")
		case 3:
			panic("worker exploded")
		}
		return project(a), nil
	}

	got := newTestProcessor().Process(context.Background(), articles, fn)

	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "id-0,id-2,id-4" {
		t.Errorf("ids = %v, want [id-0 id-2 id-4]", ids)
	}
}

func TestProcess_RespectsWorkerLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int64
	fn := func(_ context.Context, _ int, a article.Article) (Processed, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return project(a), nil
	}

	newTestProcessor(WithWorkers(2)).Process(context.Background(), makeArticles(10), fn)

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestProcess_ReportsProgress(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var events []progress.Event
	r := progress.Func(func(p int, s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, progress.Event{Progress: p, Status: s})
	})

	newTestProcessor(WithProgress(r, 20, 60)).Process(context.Background(), makeArticles(4), SanitizeStep(sanitize.New()))

	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	last := events[len(events)-1]
	if last.Progress != 60 || last.Status != "Processed 4 of 4 articles" {
		t.Errorf("last event = %+v", last)
	}
	for _, e := range events {
		if e.Progress < 20 || e.Progress > 60 {
			t.Errorf("progress %d outside [20,60]", e.Progress)
		}
	}
}

func TestProcess_Empty(t *testing.T) {
	t.Parallel()

	got := newTestProcessor().Process(context.Background(), nil, SanitizeStep(sanitize.New()))
	if got == nil || len(got) != 0 {
		t.Errorf("Process(nil) = %v, want empty slice", got)
	}
}

func TestProcess_CancelledContextDropsAll(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := newTestProcessor().Process(ctx, makeArticles(3), SanitizeStep(sanitize.New()))
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestSanitizeStep(t *testing.T) {
	t.Parallel()

	a := article.Article{
		ID:      "x",
		Title:   "T",
		Author:  "A",
		URL:     "https://blog.example.org/post",
		Content: `<p>hi</p><script>evil()</script><img src="/relative.png">`,
	}

	p, err := SanitizeStep(sanitize.New())(context.Background(), 0, a)
	if err != nil {
		t.Fatalf("SanitizeStep() error = %v", err)
	}
	if p.Domain != "blog.example.org" {
		t.Errorf("Domain = %q", p.Domain)
	}
	if strings.Contains(p.Content, "script") || strings.Contains(p.Content, "relative.png") {
		t.Errorf("Content not sanitized: %q", p.Content)
	}
	if !strings.Contains(p.Content, "<p>hi</p>") {
		t.Errorf("Content lost text: %q", p.Content)
	}
}

func TestProcess_TopLevelCodeBlockSurvives(t *testing.T) {
	t.Parallel()

	articles := makeArticles(2)
	articles[0].Content = `<pre><code class="language-go">x := 1</code></pre>`
	articles[1].Content = `<div><pre><code class="language-python">print(1)</code></pre></div>`

	s := sanitize.New(
		sanitize.WithLogger(logging.Discard()),
		sanitize.WithHighlighter(sanitize.NewHighlighter("")),
	)
	got := newTestProcessor().Process(context.Background(), articles, SanitizeStep(s))

	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	for i, p := range got {
		if !strings.Contains(p.Content, "<span class=") {
			t.Errorf("article %d not highlighted: %q", i, p.Content)
		}
	}
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ string) ([]byte, string, bool) {
	return []byte{0xff, 0xd8}, "image/jpeg", true
}

func TestEmbedStep_UsesOneBasedPosition(t *testing.T) {
	t.Parallel()

	a := article.Article{ID: "x", Content: `<p><img src="https://cdn.example.com/a.png"></p>`}

	p, err := EmbedStep(sanitize.New(), stubFetcher{})(context.Background(), 2, a)
	if err != nil {
		t.Fatalf("EmbedStep() error = %v", err)
	}
	if len(p.Assets) != 1 || p.Assets[0].Name != "images/img_3_1.jpg" {
		t.Fatalf("Assets = %+v", p.Assets)
	}
	if !strings.Contains(p.Content, `src="images/img_3_1.jpg"`) {
		t.Errorf("Content = %q", p.Content)
	}
}
