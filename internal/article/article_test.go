package article

import (
	"errors"
	"testing"
)

func TestArticle_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         Article
		wantTitle  string
		wantAuthor string
		wantID     string
	}{
		{
			name:       "empty fields get defaults",
			in:         Article{ID: "a1"},
			wantTitle:  DefaultTitle,
			wantAuthor: DefaultAuthor,
			wantID:     "a1",
		},
		{
			name:       "whitespace only counts as empty",
			in:         Article{ID: " a2 ", Title: "   ", Author: "\t"},
			wantTitle:  DefaultTitle,
			wantAuthor: DefaultAuthor,
			wantID:     "a2",
		},
		{
			name:       "present values kept",
			in:         Article{ID: "a3", Title: "Go", Author: "Rob"},
			wantTitle:  "Go",
			wantAuthor: "Rob",
			wantID:     "a3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := tt.in
			a.Normalize()
			if a.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", a.Title, tt.wantTitle)
			}
			if a.Author != tt.wantAuthor {
				t.Errorf("Author = %q, want %q", a.Author, tt.wantAuthor)
			}
			if a.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", a.ID, tt.wantID)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https url", "https://example.com/post/1", "example.com"},
		{"with port", "http://blog.example.org:8080/x", "blog.example.org:8080"},
		{"empty", "", ""},
		{"unparsable", "http://[::1", ""},
		{"relative path", "/just/a/path", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Domain(tt.url); got != tt.want {
				t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestJoinAuthors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"nil", nil, DefaultAuthor},
		{"blank entries", []string{"", "  "}, DefaultAuthor},
		{"single", []string{"Ada"}, "Ada"},
		{"several", []string{"Ada", " ", "Grace"}, "Ada, Grace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := JoinAuthors(tt.names); got != tt.want {
				t.Errorf("JoinAuthors() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArticle_HasTag(t *testing.T) {
	t.Parallel()

	a := Article{Tags: []string{"Go", "reading"}}
	if !a.HasTag("go") {
		t.Error("HasTag(go) = false, want true")
	}
	if a.HasTag("rust") {
		t.Error("HasTag(rust) = true, want false")
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	results := []Result[int]{
		Ok("a", 1),
		Fail[int]("b", boom),
		Ok("c", 3),
	}

	oks, failed := Partition(results)
	if len(oks) != 2 || oks[0] != 1 || oks[1] != 3 {
		t.Errorf("oks = %v, want [1 3]", oks)
	}
	if len(failed) != 1 || failed[0].Key != "b" || !errors.Is(failed[0].Err, boom) {
		t.Errorf("failed = %+v, want one failure for b", failed)
	}
}

func TestPartition_Empty(t *testing.T) {
	t.Parallel()

	oks, failed := Partition[string](nil)
	if len(oks) != 0 || len(failed) != 0 {
		t.Errorf("Partition(nil) = %v, %v; want empty", oks, failed)
	}
}

func TestSummary_Ref(t *testing.T) {
	t.Parallel()

	if got := (Summary{ID: "id-1", Slug: "my-slug"}).Ref(); got != "my-slug" {
		t.Errorf("Ref() = %q, want slug", got)
	}
	if got := (Summary{ID: "id-1"}).Ref(); got != "id-1" {
		t.Errorf("Ref() = %q, want id", got)
	}
}
