package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alnah/go-later2pdf/internal/article"
)

// DefaultOmnivoreEndpoint is the public Omnivore GraphQL API.
const DefaultOmnivoreEndpoint = "https://api-prod.omnivore.app/api/graphql"

// omnivorePageSize is the number of search results requested per page.
const omnivorePageSize = 100

const searchQuery = `query Search($after: String, $first: Int, $query: String) {
  search(first: $first, after: $after, query: $query) {
    ... on SearchSuccess {
      edges {
        cursor
        node { id title slug url author createdAt labels { name } }
      }
      pageInfo { hasNextPage endCursor }
    }
    ... on SearchError { errorCodes }
  }
}`

const articleQuery = `query GetArticle($username: String!, $slug: String!) {
  article(username: $username, slug: $slug) {
    ... on ArticleSuccess {
      article { id title url author content savedAt createdAt slug labels { name } }
    }
    ... on ArticleError { errorCodes }
  }
}`

const archiveMutation = `mutation SetLinkArchived($input: ArchiveLinkInput!) {
  setLinkArchived(input: $input) {
    ... on ArchiveLinkSuccess { linkId message }
    ... on ArchiveLinkError { message errorCodes }
  }
}`

// graphQLRequest is the POST body of a GraphQL call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the envelope of a GraphQL reply.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type omnivoreLabel struct {
	Name string `json:"name"`
}

type omnivoreNode struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	URL       string          `json:"url"`
	Author    string          `json:"author"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"createdAt"`
	Labels    []omnivoreLabel `json:"labels"`
}

func (n omnivoreNode) tags() []string {
	tags := make([]string, 0, len(n.Labels))
	for _, l := range n.Labels {
		tags = append(tags, l.Name)
	}
	return tags
}

type searchData struct {
	Search struct {
		Edges *[]struct {
			Cursor string       `json:"cursor"`
			Node   omnivoreNode `json:"node"`
		} `json:"edges"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		ErrorCodes []string `json:"errorCodes"`
	} `json:"search"`
}

type articleData struct {
	Article struct {
		Article    *omnivoreNode `json:"article"`
		ErrorCodes []string      `json:"errorCodes"`
	} `json:"article"`
}

type archiveData struct {
	SetLinkArchived struct {
		LinkID     string   `json:"linkId"`
		Message    string   `json:"message"`
		ErrorCodes []string `json:"errorCodes"`
	} `json:"setLinkArchived"`
}

// OmnivoreSource talks to the Omnivore GraphQL API. Listing uses cursor
// pagination; articles are fetched by slug and archived by link id.
type OmnivoreSource struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewOmnivore creates an Omnivore client. An empty endpoint selects the
// public API.
func NewOmnivore(opts Options) *OmnivoreSource {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultOmnivoreEndpoint
	}
	return &OmnivoreSource{
		endpoint: endpoint,
		client:   opts.client(),
		logger:   opts.logger(),
	}
}

// Name returns "Omnivore".
func (s *OmnivoreSource) Name() string { return "Omnivore" }

// SearchQuery builds the Omnivore search string for a listing query.
func SearchQuery(q Query) string {
	order := "saved-asc"
	if q.Sort == SortDesc {
		order = "saved-desc"
	}
	query := fmt.Sprintf("sort:%s in:inbox", order)
	if q.Tag != "" {
		query += fmt.Sprintf(" label:%q", q.Tag)
	}
	return query
}

// List follows search cursors until hasNextPage is false or a page fails.
func (s *OmnivoreSource) List(ctx context.Context, creds Credentials, q Query) ([]article.Summary, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	vars := map[string]any{
		"after": nil,
		"first": omnivorePageSize,
		"query": SearchQuery(q),
	}

	summaries := []article.Summary{}
	for page := 1; ; page++ {
		var data searchData
		if err := s.execute(ctx, creds, searchQuery, vars, &data); err != nil {
			s.logger.Error("listing stopped early", "backend", "omnivore", "page", page, "error", err)
			break
		}
		result := data.Search
		if len(result.ErrorCodes) > 0 {
			s.logger.Error("search returned error codes", "codes", result.ErrorCodes)
			break
		}
		if result.Edges == nil {
			s.logger.Error("unexpected search result structure", "page", page)
			break
		}

		for _, edge := range *result.Edges {
			n := edge.Node
			sum := article.Summary{
				ID:        n.ID,
				Slug:      n.Slug,
				Title:     n.Title,
				URL:       n.URL,
				Author:    n.Author,
				CreatedAt: n.CreatedAt,
				Tags:      n.tags(),
			}
			sum.Normalize()
			summaries = append(summaries, sum)
		}

		if !result.PageInfo.HasNextPage || result.PageInfo.EndCursor == "" {
			break
		}
		vars["after"] = result.PageInfo.EndCursor
	}

	s.logger.Info("listed articles", "backend", "omnivore", "count", len(summaries))
	return summaries, nil
}

// FetchByIDs fetches each slug with its full content.
func (s *OmnivoreSource) FetchByIDs(ctx context.Context, creds Credentials, slugs []string) []article.Result[article.Article] {
	results := make([]article.Result[article.Article], 0, len(slugs))
	for _, slug := range slugs {
		a, err := s.fetchOne(ctx, creds, slug)
		if err != nil {
			s.logger.Error("article fetch failed", "backend", "omnivore", "id", slug, "error", err)
			results = append(results, article.Fail[article.Article](slug, err))
			continue
		}
		results = append(results, article.Ok(slug, a))
	}
	return results
}

func (s *OmnivoreSource) fetchOne(ctx context.Context, creds Credentials, slug string) (article.Article, error) {
	if slug == "" {
		return article.Article{}, ErrEmptyID
	}

	var data articleData
	vars := map[string]any{"username": "me", "slug": slug}
	if err := s.execute(ctx, creds, articleQuery, vars, &data); err != nil {
		return article.Article{}, err
	}
	n := data.Article.Article
	if n == nil {
		return article.Article{}, fmt.Errorf("%w: %s %v", ErrNotFound, slug, data.Article.ErrorCodes)
	}

	a := article.Article{
		ID:        n.ID,
		Title:     n.Title,
		URL:       n.URL,
		Author:    n.Author,
		CreatedAt: n.CreatedAt,
		Content:   n.Content,
		Tags:      n.tags(),
	}
	if a.ID == "" {
		a.ID = slug
	}
	a.Normalize()
	return a, nil
}

// Archive sets the link archived flag.
func (s *OmnivoreSource) Archive(ctx context.Context, creds Credentials, linkID string) error {
	if linkID == "" {
		return ErrEmptyID
	}
	var data archiveData
	vars := map[string]any{"input": map[string]any{"linkId": linkID, "archived": true}}
	if err := s.execute(ctx, creds, archiveMutation, vars, &data); err != nil {
		return err
	}
	if data.SetLinkArchived.LinkID == "" {
		return fmt.Errorf("%w: %s: %s", ErrArchive, linkID, data.SetLinkArchived.Message)
	}
	return nil
}

// execute posts a GraphQL document and decodes its data field into out.
func (s *OmnivoreSource) execute(ctx context.Context, creds Credentials, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Op: "POST", URL: s.endpoint, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", creds.APIKey)

	raw, err := doRequest(s.client, req)
	if err != nil {
		return &Error{Op: "POST", URL: s.endpoint, Cause: err}
	}

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrGraphQL, resp.Errors[0].Message)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrGraphQL)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

var _ Source = (*OmnivoreSource)(nil)
