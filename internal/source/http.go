package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error describes a failed backend call.
type Error struct {
	Op    string
	URL   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// doRequest sends req and returns the size-limited body of a 2xx response.
func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}

// getJSON issues an authorized GET and decodes the JSON response into out.
func getJSON(ctx context.Context, client *http.Client, rawURL, auth string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Op: "GET", URL: rawURL, Cause: err}
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(client, req)
	if err != nil {
		return &Error{Op: "GET", URL: rawURL, Cause: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: "GET", URL: rawURL, Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
