package fetchio

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher is the narrow interface the fetch() binding uses to retrieve one
// source's bytes. Concrete transports (HTTP/Git/file/S3) are out of scope
// for the engine proper; HTTPFetcher supplies the HTTP case.
type Fetcher interface {
	Fetch(ctx context.Context, source string, dest io.Writer) error
}

// HTTPFetcher retrieves sources over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher using client, or http.DefaultClient
// if nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source string, dest io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{source: source, code: resp.StatusCode}
	}

	_, err = io.Copy(dest, resp.Body)
	return err
}

type statusError struct {
	source string
	code   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetchio: %s: unexpected status %d", e.source, e.code)
}
