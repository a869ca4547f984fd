package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FetchError is any failure to retrieve the sheet export: a non-2xx response
// or a transport error. Message is safe to surface to a consumer as-is.
type FetchError struct {
	StatusCode int // 0 for transport failures
	Message    string
}

func (e *FetchError) Error() string {
	return e.Message
}

// BuildExportURL derives the CSV export URL for a published sheet. A purely
// numeric tab selects by gid, anything else by URL-encoded sheet name, empty
// selects the first tab.
func BuildExportURL(baseURL, sheetID, tab string) string {
	exportURL := fmt.Sprintf("%s/%s/export?format=csv", strings.TrimRight(baseURL, "/"), url.PathEscape(sheetID))
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return exportURL
	}
	if allDigits(tab) {
		return exportURL + "&gid=" + tab
	}
	return exportURL + "&sheet=" + url.QueryEscape(tab)
}

// FetchSheetCSV GETs the sheet export and returns the body as text. The
// content type is deliberately not enforced: published exports answer with
// whatever Google feels like, and the parser only needs the bytes.
func FetchSheetCSV(ctx context.Context, cfg Config) (string, error) {
	exportURL := BuildExportURL(cfg.SheetBaseURL, cfg.SheetID, cfg.SheetTab)

	req, err := http.NewRequestWithContext(ctx, "GET", exportURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", &FetchError{Message: fmt.Sprintf("fetching sheet export: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("reading sheet export: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("sheet export returned %d", resp.StatusCode),
		}
	}

	return strings.TrimPrefix(string(body), "\ufeff"), nil
}
