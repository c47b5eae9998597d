package liferay

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/listquery"
)

// Entry is one object entry as returned by the headless object API.
type Entry map[string]any

// ID returns the entry id, or zero when absent.
func (e Entry) ID() int64 {
	switch v := e["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

// Page is one page of a listing.
type Page struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalCount int     `json:"totalCount"`
	LastPage   int     `json:"lastPage"`
}

func entryPath(collection string, id int64) (string, error) {
	collection = strings.Trim(strings.TrimSpace(collection), "/")
	if collection == "" {
		return "", fmt.Errorf("liferay: collection name is required")
	}
	if id <= 0 {
		return objectPathRoot + collection + "/", nil
	}
	return objectPathRoot + collection + "/" + strconv.FormatInt(id, 10), nil
}

// GetEntry fetches one entry.
func (c *Client) GetEntry(ctx context.Context, collection string, id int64) (Entry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("liferay: entry id must be positive")
	}
	path, err := entryPath(collection, id)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := c.getJSON(ctx, path, nil, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateEntry posts a new entry and returns the stored record.
func (c *Client) CreateEntry(ctx context.Context, collection string, payload map[string]any) (Entry, error) {
	path, err := entryPath(collection, 0)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := c.doJSON(ctx, http.MethodPost, path, nil, payload, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry replaces an existing entry.
func (c *Client) UpdateEntry(ctx context.Context, collection string, id int64, payload map[string]any) (Entry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("liferay: entry id must be positive")
	}
	path, err := entryPath(collection, id)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := c.doJSON(ctx, http.MethodPut, path, nil, payload, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries reads one page of a collection using the listing state.
func (c *Client) ListEntries(ctx context.Context, collection string, state listquery.State) (Page, error) {
	path, err := entryPath(collection, 0)
	if err != nil {
		return Page{}, err
	}
	var page Page
	if err := c.getJSON(ctx, path, state.Backend(), &page); err != nil {
		return Page{}, err
	}
	if page.Items == nil {
		page.Items = []Entry{}
	}
	return page, nil
}

// OpenAPIDocument returns the raw OpenAPI document the portal publishes for
// a collection, used to check payloads before they are sent.
func (c *Client) OpenAPIDocument(ctx context.Context, collection string) ([]byte, error) {
	path, err := entryPath(collection, 0)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path+"openapi.json", nil, nil, "")
}

// ObjectPath returns the path of a collection's entries, e.g. "/o/c/vehicles/".
func ObjectPath(collection string) string {
	path, err := entryPath(collection, 0)
	if err != nil {
		return ""
	}
	return "/" + path
}
