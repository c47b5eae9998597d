package liferay

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

const (
	listTypePath    = "o/headless-admin-list-type/v1.0/list-type-definitions"
	objectPathRoot  = "o/c/"
	collectionLimit = 200
	objectListKey   = string(model.OptionSourceObject) + ":"
)

type listTypeEntry struct {
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	NameI18n map[string]string `json:"name_i18n"`
}

type listTypeDefinitions struct {
	Items []struct {
		Name            string          `json:"name"`
		ListTypeEntries []listTypeEntry `json:"listTypeEntries"`
	} `json:"items"`
}

// Picklist returns the entries of the list type definition named name, in
// backend order.
func (c *Client) Picklist(ctx context.Context, name string) ([]model.Option, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("liferay: picklist name is required")
	}
	query := url.Values{}
	query.Set("filter", fmt.Sprintf("name eq '%s'", strings.ReplaceAll(name, "'", "''")))

	var defs listTypeDefinitions
	if err := c.getJSON(ctx, listTypePath, query, &defs); err != nil {
		return nil, err
	}
	for _, def := range defs.Items {
		if !strings.EqualFold(def.Name, name) && len(defs.Items) > 1 {
			continue
		}
		out := make([]model.Option, 0, len(def.ListTypeEntries))
		for _, entry := range def.ListTypeEntries {
			out = append(out, entryOption(entry.Key, entry.Name, entry.NameI18n, map[string]any{
				"key":       entry.Key,
				"name":      entry.Name,
				"name_i18n": entry.NameI18n,
			}))
		}
		return out, nil
	}
	return []model.Option{}, nil
}

type objectItems struct {
	Items []map[string]any `json:"items"`
}

// CollectionOptions returns the entries of an object collection as options
// keyed by entry id.
func (c *Client) CollectionOptions(ctx context.Context, collection string) ([]model.Option, error) {
	collection = strings.Trim(strings.TrimSpace(collection), "/")
	if collection == "" {
		return nil, fmt.Errorf("liferay: collection name is required")
	}
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(collectionLimit))
	query.Set("sort", "name:asc")

	var items objectItems
	if err := c.getJSON(ctx, objectPathRoot+collection, query, &items); err != nil {
		return nil, err
	}
	out := make([]model.Option, 0, len(items.Items))
	for _, item := range items.Items {
		id := model.AsString(item["id"])
		if id == "" {
			continue
		}
		name := model.AsString(item["name"])
		out = append(out, entryOption(id, name, stringMap(item["name_i18n"]), item))
	}
	return out, nil
}

// Fetch resolves a cache list name: `object:<collection>` reads an object
// collection, anything else a picklist.
func (c *Client) Fetch(ctx context.Context, listName string) ([]model.Option, error) {
	if collection, ok := strings.CutPrefix(listName, objectListKey); ok {
		return c.CollectionOptions(ctx, collection)
	}
	return c.Picklist(ctx, listName)
}

func entryOption(key, name string, names map[string]string, raw map[string]any) model.Option {
	option := model.Option{Value: key, Label: name, Raw: raw}
	if len(names) > 0 {
		option.LabelI18n = model.LocalizedText(names).Normalized()
	}
	if option.Label == "" {
		option.Label = option.LabelI18n.Get(model.LocaleEnglish)
	}
	if option.Label == "" {
		option.Label = key
	}
	return option
}

func stringMap(value any) map[string]string {
	switch typed := value.(type) {
	case map[string]string:
		return typed
	case map[string]any:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}
