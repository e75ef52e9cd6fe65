package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
)

// Record is one remote object as a name to value mapping. Numbers are kept as
// json.Number so integer counters survive decoding.
type Record map[string]interface{}

// maxPages guards against endpoints that keep returning a next link.
const maxPages = 10000

// Fetch reads every record of def, following the object's pagination scheme.
// Only arguments the object declares are sent.
func (c *Client) Fetch(ctx context.Context, def catalog.ObjectDefinition, args map[string]string) ([]Record, error) {
	params, err := queryFor(def, args)
	if err != nil {
		return nil, fmt.Errorf("building query for %s: %w", def.Name, err)
	}

	var records []Record
	switch def.Pagination {
	case catalog.PaginationOffset:
		records, err = c.fetchOffset(ctx, def, params)
	case catalog.PaginationMetadataNext:
		records, err = c.fetchMetadataNext(ctx, def, params)
	default:
		records, err = c.fetchPage(ctx, def, c.url(def.Path, params))
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", def.Name, err)
	}

	logger.Debug("fetched sendgrid object", "object", def.Name, "records", len(records))
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, def catalog.ObjectDefinition, fullURL string) ([]Record, error) {
	body, err := c.doRequest(ctx, c.httpClient, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	if def.Shape == catalog.ShapeStats {
		return decodeStats(body)
	}
	records, _, err := decodeList(body, def.ResultKey)
	return records, err
}

func (c *Client) fetchOffset(ctx context.Context, def catalog.ObjectDefinition, params url.Values) ([]Record, error) {
	var all []Record
	for offset, page := 0, 0; page < maxPages; page++ {
		q := cloneValues(params)
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(offset))

		records, err := c.fetchPage(ctx, def, c.url(def.Path, q))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < c.pageSize {
			return all, nil
		}
		offset += len(records)
	}
	return nil, fmt.Errorf("pagination did not terminate after %d pages", maxPages)
}

func (c *Client) fetchMetadataNext(ctx context.Context, def catalog.ObjectDefinition, params url.Values) ([]Record, error) {
	q := cloneValues(params)
	q.Set("page_size", strconv.Itoa(c.pageSize))
	next := c.url(def.Path, q)

	var all []Record
	for page := 0; page < maxPages; page++ {
		body, err := c.doRequest(ctx, c.httpClient, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		records, meta, err := decodeList(body, def.ResultKey)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if meta.Next == "" || meta.Next == next || len(records) == 0 {
			return all, nil
		}
		next = meta.Next
	}
	return nil, fmt.Errorf("pagination did not terminate after %d pages", maxPages)
}

type metadata struct {
	Next string `json:"next"`
}

func newDecoder(body []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec
}

func decodeList(body []byte, resultKey string) ([]Record, metadata, error) {
	if resultKey == "" {
		var records []Record
		if err := newDecoder(body).Decode(&records); err != nil {
			return nil, metadata{}, fmt.Errorf("parsing response: %w", err)
		}
		return records, metadata{}, nil
	}

	var envelope map[string]json.RawMessage
	if err := newDecoder(body).Decode(&envelope); err != nil {
		return nil, metadata{}, fmt.Errorf("parsing response: %w", err)
	}
	var meta metadata
	if raw, ok := envelope["_metadata"]; ok {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, metadata{}, fmt.Errorf("parsing _metadata: %w", err)
		}
	}
	raw, ok := envelope[resultKey]
	if !ok || string(raw) == "null" {
		return nil, meta, nil
	}
	var records []Record
	if err := newDecoder(raw).Decode(&records); err != nil {
		return nil, metadata{}, fmt.Errorf("parsing %s: %w", resultKey, err)
	}
	return records, meta, nil
}

type statsBucket struct {
	Date  string `json:"date"`
	Stats []struct {
		Name    string                 `json:"name"`
		Type    string                 `json:"type"`
		Metrics map[string]interface{} `json:"metrics"`
	} `json:"stats"`
}

// decodeStats flattens date buckets into one record per stats entry.
func decodeStats(body []byte) ([]Record, error) {
	var buckets []statsBucket
	if err := newDecoder(body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("parsing stats response: %w", err)
	}
	var out []Record
	for _, b := range buckets {
		for _, s := range b.Stats {
			rec := Record{"date": b.Date}
			if s.Name != "" {
				rec["name"] = s.Name
			}
			if s.Type != "" {
				rec["type"] = s.Type
			}
			for k, v := range s.Metrics {
				rec[k] = v
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// queryFor maps request arguments onto SendGrid query parameters. Suppression
// endpoints filter on unix start_time/end_time; stats endpoints take the dates
// verbatim and the category filter as repeated categories parameters.
func queryFor(def catalog.ObjectDefinition, args map[string]string) (url.Values, error) {
	q := url.Values{}
	names := append(append([]string(nil), def.RequiredArguments...), def.OptionalArguments...)
	for _, name := range names {
		v := args[name]
		if v == "" {
			continue
		}
		switch name {
		case catalog.ArgStatCategories:
			for _, cat := range strings.Split(v, ",") {
				if cat = strings.TrimSpace(cat); cat != "" {
					q.Add("categories", cat)
				}
			}
		case catalog.ArgStartDate, catalog.ArgEndDate:
			if def.Category != catalog.Suppression {
				q.Set(name, v)
				continue
			}
			t, err := catalog.ParseDate(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			key := "start_time"
			if name == catalog.ArgEndDate {
				key = "end_time"
			}
			q.Set(key, strconv.FormatInt(t.Unix(), 10))
		default:
			q.Set(name, v)
		}
	}
	return q, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
