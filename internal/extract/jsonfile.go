package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type jsonAdapter struct{}

// Extract flattens a JSON file into the tabular payload shape. A top-level
// array yields one row per element; a top-level object yields a single row.
// Item keys become headers in first-seen order. Nested values are skipped so
// only scalar fields flow into standardization.
func (jsonAdapter) Extract(ctx context.Context, path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	var items []map[string]any
	switch value := decoded.(type) {
	case []any:
		for _, element := range value {
			if obj, ok := element.(map[string]any); ok {
				items = append(items, obj)
			}
		}
	case map[string]any:
		items = append(items, value)
	default:
		return nil, fmt.Errorf("parse json: top-level value must be an object or array")
	}

	var headers []string
	seen := map[string]struct{}{}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(item))
		for key, value := range item {
			scalar, ok := stringifyScalar(value)
			if !ok {
				continue
			}
			row[key] = scalar
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				headers = append(headers, key)
			}
		}
		rows = append(rows, row)
	}

	return &Payload{Kind: KindTabular, Headers: headers, Rows: rows}, nil
}

func stringifyScalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return "", true
	default:
		return "", false
	}
}
