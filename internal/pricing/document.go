package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

const metaKey = "_meta"

// ErrInvalidDocument indicates a pricing document failed validation.
var ErrInvalidDocument = errors.New("pricing: invalid pricing document")

// ParseDocument validates a pricing document keyed by model id and returns
// its table and the optional _meta.updated value. Every entry must carry
// numeric, non-negative input, output, cache_read and cache_write_5m rates;
// a single bad entry rejects the whole document.
func ParseDocument(body []byte) (Table, string, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", fmt.Errorf("%w: malformed JSON", ErrInvalidDocument)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, "", fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}

	table := make(Table)
	var entryErr error
	root.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if id == metaKey {
			return true
		}
		p, err := parseEntry(id, value)
		if err != nil {
			entryErr = err
			return false
		}
		table[id] = p
		return true
	})
	if entryErr != nil {
		return nil, "", entryErr
	}
	if len(table) == 0 {
		return nil, "", fmt.Errorf("%w: no models", ErrInvalidDocument)
	}

	return table, root.Get(metaKey + ".updated").String(), nil
}

func parseEntry(id string, v gjson.Result) (ModelPricing, error) {
	if !v.IsObject() {
		return ModelPricing{}, fmt.Errorf("%w: %s is not an object", ErrInvalidDocument, id)
	}

	var err error
	rate := func(field string) float64 {
		if err != nil {
			return 0
		}
		r := v.Get(field)
		if r.Type != gjson.Number {
			err = fmt.Errorf("%w: %s.%s missing or not a number", ErrInvalidDocument, id, field)
			return 0
		}
		f := r.Float()
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			err = fmt.Errorf("%w: %s.%s is negative", ErrInvalidDocument, id, field)
			return 0
		}
		return f
	}

	p := ModelPricing{
		Name:         v.Get("name").String(),
		Input:        rate("input"),
		Output:       rate("output"),
		CacheRead:    rate("cache_read"),
		CacheWrite5m: rate("cache_write_5m"),
	}
	if v.Get("cache_write_1h").Exists() {
		p.CacheWrite1h = rate("cache_write_1h")
	} else {
		p.CacheWrite1h = p.CacheWrite5m
	}
	if err != nil {
		return ModelPricing{}, err
	}
	if p.Name == "" {
		p.Name = id
	}
	return p, nil
}
