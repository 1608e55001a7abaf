// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular is a small indicator engine over the CSV resources the
// portals publish: enrollment tables, budget execution extracts, and the
// like. Columns are classified on the fly, a numeric cell makes the column
// a measure for that row, anything else is a dimension.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Record is one CSV row split into string dimensions and numeric measures.
type Record struct {
	Dimensions map[string]string
	Measures   map[string]float64
}

// ParseCSV reads CSV rows into records. Header names are snake-cased so
// "Ano Letivo" and "ano_letivo" address the same column. Malformed rows
// are skipped rather than aborting the parse, the municipal extracts
// routinely carry a few broken lines.
func ParseCSV(r io.Reader) ([]Record, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = snakeCase(strings.TrimSpace(h))
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rec := Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}
		for i, val := range row {
			if i >= len(keys) {
				break
			}
			val = strings.TrimSpace(val)
			if f, err := strconv.ParseFloat(normalizeNumber(val), 64); err == nil {
				rec.Measures[keys[i]] = f
			} else {
				rec.Dimensions[keys[i]] = val
			}
		}
		records = append(records, rec)
	}
	return records, keys, nil
}

// Group is the aggregated value for one distinct dimension value.
type Group struct {
	Key   string
	Value float64
	Count int
}

// GroupAndAggregate groups records by a dimension and aggregates a measure
// with one of sum, mean, count, min, or max. Groups come back sorted by
// value descending; limit > 0 truncates the result.
func GroupAndAggregate(records []Record, groupBy, measure, aggregation string, limit int) ([]Group, error) {
	grouped := make(map[string][]Record)
	order := make([]string, 0)
	for _, rec := range records {
		key, ok := rec.Dimensions[groupBy]
		if !ok {
			// A numeric grouping column lands in Measures.
			if v, found := rec.Measures[groupBy]; found {
				key = strconv.FormatFloat(v, 'f', -1, 64)
				ok = true
			}
		}
		if !ok {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], rec)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		g := Group{Key: key, Count: len(grouped[key])}
		v, err := aggregate(grouped[key], measure, aggregation)
		if err != nil {
			return nil, err
		}
		g.Value = v
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value > groups[j].Value
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

func aggregate(records []Record, measure, aggregation string) (float64, error) {
	switch aggregation {
	case "count":
		return float64(len(records)), nil
	case "sum":
		var total float64
		for _, rec := range records {
			total += rec.Measures[measure]
		}
		return total, nil
	case "mean":
		if len(records) == 0 {
			return 0, nil
		}
		var total float64
		for _, rec := range records {
			total += rec.Measures[measure]
		}
		return total / float64(len(records)), nil
	case "min":
		var m float64
		found := false
		for _, rec := range records {
			v, ok := rec.Measures[measure]
			if !ok {
				continue
			}
			if !found || v < m {
				m = v
				found = true
			}
		}
		return m, nil
	case "max":
		var m float64
		found := false
		for _, rec := range records {
			v, ok := rec.Measures[measure]
			if !ok {
				continue
			}
			if !found || v > m {
				m = v
				found = true
			}
		}
		return m, nil
	default:
		return 0, fmt.Errorf("unknown aggregation %q (want sum, mean, count, min, or max)", aggregation)
	}
}

// snakeCase converts "Ano Letivo" to "ano_letivo".
func snakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// normalizeNumber rewrites Brazilian decimal notation ("1.234,56") to the
// form strconv accepts. Values without a comma pass through unchanged.
func normalizeNumber(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, ",", ".", 1)
}
