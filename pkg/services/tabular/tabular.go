// Package tabular turns Grafana query responses into one column/row format.
//
// Grafana answers ad-hoc SQL either with data frames (/api/ds/query) or with legacy tables
// (/api/tsdb/query). Both are converted into Result here and nowhere else.
package tabular

import (
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/data"
)

type Result struct {
	Columns []string
	Rows    [][]any
}

// LegacyTable is the pre data-frame response table.
type LegacyTable struct {
	Columns []LegacyColumn `json:"columns"`
	Rows    [][]any        `json:"rows"`
}

type LegacyColumn struct {
	Text string `json:"text"`
}

func FromFrame(f *data.Frame) Result {
	res := Result{Columns: make([]string, 0, len(f.Fields))}
	for _, field := range f.Fields {
		res.Columns = append(res.Columns, field.Name)
	}

	rows := 0
	if len(f.Fields) > 0 {
		rows = f.Fields[0].Len()
	}
	res.Rows = make([][]any, 0, rows)
	for i := 0; i < rows; i++ {
		row := make([]any, len(f.Fields))
		for j, field := range f.Fields {
			if i >= field.Len() {
				continue
			}
			if v, ok := field.ConcreteAt(i); ok {
				row[j] = v
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func FromTable(t LegacyTable) Result {
	res := Result{Columns: make([]string, 0, len(t.Columns))}
	for _, c := range t.Columns {
		res.Columns = append(res.Columns, c.Text)
	}
	res.Rows = t.Rows
	if res.Rows == nil {
		res.Rows = [][]any{}
	}
	return res
}

// Append adds the rows of other, reordered to the columns of r. Missing columns are nil.
func (r Result) Append(other Result) Result {
	if len(r.Columns) == 0 {
		return other
	}
	index := make(map[string]int, len(other.Columns))
	for i, c := range other.Columns {
		index[c] = i
	}
	for _, src := range other.Rows {
		row := make([]any, len(r.Columns))
		for i, c := range r.Columns {
			if j, ok := index[c]; ok && j < len(src) {
				row[i] = src[j]
			}
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Records zips each row with the column names. With wanted set, other columns are dropped.
func Records(res Result, wanted ...string) []map[string]any {
	keep := func(string) bool { return true }
	if len(wanted) > 0 {
		set := make(map[string]struct{}, len(wanted))
		for _, w := range wanted {
			set[w] = struct{}{}
		}
		keep = func(c string) bool {
			_, ok := set[c]
			return ok
		}
	}

	records := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make(map[string]any, len(res.Columns))
		for i, c := range res.Columns {
			if !keep(c) {
				continue
			}
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}

type queryResponse struct {
	Results map[string]refResult `json:"results"`
}

type refResult struct {
	Error  string        `json:"error"`
	Status int           `json:"status"`
	Frames []*data.Frame `json:"frames"`
	Tables []LegacyTable `json:"tables"`
}

// ParseQueryResponse decodes the result for refID from a /api/ds/query or /api/tsdb/query body.
func ParseQueryResponse(body []byte, refID string) (Result, error) {
	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, fmt.Errorf("decode query response: %w", err)
	}

	ref, ok := resp.Results[refID]
	if !ok {
		return Result{}, fmt.Errorf("query response has no result for ref %q", refID)
	}
	if ref.Error != "" {
		return Result{}, fmt.Errorf("query %s failed: %s", refID, ref.Error)
	}

	res := Result{Rows: [][]any{}}
	for _, f := range ref.Frames {
		if f == nil {
			continue
		}
		res = res.Append(FromFrame(f))
	}
	for _, t := range ref.Tables {
		res = res.Append(FromTable(t))
	}
	return res, nil
}
