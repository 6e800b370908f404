package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// StatementTable is a multi-period tabular financial statement: a set of
// line items, each with one value per report period. Periods are ordered
// most-recent-first, matching how the upstream providers deliver them.
type StatementTable struct {
	Periods []string              `json:"periods"`
	Items   map[string][]*float64 `json:"items"`
}

// Empty reports whether the table has no usable data.
func (t *StatementTable) Empty() bool {
	return t == nil || len(t.Items) == 0
}

// Value returns the most recent non-nil value for the first candidate line
// item present in the table. Nil when no candidate matches.
func (t *StatementTable) Value(candidates ...string) *float64 {
	series := t.Series(candidates...)
	if len(series) == 0 {
		return nil
	}
	return Float(series[0])
}

// Series returns all non-nil values (most-recent-first) for the first
// candidate line item present in the table. NaN/Inf entries are dropped so
// growth computations index into clean data only.
func (t *StatementTable) Series(candidates ...string) []float64 {
	if t.Empty() {
		return nil
	}
	for _, name := range candidates {
		values, ok := t.Items[name]
		if !ok {
			continue
		}
		var out []float64
		for _, v := range values {
			if v == nil {
				continue
			}
			if f := Float(*v); f != nil {
				out = append(out, *f)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// RatioAbstractRow is one report period of a pre-aggregated financial
// abstract: ratios already expressed as strings ("52.08%", "646.27亿").
type RatioAbstractRow struct {
	ReportDate time.Time         `json:"report_date"`
	Fields     map[string]string `json:"fields"`
}

// RatioAbstract is the pre-computed ratio layout some CN providers return
// instead of a raw statement table. Rows are sorted most-recent-first.
type RatioAbstract struct {
	Rows []RatioAbstractRow `json:"rows"`
}

// Sorted returns a copy with rows ordered most-recent-first.
func (a *RatioAbstract) Sorted() *RatioAbstract {
	if a == nil || len(a.Rows) == 0 {
		return &RatioAbstract{}
	}
	rows := make([]RatioAbstractRow, len(a.Rows))
	copy(rows, a.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ReportDate.After(rows[j].ReportDate) })
	return &RatioAbstract{Rows: rows}
}

// Percent parses a percentage field like "52.08%" into 52.08.
func (r RatioAbstractRow) Percent(field string) *float64 {
	raw, ok := r.Fields[field]
	if !ok {
		return nil
	}
	s := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return Float(v)
}

// Amount parses a CN-style amount field like "646.27亿" into 6.4627e10.
// Supported unit suffixes: 万亿 (1e12), 亿 (1e8), 万 (1e4).
func (r RatioAbstractRow) Amount(field string) *float64 {
	raw, ok := r.Fields[field]
	if !ok {
		return nil
	}
	s := strings.TrimSpace(raw)
	multiplier := 1.0
	switch {
	case strings.Contains(s, "万亿"):
		multiplier = 1e12
		s = strings.ReplaceAll(s, "万亿", "")
	case strings.Contains(s, "亿"):
		multiplier = 1e8
		s = strings.ReplaceAll(s, "亿", "")
	case strings.Contains(s, "万"):
		multiplier = 1e4
		s = strings.ReplaceAll(s, "万", "")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return Float(v * multiplier)
}

// Number parses a plain numeric field.
func (r RatioAbstractRow) Number(field string) *float64 {
	raw, ok := r.Fields[field]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return Float(v)
}

// IncomeStatement is a variant: the income data arrives either as a
// multi-period tabular statement or as a pre-aggregated ratio abstract.
// The shape is decided once when the snapshot is assembled, not sniffed
// repeatedly inside the calculator.
type IncomeStatement struct {
	Table    *StatementTable `json:"table,omitempty"`
	Abstract *RatioAbstract  `json:"abstract,omitempty"`
}

// IsAbstract reports whether the income data is the ratio-abstract layout.
func (s *IncomeStatement) IsAbstract() bool {
	return s != nil && s.Abstract != nil && len(s.Abstract.Rows) > 0
}

// Empty reports whether there is no income data at all.
func (s *IncomeStatement) Empty() bool {
	if s == nil {
		return true
	}
	return s.Table.Empty() && !s.IsAbstract()
}
