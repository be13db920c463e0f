package report

import (
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/types"
)

const (
	productIDKey = "enisaIdProduct"
	vendorIDKey  = "enisaIdVendor"
	baseScoreKey = "baseScore"
)

var suppressedKeys = []string{productIDKey, vendorIDKey}

// ScoreError is returned when a baseScore can't be read as a number.
type ScoreError struct {
	Row   int
	Value string
	Err   error
}

func (e *ScoreError) Error() string {
	return "row " + strconv.Itoa(e.Row) + ": invalid baseScore " + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *ScoreError) Unwrap() error {
	return e.Err
}

type htmlCell struct {
	Class string
	Text  string
}

type htmlReport struct {
	Headers []string
	Rows    [][]htmlCell
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Vulnerability Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; word-wrap: break-word; max-width: 300px; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        tr:hover { background-color: #f5f5f5; }
        .score-green { background-color: #90EE90; }
        .score-orange { background-color: #FFA500; }
        .score-red { background-color: #FF6347; }
        .score-darkred { background-color: #8B0000; color: white; }
    </style>
</head>
<body>
    <h1>Vulnerability Report</h1>
    <table>
        <thead>
            <tr>
{{- range .Headers }}
                <th>{{ . }}</th>
{{- end }}
            </tr>
        </thead>
        <tbody>
{{- range .Rows }}
            <tr>
{{- range . }}
                <td{{ if .Class }} class="{{ .Class }}"{{ end }}>{{ .Text }}</td>
{{- end }}
            </tr>
{{- end }}
        </tbody>
    </table>
</body>
</html>
`))

// RenderHTML writes a standalone HTML table. The header is taken from the
// first record only; later records with other keys render their own cells
// in their own order.
func RenderHTML(w io.Writer, records []types.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	doc := htmlReport{
		Headers: append([]string{"Product"}, visibleKeys(records[0])...),
	}

	for i, r := range records {
		row := []htmlCell{{Text: productNames(r)}}
		for _, key := range visibleKeys(r) {
			cell := htmlCell{Text: r.Text(key)}
			if key == baseScoreKey {
				v, _ := r.Get(key)
				score, err := parseScore(v)
				if err != nil {
					return &ScoreError{Row: i, Value: cell.Text, Err: err}
				}
				cell.Class = Classify(score).Class()
			}
			row = append(row, cell)
		}
		doc.Rows = append(doc.Rows, row)
	}

	if err := htmlTemplate.Execute(w, doc); err != nil {
		return xerrors.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

func visibleKeys(r types.Record) []string {
	return lo.Filter(r.Keys(), func(key string, _ int) bool {
		return !slices.Contains(suppressedKeys, key)
	})
}

// productNames joins the product.name of every enisaIdProduct entry.
func productNames(r types.Record) string {
	v, ok := r.Get(productIDKey)
	if !ok || !v.IsArray() {
		return ""
	}
	names := lo.FilterMap(v.Array(), func(p gjson.Result, _ int) (string, bool) {
		name := p.Get("product.name")
		if !name.Exists() {
			return "", false
		}
		return types.ValueText(name), true
	})
	return strings.Join(names, ", ")
}

func parseScore(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.True:
		return 1, nil
	case gjson.False:
		return 0, nil
	case gjson.String:
		score, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, xerrors.Errorf("not a number: %w", err)
		}
		return score, nil
	default:
		return 0, xerrors.Errorf("unsupported %s value", v.Type)
	}
}
