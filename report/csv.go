package report

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/types"
)

var ErrNoRecords = xerrors.New("no data to save")

// Columns returns the union of keys across records in first-seen order.
func Columns(records []types.Record) []string {
	return lo.Uniq(lo.FlatMap(records, func(r types.Record, _ int) []string {
		return r.Keys()
	}))
}

// RenderCSV writes a header row followed by one row per record. Every row
// carries every column; absent and null values are empty. Rows end with
// CRLF while line breaks inside values are written unchanged.
func RenderCSV(w io.Writer, records []types.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	columns := Columns(records)
	rw := newRowWriter(w)

	if err := rw.write(columns); err != nil {
		return xerrors.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range records {
		row := lo.Map(columns, func(col string, _ int) string {
			return r.Text(col)
		})
		if err := rw.write(row); err != nil {
			return xerrors.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	return nil
}

// rowWriter quotes fields with encoding/csv but terminates rows itself:
// csv.Writer.UseCRLF would also rewrite \r and \n inside quoted values.
type rowWriter struct {
	w    io.Writer
	line bytes.Buffer
	cw   *csv.Writer
}

func newRowWriter(w io.Writer) *rowWriter {
	rw := &rowWriter{w: w}
	rw.cw = csv.NewWriter(&rw.line)
	return rw
}

func (rw *rowWriter) write(row []string) error {
	rw.line.Reset()
	if err := rw.cw.Write(row); err != nil {
		return err
	}
	rw.cw.Flush()
	if err := rw.cw.Error(); err != nil {
		return err
	}
	b := bytes.TrimSuffix(rw.line.Bytes(), []byte("\n"))
	if _, err := rw.w.Write(append(b, '\r', '\n')); err != nil {
		return err
	}
	return nil
}
