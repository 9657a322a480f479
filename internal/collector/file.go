package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// CSVSource reads rows from a CSV export whose header names the feed columns.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) FetchRows(_ string) ([]Row, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parquetRow is the on-disk layout of a raw feed exported to Parquet.
type parquetRow struct {
	Date   string `parquet:"Date"`
	Open   string `parquet:"Open,optional"`
	High   string `parquet:"High,optional"`
	Low    string `parquet:"Low,optional"`
	Close  string `parquet:"Close,optional"`
	Volume string `parquet:"Volume,optional"`
}

// ParquetSource reads rows from a Parquet file of string columns.
type ParquetSource struct {
	Path string
}

func (s *ParquetSource) Name() string { return "parquet" }

func (s *ParquetSource) FetchRows(_ string) ([]Row, error) {
	recs, err := parquet.ReadFile[parquetRow](s.Path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", s.Path, err)
	}
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = Row{
			ColDate:   r.Date,
			ColOpen:   r.Open,
			ColHigh:   r.High,
			ColLow:    r.Low,
			ColClose:  r.Close,
			ColVolume: r.Volume,
		}
	}
	return rows, nil
}

// WriteParquetRows writes raw rows in the layout ParquetSource reads.
func WriteParquetRows(path string, rows []Row) error {
	recs := make([]parquetRow, len(rows))
	for i, r := range rows {
		recs[i] = parquetRow{
			Date:   r[ColDate],
			Open:   r[ColOpen],
			High:   r[ColHigh],
			Low:    r[ColLow],
			Close:  r[ColClose],
			Volume: r[ColVolume],
		}
	}
	return parquet.WriteFile(path, recs)
}
