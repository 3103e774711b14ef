// Package stats records the progress of annealing runs for plotting.
//
// A run emits one [Row] every few thousand iterations. Rows are written as a
// whitespace-separated gnuplot data file with [WriteData], or as a
// zstd-compressed parquet file with [WriteParquet] for notebooks and later
// comparison across runs.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Row is one progress sample. Accept rates cover the iterations since the
// previous row.
type Row struct {
	Iteration          int64   `parquet:"iteration" json:"iteration"`
	Score              float64 `parquet:"score" json:"score"`
	Best               float64 `parquet:"best" json:"best"`
	Temperature        float64 `parquet:"temperature" json:"temperature"`
	AcceptRate         float64 `parquet:"accept_rate" json:"accept_rate"`
	AcceptRatePositive float64 `parquet:"accept_rate_positive" json:"accept_rate_positive"`
	AcceptRateNegative float64 `parquet:"accept_rate_negative" json:"accept_rate_negative"`
}

// Header is the first line of a gnuplot data file.
const Header = "iteration score best temperature acceptrate acceptrate_positive acceptrate_negative"

// schema tags parquet files so readers can reject foreign layouts.
const schema = "anneal_row_v1"

// WriteData writes rows in gnuplot format.
func WriteData(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)
	for _, r := range rows {
		fmt.Fprintf(bw, "%d %.1f %.1f %.1f %.3f %.3f %.3f\n",
			r.Iteration, r.Score, r.Best, r.Temperature,
			r.AcceptRate, r.AcceptRatePositive, r.AcceptRateNegative)
	}
	return bw.Flush()
}

// WriteDataFile writes rows to path in gnuplot format, creating parent
// directories.
func WriteDataFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteData(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteParquet writes rows to path. The file is written next to path and
// renamed into place.
func WriteParquet(path string, rows []Row, meta map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	opts := []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	}
	for k, v := range meta {
		opts = append(opts, parquet.KeyValueMetadata(k, v))
	}
	if err := parquet.WriteFile(tmpPath, rows, opts...); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadParquet reads every row from a file written by WriteParquet.
func ReadParquet(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if v, ok := pf.Lookup("schema"); ok && v != schema {
		return nil, fmt.Errorf("unexpected parquet schema %q", v)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows[:n], nil
}

// Summary condenses a run's rows.
type Summary struct {
	Rows       int
	Best       float64
	FinalScore float64
	MeanAccept float64
}

// Summarize returns a Summary of rows. The zero Summary describes no rows.
func Summarize(rows []Row) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	s := Summary{Rows: len(rows), Best: rows[0].Best}
	var accept float64
	for _, r := range rows {
		s.Best = max(s.Best, r.Best)
		accept += r.AcceptRate
	}
	s.FinalScore = rows[len(rows)-1].Score
	s.MeanAccept = accept / float64(len(rows))
	return s
}
