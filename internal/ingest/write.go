package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"equity-pattern-lab/internal/domain"
)

// WriteBars writes a bar series as CSV in the same column layout ParseBars
// accepts, so fetched series round-trip through the ingest path.
func WriteBars(w io.Writer, bars []domain.PriceBar) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(requiredColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range bars {
		row := []string{
			b.Date.Format("2006-01-02"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteBarsFile writes a bar series to a CSV file.
func WriteBarsFile(path string, bars []domain.PriceBar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := WriteBars(f, bars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
