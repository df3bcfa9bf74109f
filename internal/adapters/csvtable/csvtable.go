// Package csvtable provides the CSV handler, built on gota dataframes.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Compile-time interface check
var _ ports.Handler = (*Handler)(nil)

// ErrNoHeader is returned for an empty file.
var ErrNoHeader = errors.New("no header row")

// missing is the only cell value read as a missing value.
const missing = "NaN"

// Handler rewrites every non-missing cell of a CSV table.
type Handler struct {
	suffix string
}

// New creates a CSV handler writing outputs with the given modified suffix.
func New(suffix string) *Handler {
	return &Handler{suffix: suffix}
}

// Transform loads path as a table of strings, applies sub to each cell
// and writes the table with its header to the modified sibling.
// Header names, duplicates included, are written as they were read.
func (h *Handler) Transform(path string, sub ports.Substitution) (string, error) {
	records, err := loadRecords(path)
	if err != nil {
		return "", err
	}
	header := records[0]

	dst := naming.Modified(path, h.suffix)

	// A header without rows has no cells to rewrite.
	if len(records) == 1 {
		err := createOutput(dst, func(f *os.File) error {
			w := csv.NewWriter(f)
			if err := w.Write(header); err != nil {
				return err
			}
			w.Flush()
			return w.Error()
		})
		if err != nil {
			return "", err
		}
		return dst, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{missing}),
	)
	if df.Err != nil {
		return "", fmt.Errorf("reading %s: %w", path, df.Err)
	}

	out := df.Capply(func(s series.Series) series.Series {
		return replaceColumn(s, sub)
	})
	if out.Err != nil {
		return "", fmt.Errorf("rewriting %s: %w", path, out.Err)
	}
	// gota suffixes duplicate names; put the originals back.
	if err := out.SetNames(header...); err != nil {
		return "", fmt.Errorf("rewriting %s: %w", path, err)
	}

	if err := createOutput(dst, func(f *os.File) error { return out.WriteCSV(f) }); err != nil {
		return "", err
	}
	return dst, nil
}

func loadRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: %w", path, ErrNoHeader)
	}
	return records, nil
}

// createOutput creates dst and hands it to write, removing dst if anything fails.
func createOutput(dst string, write func(*os.File) error) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func replaceColumn(s series.Series, sub ports.Substitution) series.Series {
	vals := make([]string, s.Len())
	for i := range vals {
		e := s.Elem(i)
		if e.IsNA() {
			vals[i] = missing
			continue
		}
		vals[i] = sub.Apply(e.String())
	}
	return series.New(vals, series.String, s.Name)
}
