package visits

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrMissingColumn is returned when a visit log lacks a column a caller depends on.
var ErrMissingColumn = errors.New("missing column")

// LoadFile reads a visit log CSV from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open visit log: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds, err := Read(name, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ds.Path = path

	log.Info().Str("dataset", name).Int("count", ds.Len()).Msg("Loaded visit log")
	return ds, nil
}

// Read parses a visit log from r. Columns are located by header name, so column order
// does not matter and unknown columns (such as a leading index) are ignored.
func Read(name string, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty visit log: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	ds := &Dataset{Name: name, columns: make(map[string]bool, len(index))}
	for col := range index {
		ds.columns[col] = true
	}

	// Header is line 1.
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Records = append(ds.Records, rec)
	}

	log.Debug().Str("dataset", name).Int("rows", len(ds.Records)).Int("columns", len(header)).Msg("Parsed visit log")
	return ds, nil
}

func parseRow(row []string, index map[string]int) (Record, error) {
	var rec Record

	field := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	rec.ProductID, _ = field(ColProductID)
	rec.Category, _ = field(ColCategory)
	rec.ActivityLevel, _ = field(ColActivityLevel)

	rec.RecRank = UnknownRank
	if v, ok := field(ColRecRank); ok && v != "" {
		rank, err := parseInt(v)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", ColRecRank, err)
		}
		rec.RecRank = rank
	}

	if v, ok := field(ColUserID); ok && v != "" {
		id, err := parseInt(v)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", ColUserID, err)
		}
		rec.UserID = id
	}

	if v, ok := field(ColIsRecVisit); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", ColIsRecVisit, err)
		}
		rec.IsRecVisit = b
	}

	return rec, nil
}

// parseInt accepts integral floats ("3.0") as written by dataframe exports.
func parseInt(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return int(f), nil
}
