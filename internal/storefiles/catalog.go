// Package storefiles reads the item catalog CSV and writes the per-day stock
// and transaction snapshots into the store's directory.
package storefiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/catalog"
)

// ErrMalformed means a catalog file could not be parsed.
var ErrMalformed = errors.New("malformed catalog file")

// CatalogHeader is the column layout of catalog and stock files.
var CatalogHeader = []string{"Item Id", "Name", "Tags", "Cost", "Stock", "Weight"}

// LoadCatalog reads catalog records from a CSV file at path.
func LoadCatalog(path string) ([]catalog.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	items, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ReadCatalog parses catalog records from r. The first row must be the header.
func ReadCatalog(r io.Reader) ([]catalog.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(CatalogHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")), CatalogHeader[i]) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformed, i+1, col, CatalogHeader[i])
		}
	}

	var items []catalog.Item
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)
		it, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func parseRow(row []string) (catalog.Item, error) {
	id, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return catalog.Item{}, fmt.Errorf("item id %q: %v", row[0], err)
	}
	cost, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(row[3]), "$"))
	if err != nil {
		return catalog.Item{}, fmt.Errorf("cost %q: %v", row[3], err)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(row[4]))
	if err != nil {
		return catalog.Item{}, fmt.Errorf("stock %q: %v", row[4], err)
	}
	weight, err := strconv.Atoi(strings.TrimSpace(row[5]))
	if err != nil {
		return catalog.Item{}, fmt.Errorf("weight %q: %v", row[5], err)
	}

	it := catalog.Item{
		ID:     catalog.ItemID(id),
		Name:   strings.TrimSpace(row[1]),
		Tags:   splitTags(row[2]),
		Cost:   cost,
		Stock:  stock,
		Weight: weight,
	}
	if err := it.Validate(); err != nil {
		return catalog.Item{}, err
	}
	return it, nil
}

func splitTags(field string) []string {
	var tags []string
	for _, t := range strings.Split(field, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
