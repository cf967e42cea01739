package storefiles

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/engine"
)

// TransactionHeader is the column layout of transaction files.
var TransactionHeader = []string{"Transaction Id", "Customer Name", "Items", "Amount Spent", "Time Entered", "Time Left"}

// Dir is a store's output directory.
type Dir struct {
	Root string
}

// NewDir returns the directory for storeName under parent.
func NewDir(parent, storeName string) Dir {
	return Dir{Root: filepath.Join(parent, storeName)}
}

// Ensure creates the directory if it does not exist.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.Root, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}

// DayStockPath is the end-of-day stock snapshot for day.
func (d Dir) DayStockPath(day int) string {
	return filepath.Join(d.Root, fmt.Sprintf("day_%d_stock.csv", day))
}

// DayTransactionsPath is the ledger file for day.
func (d Dir) DayTransactionsPath(day int) string {
	return filepath.Join(d.Root, fmt.Sprintf("day_%d_transactions.csv", day))
}

// UpdatedStockPath is the on-demand stock snapshot.
func (d Dir) UpdatedStockPath() string {
	return filepath.Join(d.Root, "updated_stock.csv")
}

// Clear removes the .csv files in the directory and reports how many went.
// Anything else is left alone. A missing directory is not an error.
func (d Dir) Clear() (int, error) {
	entries, err := os.ReadDir(d.Root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read store dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if err := os.Remove(filepath.Join(d.Root, e.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// WriteDay writes both snapshots for a finished day.
func (d Dir) WriteDay(day int, items []catalog.Item, records []engine.TransactionRecord) error {
	if err := d.Ensure(); err != nil {
		return err
	}
	if err := WriteStockFile(d.DayStockPath(day), items); err != nil {
		return err
	}
	return WriteTransactionsFile(d.DayTransactionsPath(day), records)
}

// WriteStockFile writes items to path in catalog format.
func WriteStockFile(path string, items []catalog.Item) error {
	return writeFile(path, func(w io.Writer) error { return WriteStock(w, items) })
}

// WriteTransactionsFile writes records to path.
func WriteTransactionsFile(path string, records []engine.TransactionRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteTransactions(w, records) })
}

// WriteStock writes items as catalog rows, which LoadCatalog reads back.
func WriteStock(w io.Writer, items []catalog.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CatalogHeader); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			strconv.Itoa(int(it.ID)),
			it.Name,
			strings.Join(it.Tags, ", "),
			it.Cost.StringFixed(2),
			strconv.Itoa(it.Stock),
			strconv.Itoa(it.Weight),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactions writes records in ledger order.
func WriteTransactions(w io.Writer, records []engine.TransactionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.ID),
			r.CustomerName,
			strings.Join(r.ItemStrings(), "; "),
			"$" + r.AmountSpent.StringFixed(2),
			engine.ClockString(r.TimeEntered),
			engine.ClockString(r.TimeLeft),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
