package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/customer"
)

// TransactionRecord is one completed visit.
type TransactionRecord struct {
	ID           int
	CustomerName string
	Items        []customer.Line
	AmountSpent  decimal.Decimal
	TimeEntered  int // Minutes since midnight
	TimeLeft     int
}

// MarshalJSON emits the external record shape: item strings, a 2dp amount
// and H:MM clock values.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           int      `json:"transaction_id"`
		CustomerName string   `json:"customer_name"`
		Items        []string `json:"items"`
		AmountSpent  string   `json:"amount_spent"`
		TimeEntered  string   `json:"time_entered"`
		TimeLeft     string   `json:"time_left"`
	}{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		Items:        r.ItemStrings(),
		AmountSpent:  r.AmountSpent.StringFixed(2),
		TimeEntered:  ClockString(r.TimeEntered),
		TimeLeft:     ClockString(r.TimeLeft),
	})
}

// ItemStrings renders the purchased lines as "id:<n> qty:<n>".
func (r TransactionRecord) ItemStrings() []string {
	out := make([]string, 0, len(r.Items))
	for _, l := range r.Items {
		out = append(out, l.String())
	}
	return out
}

// Ledger is the append-only list of the day's completed visits.
type Ledger struct {
	records []TransactionRecord
}

// Append adds a record.
func (l *Ledger) Append(r TransactionRecord) {
	l.records = append(l.records, r)
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in departure order.
func (l *Ledger) Records() []TransactionRecord {
	return append([]TransactionRecord(nil), l.records...)
}

// Income sums the amount spent over every record, rounded to cents.
func (l *Ledger) Income() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.records {
		total = total.Add(r.AmountSpent)
	}
	return total.Round(2)
}

func (l *Ledger) reset() {
	l.records = nil
}
