package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/engine"
	"github.com/talgya/storesim/internal/shop"
)

// console is the interactive menu over one session.
type console struct {
	session *shop.Session
	in      *bufio.Scanner
	out     io.Writer
	catalog string
}

// runConsole drives the menu until the user quits or input ends.
func runConsole(in io.Reader, out io.Writer, session *shop.Session, catalogPath string) error {
	c := &console{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
		catalog: catalogPath,
	}
	return c.run()
}

func (c *console) run() error {
	st := c.session.Store
	cfg := st.Config()

	c.printf("\nStore Simulator Console\n\n")
	c.printf("Starting store attributes:\n\n")
	c.printf("Store Name:          %s\n", st.Name)
	c.printf("Item Database:       %s\n", c.catalog)
	c.printf("Opening Hour:        %s\n", engine.ClockString(cfg.OpenMinute))
	c.printf("Closing Hour:        %s\n", engine.ClockString(cfg.CloseMinute))
	c.printf("Minutes per Action:  %d\n", cfg.IntervalMinutes)
	c.printf("Customers:           %s\n\n", shop.FormatCount(len(c.session.Queue)))

	if _, ok := c.prompt("Enter anything to continue: "); !ok {
		return nil
	}

	for {
		c.printf("\n%s is on Day %d\n", st.Name, st.Day())
		c.printOptions()
		choice, ok := c.prompt("Enter selection: ")
		if !ok {
			return nil
		}
		c.printf("\n")

		var err error
		switch choice {
		case "1":
			err = c.simulateDay()
		case "2":
			c.printf("Day %d Income: %s\n", st.Day(), shop.FormatMoney(st.Income()))
			if _, ok := c.prompt("Enter anything to continue: "); !ok {
				return nil
			}
		case "3":
			c.getItem()
		case "4":
			c.lowStock()
		case "5":
			err = c.addStock()
		case "6":
			err = c.addStockToLow()
		case "7":
			c.printf("Creating updated stock csv...\n")
			var path string
			if path, err = c.session.WriteUpdatedStock(); err == nil {
				c.printf("Wrote %s\n", path)
			}
		case "8":
			err = c.clearDirectory()
		case "q", "Q":
			return nil
		case "c":
			c.lookupCustomer()
		default:
			c.printf("Invalid selection.\n")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *console) printOptions() {
	day := c.session.Store.Day()
	c.printf("Options:\n\n")
	c.printf("1: Simulate next day (Day %d)\n", day+1)
	c.printf("2: Get income for current day (Day %d)\n", day)
	c.printf("3: Get item\n")
	c.printf("4: Get items with low stock\n")
	c.printf("5: Add stock to one item\n")
	c.printf("6: Add stock to all low stock items\n")
	c.printf("7: Create updated stock csv\n")
	c.printf("8: Clear store directory\n")
	c.printf("q: Quit\n\n")
}

func (c *console) simulateDay() error {
	summary, err := c.session.RunDay()
	if err != nil {
		return err
	}
	c.printf("Day %d closed: %s visitors, %s transactions, income %s\n",
		summary.Day,
		shop.FormatCount(summary.Visitors),
		shop.FormatCount(summary.Transactions),
		shop.FormatMoney(summary.Income),
	)
	return nil
}

func (c *console) getItem() {
	for {
		input, ok := c.prompt("Enter item id or 'q' to return to options: ")
		if !ok || input == "q" {
			return
		}
		it, ok := c.lookupItem(input)
		if !ok {
			continue
		}
		c.printf("\n%s\n\n", it)
	}
}

func (c *console) lowStock() {
	for {
		input, ok := c.prompt("Enter threshold for item stock or 'q' to return to options: ")
		if !ok || input == "q" {
			return
		}
		threshold, ok := c.parseInt(input)
		if !ok {
			continue
		}
		items := c.session.Store.LowStock(threshold)
		if len(items) == 0 {
			c.printf("There are no items with at most '%s' stock.\n", input)
			continue
		}
		c.printItems(items)
	}
}

func (c *console) addStock() error {
	for {
		input, ok := c.prompt("Enter item id to add stock to or 'q' to return to options: ")
		if !ok {
			return io.EOF
		}
		if input == "q" {
			return nil
		}
		it, ok := c.lookupItem(input)
		if !ok {
			continue
		}
		c.printf("\n%s\n\n", it)

		if err := c.promptAmounts([]catalog.ItemID{it.ID}); err != nil {
			return err
		}
	}
}

func (c *console) addStockToLow() error {
	for {
		input, ok := c.prompt("Enter threshold for item stock or 'q' to return to options: ")
		if !ok {
			return io.EOF
		}
		if input == "q" {
			return nil
		}
		threshold, ok := c.parseInt(input)
		if !ok {
			continue
		}
		items := c.session.Store.LowStock(threshold)
		if len(items) == 0 {
			c.printf("There are no items with at most '%s' stock.\n", input)
			continue
		}
		c.printf("\n")
		c.printItems(items)
		c.printf("\n")

		ids := make([]catalog.ItemID, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		if err := c.promptAmounts(ids); err != nil {
			return err
		}
	}
}

// promptAmounts keeps adding stock to ids until the user enters q.
func (c *console) promptAmounts(ids []catalog.ItemID) error {
	for {
		input, ok := c.prompt("Enter amount of stock to add or 'q' to return to inserting item id: ")
		if !ok {
			return io.EOF
		}
		if input == "q" {
			return nil
		}
		amount, ok := c.parseInt(input)
		if !ok {
			continue
		}
		if amount < 0 {
			c.printf("The amount '%s' is not a valid amount of stock to add.\n", input)
			continue
		}

		updated := make([]catalog.Item, 0, len(ids))
		for _, id := range ids {
			it, err := c.session.Restock(id, amount)
			if err != nil {
				return err
			}
			updated = append(updated, it)
		}
		c.printf("\nNew stock:\n")
		c.printItems(updated)
		c.printf("\n")
	}
}

func (c *console) clearDirectory() error {
	c.printf("Warning: This will delete all .csv files in the folder '%s'.\n", c.session.Files.Root)
	input, ok := c.prompt("\nEnter 'y' to confirm deletion: ")
	if !ok {
		return io.EOF
	}
	if input != "y" && input != "Y" {
		return nil
	}
	n, err := c.session.ClearFiles()
	if err != nil {
		return err
	}
	c.printf("Removed %d files.\n", n)
	return nil
}

func (c *console) lookupCustomer() {
	input, ok := c.prompt("Customer Name: ")
	if !ok {
		return
	}
	cust, err := c.session.FindCustomer(input)
	if err != nil {
		c.printf("No customer named '%s'.\n", input)
		return
	}
	c.printf("%s\n", cust)
}

func (c *console) lookupItem(input string) (catalog.Item, bool) {
	id, ok := c.parseInt(input)
	if !ok {
		return catalog.Item{}, false
	}
	it, err := c.session.Store.Item(catalog.ItemID(id))
	if err != nil {
		c.printf("Item id '%s' does not exist.\n", input)
		return catalog.Item{}, false
	}
	return it, true
}

func (c *console) parseInt(input string) (int, bool) {
	n, err := strconv.Atoi(input)
	if err != nil {
		c.printf("The input '%s' is not an integer.\n", input)
		return 0, false
	}
	return n, true
}

func (c *console) printItems(items []catalog.Item) {
	for _, it := range items {
		c.printf("%s\n", it)
	}
}

// prompt writes label and reads one trimmed line. ok is false at end of input.
func (c *console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	if !c.in.Scan() {
		c.printf("\n")
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
