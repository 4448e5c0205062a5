package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrCategoryNotFound is returned when an operation references a category the document
// does not contain.
var ErrCategoryNotFound = errors.New("ledger: category not found")

// OtherGroupID is the synthetic group collecting categories without a known master.
var OtherGroupID = StringID("~other")

const dateLayout = "2006-01-02"

// FormatDate renders t with day granularity, the way the web client stores dates.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Unallocated is income not yet assigned to any category budget.
func Unallocated(doc *Document) Amount {
	total := decimal.Zero
	for _, inc := range doc.Income {
		total = total.Add(inc.Amount)
	}
	for _, cat := range doc.Categories {
		total = total.Sub(cat.Budgeted)
	}
	return total
}

// FindCategory returns the category with the given id.
func (d *Document) FindCategory(id ID) (*Category, bool) {
	for i := range d.Categories {
		if d.Categories[i].ID.Equal(id) {
			return &d.Categories[i], true
		}
	}
	return nil, false
}

// RecordExpense spends amount from a category. It appends a transaction and a matching
// activity entry sharing id. The document is left untouched when the category is missing.
func (d *Document) RecordExpense(id, categoryID ID, amount Amount, payee, date string) (*Category, error) {
	cat, ok := d.FindCategory(categoryID)
	if !ok {
		return nil, ErrCategoryNotFound
	}
	cat.Activity = cat.Activity.Sub(amount)

	catID := cat.ID
	d.Transactions = append(d.Transactions, Transaction{
		ID:         id,
		Payee:      payee,
		CategoryID: catID,
		Amount:     amount,
		Date:       date,
	})
	d.ActivityLog = append(d.ActivityLog, ActivityEntry{
		ID:         id,
		Type:       EntryExpense,
		Date:       date,
		Amount:     amount,
		Payee:      payee,
		CategoryID: &catID,
	})
	return cat, nil
}

// RecordIncome appends an income entry and its activity entry.
func (d *Document) RecordIncome(id ID, amount Amount, description, date string) {
	d.Income = append(d.Income, Income{
		ID:          id,
		Amount:      amount,
		Description: description,
		Date:        date,
	})
	d.ActivityLog = append(d.ActivityLog, ActivityEntry{
		ID:          id,
		Type:        EntryIncome,
		Date:        date,
		Amount:      amount,
		Description: description,
	})
}

// SetBudget overwrites the budgeted amount of a category.
// It reports false and changes nothing when the category is missing.
func (d *Document) SetBudget(categoryID ID, amount Amount) bool {
	cat, ok := d.FindCategory(categoryID)
	if !ok {
		return false
	}
	cat.Budgeted = amount
	return true
}

// Group is a master category with the categories referencing it.
type Group struct {
	Master     MasterCategory
	Categories []Category
}

// Groups returns the non-empty groups in master category order. Categories without a
// group, or pointing at an unknown one, end up in a trailing "Other" group.
func (d *Document) Groups() []Group {
	index := make(map[string]int, len(d.MasterCategories))
	groups := make([]Group, 0, len(d.MasterCategories)+1)
	for _, m := range d.MasterCategories {
		index[m.ID.String()] = len(groups)
		groups = append(groups, Group{Master: m})
	}
	other := Group{Master: MasterCategory{ID: OtherGroupID, Name: "Other"}}

	for _, c := range d.Categories {
		if c.Group != nil {
			if i, ok := index[c.Group.String()]; ok {
				groups[i].Categories = append(groups[i].Categories, c)
				continue
			}
		}
		other.Categories = append(other.Categories, c)
	}
	groups = append(groups, other)

	out := groups[:0]
	for _, g := range groups {
		if len(g.Categories) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// FindGroup returns the group with the given master id, including the "Other" group.
func (d *Document) FindGroup(id ID) (Group, bool) {
	for _, g := range d.Groups() {
		if g.Master.ID.Equal(id) {
			return g, true
		}
	}
	return Group{}, false
}

// Totals are the headline figures of a document.
type Totals struct {
	Income         Amount
	Spent          Amount
	SpentThisMonth Amount
	Budgeted       Amount
	Unallocated    Amount
	Categories     int
	Transactions   int
	Activities     int
}

// Totals sums the document. Spending this month is matched on the "YYYY-MM" date prefix.
func (d *Document) Totals(now time.Time) Totals {
	t := Totals{
		Income:         decimal.Zero,
		Spent:          decimal.Zero,
		SpentThisMonth: decimal.Zero,
		Budgeted:       decimal.Zero,
		Categories:     len(d.Categories),
		Transactions:   len(d.Transactions),
		Activities:     len(d.ActivityLog),
	}
	month := now.Format("2006-01")
	for _, inc := range d.Income {
		t.Income = t.Income.Add(inc.Amount)
	}
	for _, c := range d.Categories {
		t.Budgeted = t.Budgeted.Add(c.Budgeted)
	}
	for _, tx := range d.Transactions {
		t.Spent = t.Spent.Add(tx.Amount)
		if len(tx.Date) >= len(month) && tx.Date[:len(month)] == month {
			t.SpentThisMonth = t.SpentThisMonth.Add(tx.Amount)
		}
	}
	t.Unallocated = t.Income.Sub(t.Budgeted)
	return t
}
