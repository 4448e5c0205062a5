package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) Amount { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got Amount) {
	t.Helper()
	assert.True(t, amt(want).Equal(got), "want %s, got %s", want, got)
}

func groceries() Category {
	return Category{ID: NumericID(1), Name: "Groceries", Budgeted: amt("200")}
}

func TestUnallocatedEmptyDocument(t *testing.T) {
	assertAmount(t, "0", Unallocated(NewDocument()))
}

func TestUnallocatedIncomeThenBudget(t *testing.T) {
	doc := NewDocument()
	doc.Categories = append(doc.Categories, Category{ID: NumericID(1), Name: "Groceries"})
	doc.RecordIncome(NumericID(10), amt("1000"), "Salary", "2024-05-01")
	require.True(t, doc.SetBudget(NumericID(1), amt("200")))

	assertAmount(t, "800", Unallocated(doc))
}

func TestUnallocatedSumsEveryRecord(t *testing.T) {
	doc := NewDocument()
	doc.Income = []Income{{Amount: amt("10.10")}, {Amount: amt("0.20")}}
	doc.Categories = []Category{{Budgeted: amt("5")}, {}, {Budgeted: amt("-1")}}

	assertAmount(t, "6.30", Unallocated(doc))
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name     string
		budgeted string
		activity string
		want     string
	}{
		{"zero", "0", "0", "0"},
		{"unspent", "200", "0", "200"},
		{"partly spent", "200", "-50", "150"},
		{"overspent", "10", "-25.5", "-15.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Category{Budgeted: amt(tt.budgeted), Activity: amt(tt.activity)}
			assertAmount(t, tt.want, c.Available())
		})
	}
}

func TestRecordExpense(t *testing.T) {
	doc := NewDocument()
	doc.Categories = append(doc.Categories, groceries())
	id := NumericID(1717000000000)

	cat, err := doc.RecordExpense(id, NumericID(1), amt("50"), "Market", "2024-05-02")
	require.NoError(t, err)

	assertAmount(t, "-50", cat.Activity)
	assertAmount(t, "150", cat.Available())
	assertAmount(t, "200", doc.Categories[0].Budgeted)
	assertAmount(t, "-50", doc.Categories[0].Activity)

	require.Len(t, doc.Transactions, 1)
	require.Len(t, doc.ActivityLog, 1)
	tx, entry := doc.Transactions[0], doc.ActivityLog[0]
	assert.True(t, tx.ID.Equal(entry.ID))
	assert.True(t, tx.ID.Equal(id))
	assert.Equal(t, "Market", tx.Payee)
	assert.True(t, tx.CategoryID.Equal(NumericID(1)))
	assert.Equal(t, EntryExpense, entry.Type)
	require.NotNil(t, entry.CategoryID)
	assert.True(t, entry.CategoryID.Equal(NumericID(1)))
	assertAmount(t, "50", entry.Amount)
}

func TestRecordExpenseUnknownCategory(t *testing.T) {
	doc := NewDocument()
	doc.Categories = append(doc.Categories, groceries())

	_, err := doc.RecordExpense(NumericID(5), NumericID(99), amt("10"), "x", "2024-05-02")
	require.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Empty(t, doc.Transactions)
	assert.Empty(t, doc.ActivityLog)
	assertAmount(t, "0", doc.Categories[0].Activity)
}

func TestRecordIncome(t *testing.T) {
	doc := NewDocument()
	doc.RecordIncome(NumericID(7), amt("1000"), "Salary", "2024-05-01")

	require.Len(t, doc.Income, 1)
	require.Len(t, doc.ActivityLog, 1)
	assert.Equal(t, "Salary", doc.Income[0].Description)
	assert.Equal(t, EntryIncome, doc.ActivityLog[0].Type)
	assert.Nil(t, doc.ActivityLog[0].CategoryID)
	assert.True(t, doc.Income[0].ID.Equal(doc.ActivityLog[0].ID))
}

func TestSetBudgetUnknownCategoryIsNoOp(t *testing.T) {
	doc := NewDocument()
	doc.Categories = append(doc.Categories, groceries())
	before, err := Encode(doc)
	require.NoError(t, err)

	assert.False(t, doc.SetBudget(StringID("nope"), amt("5")))

	after, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSetBudgetAcceptsNegative(t *testing.T) {
	doc := NewDocument()
	doc.Categories = append(doc.Categories, groceries())

	require.True(t, doc.SetBudget(NumericID(1), amt("-30")))
	assertAmount(t, "-30", doc.Categories[0].Budgeted)
}

func TestGroups(t *testing.T) {
	food, home, ghost := NumericID(1), NumericID(2), NumericID(3)
	doc := NewDocument()
	doc.MasterCategories = []MasterCategory{
		{ID: food, Name: "Food", Icon: "🍔"},
		{ID: home, Name: "Home"},
	}
	doc.Categories = []Category{
		{ID: NumericID(10), Name: "Groceries", Group: &food},
		{ID: NumericID(11), Name: "Misc"},
		{ID: NumericID(12), Name: "Restaurants", Group: &food},
		{ID: NumericID(13), Name: "Orphan", Group: &ghost},
	}

	groups := doc.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "🍔 Food", groups[0].Master.Label())
	require.Len(t, groups[0].Categories, 2)
	assert.Equal(t, "Restaurants", groups[0].Categories[1].Name)

	assert.True(t, groups[1].Master.ID.Equal(OtherGroupID))
	assert.Equal(t, "📁 Other", groups[1].Master.Label())
	require.Len(t, groups[1].Categories, 2)
	assert.Equal(t, "Misc", groups[1].Categories[0].Name)

	_, ok := doc.FindGroup(home)
	assert.False(t, ok, "empty groups are hidden")
	g, ok := doc.FindGroup(OtherGroupID)
	require.True(t, ok)
	assert.Len(t, g.Categories, 2)
}

func TestTotals(t *testing.T) {
	doc := NewDocument()
	doc.Categories = []Category{{ID: NumericID(1), Budgeted: amt("300")}}
	doc.Income = []Income{{Amount: amt("1000")}}
	doc.Transactions = []Transaction{
		{Amount: amt("20"), Date: "2024-05-03"},
		{Amount: amt("5.5"), Date: "2024-04-30"},
		{Amount: amt("1"), Date: ""},
	}
	doc.ActivityLog = make([]ActivityEntry, 4)

	got := doc.Totals(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	assertAmount(t, "1000", got.Income)
	assertAmount(t, "26.5", got.Spent)
	assertAmount(t, "20", got.SpentThisMonth)
	assertAmount(t, "300", got.Budgeted)
	assertAmount(t, "700", got.Unallocated)
	assert.Equal(t, 1, got.Categories)
	assert.Equal(t, 3, got.Transactions)
	assert.Equal(t, 4, got.Activities)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-02-09", FormatDate(time.Date(2024, 2, 9, 23, 59, 0, 0, time.UTC)))
}
