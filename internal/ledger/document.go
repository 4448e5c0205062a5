package ledger

import (
	"encoding/json"
)

// DefaultGroupIcon is shown for master categories without an icon of their own.
const DefaultGroupIcon = "📁"

// Activity entry types.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// Category is a budget envelope.
type Category struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Group    *ID    `json:"group,omitempty"`
	Budgeted Amount `json:"budgeted"`
	Activity Amount `json:"activity"`

	extra members
}

// Available is what is left to spend in the category.
func (c Category) Available() Amount {
	return c.Budgeted.Add(c.Activity)
}

// MasterCategory groups categories that reference its id.
type MasterCategory struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`

	extra members
}

// Label is the icon followed by the name.
func (m MasterCategory) Label() string {
	icon := m.Icon
	if icon == "" {
		icon = DefaultGroupIcon
	}
	return icon + " " + m.Name
}

// Income is money coming into the budget.
type Income struct {
	ID          ID     `json:"id"`
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`

	extra members
}

// Transaction is an expense against a category. Amount is positive.
type Transaction struct {
	ID         ID     `json:"id"`
	Payee      string `json:"payee"`
	CategoryID ID     `json:"categoryId"`
	Amount     Amount `json:"amount"`
	Date       string `json:"date"`

	extra members
}

// ActivityEntry is one line of the chronological feed the web client renders.
type ActivityEntry struct {
	ID          ID     `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
	Payee       string `json:"payee,omitempty"`
	CategoryID  *ID    `json:"categoryId,omitempty"`

	extra members
}

// Document is the whole budget as stored remotely.
type Document struct {
	Categories       []Category       `json:"categories"`
	MasterCategories []MasterCategory `json:"masterCategories"`
	Income           []Income         `json:"income"`
	Transactions     []Transaction    `json:"transactions"`
	ActivityLog      []ActivityEntry  `json:"activityLog"`
	// Unallocated is informational. Use the Unallocated function for the real figure.
	Unallocated Amount `json:"unallocated"`

	extra members
}

// NewDocument returns an empty document with every collection initialised.
func NewDocument() *Document {
	return &Document{
		Categories:       []Category{},
		MasterCategories: []MasterCategory{},
		Income:           []Income{},
		Transactions:     []Transaction{},
		ActivityLog:      []ActivityEntry{},
	}
}

// Decode parses a stored document. Empty input yields an empty document.
func Decode(data []byte) (*Document, error) {
	doc := NewDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	doc.normalize()
	return doc, nil
}

// Encode renders the document the way the web client writes it: indented by two spaces.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (d *Document) normalize() {
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.MasterCategories == nil {
		d.MasterCategories = []MasterCategory{}
	}
	if d.Income == nil {
		d.Income = []Income{}
	}
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.ActivityLog == nil {
		d.ActivityLog = []ActivityEntry{}
	}
}

type (
	categoryJSON       Category
	masterCategoryJSON MasterCategory
	incomeJSON         Income
	transactionJSON    Transaction
	activityEntryJSON  ActivityEntry
	documentJSON       Document
)

func (c Category) MarshalJSON() ([]byte, error) { return encodeRecord(categoryJSON(c), c.extra) }

func (c *Category) UnmarshalJSON(data []byte) (err error) {
	c.extra, err = decodeRecord(data, (*categoryJSON)(c))
	return err
}

func (m MasterCategory) MarshalJSON() ([]byte, error) {
	return encodeRecord(masterCategoryJSON(m), m.extra)
}

func (m *MasterCategory) UnmarshalJSON(data []byte) (err error) {
	m.extra, err = decodeRecord(data, (*masterCategoryJSON)(m))
	return err
}

func (i Income) MarshalJSON() ([]byte, error) { return encodeRecord(incomeJSON(i), i.extra) }

func (i *Income) UnmarshalJSON(data []byte) (err error) {
	i.extra, err = decodeRecord(data, (*incomeJSON)(i))
	return err
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return encodeRecord(transactionJSON(t), t.extra)
}

func (t *Transaction) UnmarshalJSON(data []byte) (err error) {
	t.extra, err = decodeRecord(data, (*transactionJSON)(t))
	return err
}

func (a ActivityEntry) MarshalJSON() ([]byte, error) {
	return encodeRecord(activityEntryJSON(a), a.extra)
}

func (a *ActivityEntry) UnmarshalJSON(data []byte) (err error) {
	a.extra, err = decodeRecord(data, (*activityEntryJSON)(a))
	return err
}

func (d Document) MarshalJSON() ([]byte, error) {
	d.normalize()
	return encodeRecord(documentJSON(d), d.extra)
}

func (d *Document) UnmarshalJSON(data []byte) (err error) {
	d.extra, err = decodeRecord(data, (*documentJSON)(d))
	return err
}
