package store

// Column aliases probed in order; first match wins. Uploaded files vary
// across several naming conventions.
var (
	dateAliases     = []string{"ts", "date", "Date", "DATE"}
	amountAliases   = []string{"amount", "Amount", "AMOUNT", "monthly_expense_total"}
	categoryAliases = []string{"category", "Category", "CATEGORY"}
	merchantAliases = []string{"merchant", "description", "narration", "Merchant", "Description"}
)

// ColumnMap is the declarative mapping from semantic field to CSV column
// index, resolved once per load instead of re-probed per query. An index
// of -1 means the field is absent.
type ColumnMap struct {
	Date     int
	Amount   int
	Category int
	Merchant int

	// Resolved header names, for Describe output.
	DateName     string
	AmountName   string
	CategoryName string
	MerchantName string
}

// ResolveColumns probes the header row against the alias lists.
func ResolveColumns(header []string) ColumnMap {
	cm := ColumnMap{Date: -1, Amount: -1, Category: -1, Merchant: -1}

	index := func(aliases []string) (int, string) {
		for _, alias := range aliases {
			for i, h := range header {
				if h == alias {
					return i, h
				}
			}
		}
		return -1, ""
	}

	cm.Date, cm.DateName = index(dateAliases)
	cm.Amount, cm.AmountName = index(amountAliases)
	cm.Category, cm.CategoryName = index(categoryAliases)
	cm.Merchant, cm.MerchantName = index(merchantAliases)
	return cm
}

// HasAmount reports whether an amount-equivalent column was found.
// Without one, every aggregate must return an explicit notice.
func (c ColumnMap) HasAmount() bool { return c.Amount >= 0 }

// HasDate reports whether a date-equivalent column was found.
func (c ColumnMap) HasDate() bool { return c.Date >= 0 }

// Resolved returns the semantic-field-to-header mapping for describe
// output.
func (c ColumnMap) Resolved() map[string]string {
	out := make(map[string]string)
	if c.Date >= 0 {
		out["date"] = c.DateName
	}
	if c.Amount >= 0 {
		out["amount"] = c.AmountName
	}
	if c.Category >= 0 {
		out["category"] = c.CategoryName
	}
	if c.Merchant >= 0 {
		out["merchant"] = c.MerchantName
	}
	return out
}
