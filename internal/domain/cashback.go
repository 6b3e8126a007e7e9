package domain

// Bank is a card issuer from the shared reference list.
type Bank struct {
	ID   int64
	Name string
}

// Category is a spending category from the shared reference list.
type Category struct {
	ID   int64
	Name string
}

// CashbackEntry is a percentage rate a user gets at a bank for a category
// during one calendar period (YYYY-MM).
type CashbackEntry struct {
	ID         int64
	UserID     int64
	BankID     int64
	CategoryID int64
	Percent    float64
	Period     string
}

// CashbackRow is a cashback entry joined with its bank and category names,
// used for reports.
type CashbackRow struct {
	Period       string
	BankName     string
	CategoryName string
	Percent      float64
}

// EntryPair identifies a single stored entry in deletion menus.
type EntryPair struct {
	ID           int64
	BankName     string
	CategoryName string
	Percent      float64
}
