package models

import "time"

// TransactionType enumerates the ledger entry categories.
type TransactionType string

const (
	TransactionFund         TransactionType = "fund"
	TransactionExpense      TransactionType = "expense"
	TransactionWithdrawal   TransactionType = "withdrawal"
	TransactionIncome       TransactionType = "income"
	TransactionStockExpense TransactionType = "stock_expense"
)

// ValidTransactionType reports whether t is a known ledger entry category.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionFund, TransactionExpense, TransactionWithdrawal,
		TransactionIncome, TransactionStockExpense:
		return true
	}
	return false
}

// Transaction is one ledger entry. Entries are never edited in place;
// corrections are made by reversing (inverse effect + removal).
type Transaction struct {
	ID          string          `bson:"_id" json:"id"`
	Type        TransactionType `bson:"type" json:"type"`
	Amount      Money           `bson:"amount" json:"amount"`
	Description string          `bson:"description" json:"description"`
	Date        time.Time       `bson:"date" json:"date"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
}

// SignedEffect returns the entry's effect on the balance: fund and income add,
// expense, withdrawal and stock_expense subtract.
func (t Transaction) SignedEffect() Money {
	switch t.Type {
	case TransactionFund, TransactionIncome:
		return t.Amount
	default:
		return t.Amount.Negated()
	}
}

// BalanceID is the _id of the singleton balance row.
const BalanceID = 1

// Balance is the single running cash position, derived from all transactions.
// Only the ledger engine writes it.
type Balance struct {
	ID        int       `bson:"_id" json:"id"`
	Amount    Money     `bson:"amount" json:"amount"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
