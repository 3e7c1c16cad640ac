package bank

// CreateBankRequest is the payload for registering a bank account.
type CreateBankRequest struct {
	Name           string `json:"bank_name" validate:"required,max=100"`
	AccountNo      string `json:"account_no" validate:"required,max=50"`
	AccountTitle   string `json:"account_title" validate:"omitempty,max=100"`
	OpeningBalance string `json:"opening_balance" validate:"omitempty"`
}

// UpdateBankRequest is the payload for updating a bank account. Balances move
// only through deposits, withdrawals and transfers.
type UpdateBankRequest struct {
	Name         *string `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	AccountNo    *string `json:"account_no,omitempty" validate:"omitempty,max=50"`
	AccountTitle *string `json:"account_title,omitempty" validate:"omitempty,max=100"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// MoveRequest is the payload for a deposit or withdrawal.
type MoveRequest struct {
	Amount    string `json:"amount" validate:"required"`
	Date      string `json:"txn_date" validate:"omitempty,datetime=2006-01-02"`
	Narration string `json:"narration" validate:"omitempty,max=300"`
}

// TransferRequest moves money between two accounts in one transaction.
type TransferRequest struct {
	FromBankID int64  `json:"from_bank_id" validate:"required,gt=0"`
	ToBankID   int64  `json:"to_bank_id" validate:"required,gt=0"`
	Amount     string `json:"amount" validate:"required"`
	Date       string `json:"txn_date" validate:"omitempty,datetime=2006-01-02"`
	Narration  string `json:"narration" validate:"omitempty,max=300"`
}
