package expense

// HeadRequest creates or updates an expense head.
type HeadRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=300"`
}

// CreateExpenseRequest books an expense against a head.
type CreateExpenseRequest struct {
	HeadID  int64  `json:"head_id" validate:"required,gt=0"`
	Date    string `json:"expense_date" validate:"omitempty,datetime=2006-01-02"`
	Amount  string `json:"amount" validate:"required"`
	Mode    string `json:"payment_mode" validate:"required,oneof=cash bank cheque online"`
	Remarks string `json:"remarks" validate:"omitempty,max=300"`
}

// UpdateExpenseRequest modifies an expense voucher.
type UpdateExpenseRequest struct {
	HeadID  *int64  `json:"head_id,omitempty" validate:"omitempty,gt=0"`
	Date    *string `json:"expense_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount  *string `json:"amount,omitempty"`
	Mode    *string `json:"payment_mode,omitempty" validate:"omitempty,oneof=cash bank cheque online"`
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=300"`
}
