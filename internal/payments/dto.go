package payments

// CreatePaymentRequest is the payload for recording a supplier payment or
// customer receipt. Amounts travel as strings so no float precision is lost
// between the client and the decimal domain type.
type CreatePaymentRequest struct {
	PartyID         int64  `json:"party_id" validate:"required,gt=0"`
	Date            string `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Amount          string `json:"amount" validate:"required"`
	DiscountPercent string `json:"discount_percent" validate:"omitempty"`
	Mode            string `json:"payment_mode" validate:"required,oneof=cash bank cheque online"`
	BankName        string `json:"bank_name" validate:"omitempty,max=100"`
	ChequeNo        string `json:"cheque_no" validate:"omitempty,max=50"`
	ChequeDate      string `json:"cheque_date" validate:"omitempty,datetime=2006-01-02"`
	Remarks         string `json:"remarks" validate:"omitempty,max=300"`
}

// UpdatePaymentRequest carries the only fields that may change after posting.
// Monetary values and the party are frozen; correcting those means deleting
// the voucher and recording a fresh one. Amount and Discount are accepted on
// the wire purely so the rejection is explicit instead of a decode error.
type UpdatePaymentRequest struct {
	Amount     *string `json:"amount,omitempty"`
	Discount   *string `json:"discount,omitempty"`
	Mode       *string `json:"payment_mode,omitempty" validate:"omitempty,oneof=cash bank cheque online"`
	BankName   *string `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	ChequeNo   *string `json:"cheque_no,omitempty" validate:"omitempty,max=50"`
	ChequeDate *string `json:"cheque_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Remarks    *string `json:"remarks,omitempty" validate:"omitempty,max=300"`
}
