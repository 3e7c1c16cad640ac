package party

// CreatePartyRequest is the payload for creating a party.
type CreatePartyRequest struct {
	Type           string `json:"party_type" validate:"required,oneof=customer supplier both"`
	Code           string `json:"code" validate:"omitempty,max=20"`
	Name           string `json:"name" validate:"required,max=100"`
	CompanyName    string `json:"company_name" validate:"omitempty,max=100"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address" validate:"omitempty,max=300"`
	OpeningBalance string `json:"opening_balance" validate:"omitempty"`
}

// UpdatePartyRequest is the payload for updating a party. Balance fields are
// deliberately absent: balances change only through ledger postings.
type UpdatePartyRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	CompanyName *string `json:"company_name,omitempty" validate:"omitempty,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=300"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
