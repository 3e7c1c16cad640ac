package stockaudit

// LineRequest is one counted item in a draft.
type LineRequest struct {
	ItemID      int64  `json:"item_id" validate:"required,gt=0"`
	PhysicalQty string `json:"physical_qty" validate:"required"`
}

// CreateAuditRequest is the payload for opening a draft stock-take.
type CreateAuditRequest struct {
	Date    string        `json:"audit_date" validate:"omitempty,datetime=2006-01-02"`
	Remarks string        `json:"remarks" validate:"omitempty,max=300"`
	Lines   []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateAuditRequest replaces the draft's remarks and lines. Posted audits
// reject any update.
type UpdateAuditRequest struct {
	Remarks *string       `json:"remarks,omitempty" validate:"omitempty,max=300"`
	Lines   []LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}
