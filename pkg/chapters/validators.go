package chapters

// ListChaptersQuery bounds a content window request. A missing "to" defaults
// relative to "from" in the handler, so it stays a pointer here.
type ListChaptersQuery struct {
	From int  `query:"from" json:"from,omitempty" validate:"min=0"`
	To   *int `query:"to" json:"to,omitempty" validate:"omitempty,min=0" tstype:"number"`
}
