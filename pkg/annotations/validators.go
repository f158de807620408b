package annotations

type CreateHighlightPayload struct {
	Location string `json:"location" validate:"required,max=2000"`
	Content  string `json:"content" validate:"max=5000"`
	Note     string `json:"note" validate:"max=5000"`
	Color    string `json:"color" validate:"omitempty,max=30"`
}

type UpdateHighlightPayload struct {
	Note  *string `json:"note,omitempty" validate:"omitempty,max=5000"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=30"`
}

type CreateBookmarkPayload struct {
	Location string `json:"location" validate:"required,max=2000"`
	Note     string `json:"note" validate:"max=5000"`
}
