package books

import "mime/multipart"

type UploadBookPayload struct {
	Title     *string                          `form:"title" json:"title,omitempty" validate:"omitempty,max=300"`
	Author    *string                          `form:"author" json:"author,omitempty" validate:"omitempty,max=200"`
	FormFiles map[string]*multipart.FileHeader `json:"-"`
}

type ListBooksQuery struct {
	Limit  int  `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Mine   bool `query:"mine" json:"mine,omitempty"`
}

