package authors

type CreateAuthorPayload struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// ReplaceAuthorPayload is the body of PUT, which requires every field.
type ReplaceAuthorPayload = CreateAuthorPayload

type UpdateAuthorPayload struct {
	Name *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
}
