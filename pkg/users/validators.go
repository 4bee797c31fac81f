package users

type CreateUserPayload struct {
	Username  string `json:"username" validate:"required,notblank,max=150"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// ReplaceUserPayload is the body of PUT, which requires every required field.
type ReplaceUserPayload = CreateUserPayload

type UpdateUserPayload struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,notblank,max=150"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
}

type ListUsersQuery struct {
	Page string `query:"page" json:"page,omitempty"`
}

// UserResponse is how a user is represented in every response. Passwords and
// permission flags are never exposed.
type UserResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
