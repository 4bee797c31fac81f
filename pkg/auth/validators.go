package auth

// ObtainTokenPayload represents the token request body.
type ObtainTokenPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenPayload is the body of both refresh and logout.
type RefreshTokenPayload struct {
	Refresh string `json:"refresh" validate:"required"`
}

// AccessTokenResponse is returned when refreshing.
type AccessTokenResponse struct {
	Access string `json:"access"`
}
