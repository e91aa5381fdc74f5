package handler

const (
	errInternalServer     = "Internal server error"
	errUserAlreadyExists  = "User already exists"
	errInvalidCredentials = "Invalid email or password"
	errInvalidGoogleEmail = "Invalid email from Google response"
	errInvalidAccessToken = "Invalid access token"

	msgInvalidEmail    = "Please include a valid email"
	msgPasswordLength  = "Please enter a password with 6 or more characters"
	msgPasswordMissing = "Password is required"
	msgInvalidBody     = "Invalid request body"
)
