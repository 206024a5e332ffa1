package app

// LoginRequest is the credential pair submitted by adapters.
type LoginRequest struct {
	Username string `json:"username" jsonschema:"required"`
	Password string `json:"password" jsonschema:"required"`
}
