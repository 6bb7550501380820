package accounts

// CreateAccountRequest is the registration payload.
type CreateAccountRequest struct {
	Email       string `json:"email" validate:"required,email,max=254" example:"alice@example.com"`
	Password    string `json:"password" validate:"required,maxbytes=72" maxLength:"72" example:"correct horse battery staple"`
	AccountName string `json:"account_name" validate:"required,max=64" example:"alice"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"correct horse battery staple"`
}

// TokenResponse carries a signed identity token.
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AccountResponse is the {"data": account} envelope.
type AccountResponse struct {
	Data *Account `json:"data"`
}
