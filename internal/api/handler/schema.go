package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email           string `json:"email"            validate:"required,email,max=255"`
	Password        string `json:"password"         validate:"required,min=6,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name"        validate:"required,max=200"`
	FirstName       string `json:"first_name"       validate:"max=100"`
	LastName        string `json:"last_name"        validate:"max=100"`
	Phone           string `json:"phone"            validate:"required,max=20"`
	AcceptTerms     bool   `json:"accept_terms"     validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type registerResponse struct {
	User     userResponse      `json:"user"`
	Accounts []accountResponse `json:"accounts"`
}

// --- Users ---

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	VIPStatus bool      `json:"vip_status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type accountResponse struct {
	ID             string    `json:"id"`
	BrokerName     string    `json:"broker_name"`
	AccountBalance string    `json:"account_balance" example:"1000.00"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	FullName  string `json:"full_name"  validate:"required,max=200"`
	Phone     string `json:"phone"      validate:"max=20"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,maxbytes=72,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// --- Admin ---

type userListResponse struct {
	Users  []userResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type existsResponse struct {
	Email  string `json:"email"`
	Exists bool   `json:"exists"`
}

type updateVIPRequest struct {
	VIPStatus *bool `json:"vip_status" validate:"required"`
}

type statsResponse struct {
	TotalUsers      int64 `json:"total_users"`
	VIPUsers        int64 `json:"vip_users"`
	AdminUsers      int64 `json:"admin_users"`
	TradingAccounts int64 `json:"trading_accounts"`
}

type auditEventResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Action    string            `json:"action"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type auditListResponse struct {
	Events []auditEventResponse `json:"events"`
}
