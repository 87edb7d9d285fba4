package dto

import "time"

// SignUpFirmRequest body para POST /api/auth/signup: alta de firma + primer owner.
type SignUpFirmRequest struct {
	FirmName    string `json:"firm_name"`
	FirmEmail   string `json:"firm_email"`
	FirmAddress string `json:"firm_address,omitempty"`
	FirmPhone   string `json:"firm_phone,omitempty"`
	OwnerName   string `json:"owner_name"`
	OwnerEmail  string `json:"owner_email"`
	Password    string `json:"password"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse salida de signup/login: token + usuario + firma.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
	Firm  FirmResponse `json:"firm"`
}

// FirmResponse firma en respuestas.
type FirmResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
