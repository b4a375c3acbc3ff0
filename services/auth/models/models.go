package models

import "time"

// Identity is one wallet's record: exactly one row per normalized (lowercase)
// address.
type Identity struct {
	WalletAddress string    `json:"walletAddress"`
	Roles         []string  `json:"roles"`
	Nonce         string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ChallengeRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type ChallengeResponse struct {
	Message   string `json:"message"`
	Challenge string `json:"challenge"`
	Nonce     string `json:"nonce"`
}

type VerifyRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
	Nonce         string `json:"nonce"`
}

type VerifyResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    PublicUser  `json:"user"`
}

type PublicUser struct {
	WalletAddress string   `json:"walletAddress"`
	Roles         []string `json:"roles"`
}

type ProfileResponse struct {
	WalletAddress string    `json:"walletAddress"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"createdAt"`
}

type UpdateRolesRequest struct {
	WalletAddress string   `json:"walletAddress"`
	Roles         []string `json:"roles"`
}
