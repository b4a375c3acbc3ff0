package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/services/auth/models"
)

// Service handles the challenge/verify wallet authentication flow and the
// identity endpoints built on it.
type Service struct {
	store IdentityStore
	auth  *common.Authenticator
}

func NewService(store IdentityStore, auth *common.Authenticator) *Service {
	return &Service{store: store, auth: auth}
}

func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/challenge", s.ChallengeHandler).Methods("POST")
	r.HandleFunc("/auth/verify", s.VerifyHandler).Methods("POST")
	r.Handle("/auth/profile", s.auth.AuthMiddleware(http.HandlerFunc(s.ProfileHandler))).Methods("GET")
	r.Handle("/auth/roles", s.auth.AuthMiddleware(
		common.RequireRole(common.NewRoleSet(common.RoleAdmin), s.UpdateRolesHandler))).Methods("PUT")
}

// ChallengeHandler creates (or refreshes) the identity's nonce and returns
// the challenge text to sign. New identities get the least-privileged role.
func (s *Service) ChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WalletAddress == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet address is required")
		return
	}

	walletAddress := strings.ToLower(req.WalletAddress)

	nonce, err := GenerateNonce()
	if err != nil {
		log.Printf("Failed to generate nonce: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if _, err := s.store.UpsertChallenge(r.Context(), walletAddress, nonce, []string{string(common.RoleUser)}); err != nil {
		log.Printf("Failed to upsert identity for %s: %v", walletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.ChallengeResponse{
		Message:   "Challenge created",
		Challenge: ChallengeMessage(nonce),
		Nonce:     nonce,
	})
}

// VerifyHandler checks the signed challenge and mints a bearer token.
// Nonce and signature failures share one generic message so the response
// does not reveal which check failed.
func (s *Service) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.WalletAddress == "" || req.Signature == "" || req.Nonce == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet address, signature, and nonce are required")
		return
	}

	walletAddress := strings.ToLower(req.WalletAddress)

	identity, err := s.store.FindByWallet(r.Context(), walletAddress)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	if err != nil {
		log.Printf("Failed to look up identity %s: %v", walletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if identity.Nonce != req.Nonce {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	if !VerifySignature(ChallengeMessage(req.Nonce), req.Signature, walletAddress) {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	// Rotation happens only after the signature check passed, so a crash
	// before this point leaves the nonce usable for a retry. Afterwards the
	// consumed signature can never authenticate again.
	newNonce, err := GenerateNonce()
	if err != nil {
		log.Printf("Failed to generate replacement nonce: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	if err := s.store.RotateNonce(r.Context(), walletAddress, newNonce); err != nil {
		log.Printf("Failed to rotate nonce for %s: %v", walletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	roles, ok := common.RoleSetFromStrings(identity.Roles)
	if !ok {
		log.Printf("Identity %s carries unknown roles: %v", walletAddress, identity.Roles)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	token, _, err := s.auth.IssueToken(walletAddress, roles)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", walletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.VerifyResponse{
		Message: "Authentication successful",
		Token:   token,
		User: models.PublicUser{
			WalletAddress: walletAddress,
			Roles:         roles.Strings(),
		},
	})
}

func (s *Service) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	identity, err := s.store.FindByWallet(r.Context(), strings.ToLower(claims.WalletAddress))
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load profile for %s: %v", claims.WalletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.ProfileResponse{
		WalletAddress: identity.WalletAddress,
		Roles:         identity.Roles,
		CreatedAt:     identity.CreatedAt,
	})
}

// UpdateRolesHandler replaces an identity's role set. Admin-gated at the
// route level.
func (s *Service) UpdateRolesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.WalletAddress == "" || len(req.Roles) == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Wallet address and roles array are required")
		return
	}

	if _, ok := common.RoleSetFromStrings(req.Roles); !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid roles provided")
		return
	}

	identity, err := s.store.UpdateRoles(r.Context(), strings.ToLower(req.WalletAddress), req.Roles)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	if err != nil {
		log.Printf("Failed to update roles for %s: %v", req.WalletAddress, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "User roles updated",
		"user": models.PublicUser{
			WalletAddress: identity.WalletAddress,
			Roles:         identity.Roles,
		},
	})
}
