package auth

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/services/auth/models"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *MemoryStore, *mux.Router) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, common.NewAuthenticator(testSecret))
	router := mux.NewRouter()
	svc.RegisterRoutes(router)
	return svc, store, router
}

func postJSON(t *testing.T, router *mux.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, nonce string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(ChallengeMessage(nonce))), key)
	if err != nil {
		t.Fatalf("failed to sign challenge: %v", err)
	}
	return hexutil.Encode(sig)
}

func TestChallengeVerifyFlow(t *testing.T) {
	_, store, router := newTestService(t)

	key, _ := crypto.GenerateKey()
	// Mixed-case request address must map onto the same identity.
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	rr := postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	if rr.Code != http.StatusOK {
		t.Fatalf("challenge status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var challenge models.ChallengeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &challenge); err != nil {
		t.Fatalf("failed to decode challenge response: %v", err)
	}
	if !strings.Contains(challenge.Challenge, challenge.Nonce) {
		t.Errorf("challenge text %q does not embed nonce %q", challenge.Challenge, challenge.Nonce)
	}

	signature := signChallenge(t, key, challenge.Nonce)
	rr = postJSON(t, router, "/auth/verify", models.VerifyRequest{
		WalletAddress: address,
		Signature:     signature,
		Nonce:         challenge.Nonce,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var verified models.VerifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &verified); err != nil {
		t.Fatalf("failed to decode verify response: %v", err)
	}
	if verified.Token == "" {
		t.Fatal("expected a token in the verify response")
	}
	if verified.User.WalletAddress != strings.ToLower(address) {
		t.Errorf("user wallet = %s, want lowercase %s", verified.User.WalletAddress, strings.ToLower(address))
	}
	if len(verified.User.Roles) != 1 || verified.User.Roles[0] != string(common.RoleUser) {
		t.Errorf("new identity roles = %v, want [user]", verified.User.Roles)
	}

	claims, err := common.NewAuthenticator(testSecret).Authenticate(verified.Token)
	if err != nil {
		t.Fatalf("issued token did not authenticate: %v", err)
	}
	if claims.WalletAddress != strings.ToLower(address) {
		t.Errorf("token wallet = %s, want %s", claims.WalletAddress, strings.ToLower(address))
	}

	identity, err := store.FindByWallet(context.Background(), strings.ToLower(address))
	if err != nil {
		t.Fatalf("identity missing after verify: %v", err)
	}
	if identity.Nonce == challenge.Nonce {
		t.Error("nonce was not rotated after a successful verify")
	}

	// The consumed signature must never authenticate again.
	rr = postJSON(t, router, "/auth/verify", models.VerifyRequest{
		WalletAddress: address,
		Signature:     signature,
		Nonce:         challenge.Nonce,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rr.Code)
	}
}

func TestVerifyUnknownIdentity(t *testing.T) {
	_, _, router := newTestService(t)

	rr := postJSON(t, router, "/auth/verify", models.VerifyRequest{
		WalletAddress: "0x0000000000000000000000000000000000000001",
		Signature:     "0xdeadbeef",
		Nonce:         "deadbeef",
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestVerifyWrongSignerRejected(t *testing.T) {
	_, _, router := newTestService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	rr := postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	var challenge models.ChallengeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &challenge); err != nil {
		t.Fatalf("failed to decode challenge response: %v", err)
	}

	imposter, _ := crypto.GenerateKey()
	rr = postJSON(t, router, "/auth/verify", models.VerifyRequest{
		WalletAddress: address,
		Signature:     signChallenge(t, imposter, challenge.Nonce),
		Nonce:         challenge.Nonce,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	// The failure message must not reveal which check tripped.
	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Message != "Invalid credentials" {
		t.Errorf("error message = %q, want %q", errResp.Message, "Invalid credentials")
	}
}

func TestVerifyStaleNonceRejected(t *testing.T) {
	_, _, router := newTestService(t)

	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	rr := postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	var first models.ChallengeResponse
	json.Unmarshal(rr.Body.Bytes(), &first)

	// A second challenge replaces the stored nonce.
	rr = postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	if rr.Code != http.StatusOK {
		t.Fatalf("second challenge status = %d, want 200", rr.Code)
	}

	rr = postJSON(t, router, "/auth/verify", models.VerifyRequest{
		WalletAddress: address,
		Signature:     signChallenge(t, key, first.Nonce),
		Nonce:         first.Nonce,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestChallengeKeepsExistingRoles(t *testing.T) {
	_, store, router := newTestService(t)

	address := "0x00000000000000000000000000000000000000aa"
	postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	if _, err := store.UpdateRoles(context.Background(), address, []string{"employer", "admin"}); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}

	postJSON(t, router, "/auth/challenge", models.ChallengeRequest{WalletAddress: address})
	identity, err := store.FindByWallet(context.Background(), address)
	if err != nil {
		t.Fatalf("identity missing: %v", err)
	}
	if len(identity.Roles) != 2 {
		t.Errorf("roles after re-challenge = %v, want the assigned pair", identity.Roles)
	}
}

func TestUpdateRolesRequiresAdmin(t *testing.T) {
	_, store, router := newTestService(t)

	target := "0x00000000000000000000000000000000000000bb"
	if _, err := store.UpsertChallenge(context.Background(), target, "n1", []string{"user"}); err != nil {
		t.Fatalf("failed to seed identity: %v", err)
	}

	auth := common.NewAuthenticator(testSecret)
	body, _ := json.Marshal(models.UpdateRolesRequest{WalletAddress: target, Roles: []string{"employer"}})

	userToken, _, err := auth.IssueToken("0xcc", common.NewRoleSet(common.RoleUser))
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/auth/roles", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+userToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", rr.Code)
	}

	adminToken, _, err := auth.IssueToken("0xdd", common.NewRoleSet(common.RoleAdmin))
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPut, "/auth/roles", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	identity, _ := store.FindByWallet(context.Background(), target)
	if len(identity.Roles) != 1 || identity.Roles[0] != "employer" {
		t.Errorf("roles after update = %v, want [employer]", identity.Roles)
	}
}

func TestUpdateRolesRejectsUnknownRole(t *testing.T) {
	_, _, router := newTestService(t)

	auth := common.NewAuthenticator(testSecret)
	token, _, _ := auth.IssueToken("0xee", common.NewRoleSet(common.RoleAdmin))

	body, _ := json.Marshal(models.UpdateRolesRequest{
		WalletAddress: "0x00000000000000000000000000000000000000bb",
		Roles:         []string{"superuser"},
	})
	req := httptest.NewRequest(http.MethodPut, "/auth/roles", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestProfileHandler(t *testing.T) {
	_, store, router := newTestService(t)

	wallet := "0x00000000000000000000000000000000000000cc"
	if _, err := store.UpsertChallenge(context.Background(), wallet, "n1", []string{"user"}); err != nil {
		t.Fatalf("failed to seed identity: %v", err)
	}

	token, _, _ := common.NewAuthenticator(testSecret).IssueToken(wallet, common.NewRoleSet(common.RoleUser))
	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var profile models.ProfileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.WalletAddress != wallet {
		t.Errorf("profile wallet = %s, want %s", profile.WalletAddress, wallet)
	}
}
