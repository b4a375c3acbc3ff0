package offers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/services/offers/models"
)

// Service handles hiring offers between employers and talents.
type Service struct {
	store OfferStore
	auth  *common.Authenticator
}

func NewService(store OfferStore, auth *common.Authenticator) *Service {
	return &Service{store: store, auth: auth}
}

func (s *Service) RegisterRoutes(r *mux.Router) {
	employer := common.NewRoleSet(common.RoleEmployer)
	participant := common.NewRoleSet(common.RoleEmployer, common.RoleProfessional)

	r.Handle("/offers", s.auth.AuthMiddleware(
		common.RequireRole(employer, s.CreateOfferHandler))).Methods("POST")
	r.Handle("/offers", s.auth.AuthMiddleware(
		common.RequireRole(participant, s.ListOffersHandler))).Methods("GET")
	r.Handle("/offers/{id}", s.auth.AuthMiddleware(
		common.RequireRole(participant, s.GetOfferHandler))).Methods("GET")
	r.Handle("/offers/{id}", s.auth.AuthMiddleware(
		common.RequireRole(participant, s.UpdateOfferHandler))).Methods("PUT")
}

func (s *Service) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := common.ClaimsFromContext(r.Context())

	var req models.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	offer := models.Offer{
		ID:             uuid.NewString(),
		JobDescription: req.JobDescription,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TotalWorkHours: req.TotalWorkHours,
		TotalPay:       req.TotalPay,
		EmployerWallet: claims.WalletAddress,
		TalentID:       req.TalentID,
		Status:         models.StatusWaiting,
	}
	if err := offer.ValidateNew(time.Now()); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	created, err := s.store.Create(r.Context(), offer)
	if err != nil {
		log.Printf("Failed to create offer: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to create offer")
		return
	}

	api.WriteSuccess(w, http.StatusCreated, created)
}

func (s *Service) GetOfferHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	offer, err := s.store.FindByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Offer not found")
		return
	}
	if err != nil {
		log.Printf("Failed to get offer %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch offer")
		return
	}

	api.WriteSuccess(w, http.StatusOK, offer)
}

func (s *Service) UpdateOfferHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.UpdateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	offer, err := s.store.FindByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Offer not found")
		return
	}
	if err != nil {
		log.Printf("Failed to get offer %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch offer")
		return
	}

	if err := offer.ApplyUpdate(req, time.Now()); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	updated, err := s.store.Update(r.Context(), offer)
	if err != nil {
		log.Printf("Failed to update offer %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to update offer")
		return
	}

	api.WriteSuccess(w, http.StatusOK, updated)
}

func (s *Service) ListOffersHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	offers, total, err := s.store.List(r.Context(), page, limit)
	if err != nil {
		log.Printf("Failed to list offers: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch offers")
		return
	}
	if offers == nil {
		offers = []models.Offer{}
	}

	api.WriteSuccess(w, http.StatusOK, models.ListResponse{
		Offers: offers,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
