package talent

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/services/talent/models"
)

// Service exposes talent search to employers.
type Service struct {
	store TalentStore
	auth  *common.Authenticator
}

func NewService(store TalentStore, auth *common.Authenticator) *Service {
	return &Service{store: store, auth: auth}
}

func (s *Service) RegisterRoutes(r *mux.Router) {
	// Search is employer-gated. The underlying business rule is inherited;
	// nothing else depends on it.
	r.Handle("/talents/search", s.auth.AuthMiddleware(
		common.RequireRole(common.NewRoleSet(common.RoleEmployer), s.SearchHandler))).Methods("GET")
}

func (s *Service) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := parseSearchQuery(r)

	talents, total, err := s.store.Search(r.Context(), q)
	if err != nil {
		log.Printf("Failed to search talents: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to search talents")
		return
	}
	if talents == nil {
		talents = []models.Talent{}
	}

	totalPages := (total + q.Limit - 1) / q.Limit
	api.WriteSuccess(w, http.StatusOK, models.SearchResult{
		Talents: talents,
		Pagination: models.Pagination{
			CurrentPage: q.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     q.Page < totalPages,
			HasPrev:     q.Page > 1,
		},
	})
}

func parseSearchQuery(r *http.Request) models.SearchQuery {
	values := r.URL.Query()

	q := models.SearchQuery{
		Query:        values.Get("q"),
		MinRate:      values.Get("minRate"),
		MaxRate:      values.Get("maxRate"),
		Availability: values.Get("availability"),
		Location:     values.Get("location"),
		Experience:   values.Get("experience"),
		MinYears:     queryInt(values.Get("minYears"), 0),
		MaxYears:     queryInt(values.Get("maxYears"), 0),
		SortBy:       values.Get("sortBy"),
		SortOrder:    values.Get("sortOrder"),
		Page:         queryInt(values.Get("page"), 1),
		Limit:        queryInt(values.Get("limit"), 10),
	}
	if skills := values.Get("skills"); skills != "" {
		for _, skill := range strings.Split(skills, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				q.Skills = append(q.Skills, skill)
			}
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	return q
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
