package models

import "time"

const (
	ExperienceEntry        = "entry"
	ExperienceIntermediate = "intermediate"
	ExperienceExpert       = "expert"
)

// Sortable fields. Anything else falls back to SortByCreatedAt.
const (
	SortByCreatedAt  = "createdAt"
	SortByExperience = "experience"
	SortByHourlyRate = "skills.hourlyRate"
	SortByYears      = "skills.yearsOfExperience"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Skill is one billable skill on a talent profile. HourlyRate is a wei
// amount kept as a string.
type Skill struct {
	Name              string `json:"name"`
	HourlyRate        string `json:"hourlyRate"`
	YearsOfExperience int    `json:"yearsOfExperience"`
}

// Talent is a worker profile searchable by employers.
type Talent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Skills        []Skill   `json:"skills"`
	Availability  bool      `json:"availability"`
	Experience    string    `json:"experience"`
	Location      string    `json:"location"`
	WalletAddress string    `json:"walletAddress"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SearchQuery collects the filters, sort, and pagination of one search.
type SearchQuery struct {
	Query        string
	Skills       []string
	MinRate      string
	MaxRate      string
	Availability string // "available", "unavailable", or "" for all
	Location     string
	Experience   string
	MinYears     int
	MaxYears     int
	SortBy       string
	SortOrder    string // "asc" or "desc"; anything else means desc
	Page         int
	Limit        int
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type SearchResult struct {
	Talents    []Talent   `json:"talents"`
	Pagination Pagination `json:"pagination"`
}
