package talent

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/talentchain/marketplace/backend/services/talent/models"
)

// MemoryStore is an in-memory TalentStore used by tests and local
// development.
type MemoryStore struct {
	mu      sync.Mutex
	talents map[string]models.Talent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{talents: make(map[string]models.Talent)}
}

func (m *MemoryStore) Create(ctx context.Context, talent models.Talent) (models.Talent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	talent.CreatedAt = now
	talent.UpdatedAt = now
	m.talents[talent.ID] = talent
	return talent, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (models.Talent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	talent, ok := m.talents[id]
	if !ok {
		return models.Talent{}, ErrNotFound
	}
	return talent, nil
}

func (m *MemoryStore) Search(ctx context.Context, q models.SearchQuery) ([]models.Talent, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Talent
	for _, talent := range m.talents {
		if matches(talent, q) {
			matched = append(matched, talent)
		}
	}
	sortTalents(matched, q)

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// sortTalents orders results like the Postgres store: skill-level sorts rank
// ascending by the minimum skill value and descending by the maximum.
func sortTalents(talents []models.Talent, q models.SearchQuery) {
	asc := q.SortOrder == models.SortAsc

	less := func(a, b models.Talent) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch q.SortBy {
	case models.SortByHourlyRate:
		less = func(a, b models.Talent) bool {
			return rateSortKey(a, asc).Cmp(rateSortKey(b, asc)) < 0
		}
	case models.SortByYears:
		less = func(a, b models.Talent) bool {
			return yearsSortKey(a, asc) < yearsSortKey(b, asc)
		}
	case models.SortByExperience:
		less = func(a, b models.Talent) bool { return a.Experience < b.Experience }
	}

	sort.SliceStable(talents, func(i, j int) bool {
		if asc {
			return less(talents[i], talents[j])
		}
		return less(talents[j], talents[i])
	})
}

func rateSortKey(t models.Talent, min bool) *big.Int {
	var key *big.Int
	for _, skill := range t.Skills {
		r, ok := new(big.Int).SetString(skill.HourlyRate, 10)
		if !ok {
			continue
		}
		if key == nil || (min && r.Cmp(key) < 0) || (!min && r.Cmp(key) > 0) {
			key = r
		}
	}
	if key == nil {
		return big.NewInt(0)
	}
	return key
}

func yearsSortKey(t models.Talent, min bool) int {
	key := 0
	for i, skill := range t.Skills {
		if i == 0 || (min && skill.YearsOfExperience < key) || (!min && skill.YearsOfExperience > key) {
			key = skill.YearsOfExperience
		}
	}
	return key
}

func matches(t models.Talent, q models.SearchQuery) bool {
	if q.Query != "" {
		needle := strings.ToLower(q.Query)
		if !strings.Contains(strings.ToLower(t.Name), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if len(q.Skills) > 0 && !hasAnySkill(t.Skills, q.Skills) {
		return false
	}
	if q.MinRate != "" && !anyRateAtLeast(t.Skills, q.MinRate) {
		return false
	}
	if q.MaxRate != "" && !anyRateAtMost(t.Skills, q.MaxRate) {
		return false
	}
	if q.MinYears > 0 && !anyYears(t.Skills, func(y int) bool { return y >= q.MinYears }) {
		return false
	}
	if q.MaxYears > 0 && !anyYears(t.Skills, func(y int) bool { return y <= q.MaxYears }) {
		return false
	}
	if q.Availability == "available" && !t.Availability {
		return false
	}
	if q.Availability == "unavailable" && t.Availability {
		return false
	}
	if q.Location != "" && t.Location != q.Location {
		return false
	}
	if q.Experience != "" && t.Experience != q.Experience {
		return false
	}
	return true
}

func hasAnySkill(skills []models.Skill, wanted []string) bool {
	for _, skill := range skills {
		for _, w := range wanted {
			if strings.Contains(strings.ToLower(skill.Name), strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

func anyRateAtLeast(skills []models.Skill, min string) bool {
	return anyRate(skills, min, func(cmp int) bool { return cmp >= 0 })
}

func anyRateAtMost(skills []models.Skill, max string) bool {
	return anyRate(skills, max, func(cmp int) bool { return cmp <= 0 })
}

func anyRate(skills []models.Skill, bound string, ok func(int) bool) bool {
	b, valid := new(big.Int).SetString(bound, 10)
	if !valid {
		return false
	}
	for _, skill := range skills {
		r, valid := new(big.Int).SetString(skill.HourlyRate, 10)
		if valid && ok(r.Cmp(b)) {
			return true
		}
	}
	return false
}

func anyYears(skills []models.Skill, ok func(int) bool) bool {
	for _, skill := range skills {
		if ok(skill.YearsOfExperience) {
			return true
		}
	}
	return false
}
