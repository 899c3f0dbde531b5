// Package review turns a fully loaded application collection into the
// filtered, sorted and paginated view a reviewer works with.
package review

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

// View is the projection of the record collection for one ViewState.
type View struct {
	Visible       []models.ApplicationRecord `json:"visible"`
	Filtered      []models.ApplicationRecord `json:"-"`
	TotalFiltered int                        `json:"totalFiltered"`
	TotalPages    int                        `json:"totalPages"`
	Page          int                        `json:"page"`
	PageSize      int                        `json:"pageSize"`
}

// Locale drives the collation of candidate names.
var Locale = language.English

// ComputeView runs search, status, experience and rating filters, a stable sort and pagination.
// It has no side effects and never corrects an out-of-range page: such a page is simply empty.
func ComputeView(records []models.ApplicationRecord, state ViewState) View {
	filtered := Filter(records, state)
	SortRecords(filtered, state.SortField, state.SortDirection)

	pageSize := state.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := state.Page
	if page < 1 {
		page = 1
	}
	visible, totalPages := Paginate(filtered, page, pageSize)

	return View{
		Visible:       visible,
		Filtered:      filtered,
		TotalFiltered: len(filtered),
		TotalPages:    totalPages,
		Page:          page,
		PageSize:      pageSize,
	}
}

// Filter returns a new slice with the records matching every active predicate, in input order.
func Filter(records []models.ApplicationRecord, state ViewState) []models.ApplicationRecord {
	term := strings.ToLower(strings.TrimSpace(state.SearchTerm))
	status := normalizeFilter(state.StatusFilter)
	bucket := normalizeFilter(state.ExperienceFilter)
	minRating, ratingActive := state.MinRating()

	out := make([]models.ApplicationRecord, 0, len(records))
	for _, r := range records {
		if term != "" && !matchesSearch(r, term) {
			continue
		}
		if status != FilterAll && string(r.Status) != status {
			continue
		}
		if bucket != FilterAll && !ExperienceBucket(bucket).Contains(r.YearsOfExperience) {
			continue
		}
		if ratingActive && r.RatingValue() < minRating {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r models.ApplicationRecord, term string) bool {
	if strings.Contains(strings.ToLower(r.FullName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Email), term) {
		return true
	}
	return r.JobTitle != nil && strings.Contains(strings.ToLower(*r.JobTitle), term)
}

// SortRecords stable-sorts in place. Records with equal keys keep their relative order in both directions.
func SortRecords(records []models.ApplicationRecord, field SortField, dir SortDirection) {
	cmp := comparator(field)
	desc := dir == SortDesc
	sort.SliceStable(records, func(i, j int) bool {
		c := cmp(records[i], records[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

type compareFunc func(a, b models.ApplicationRecord) int

func comparator(field SortField) compareFunc {
	switch field {
	case SortByName:
		// Collator keeps internal buffers, one per sort call.
		coll := collate.New(Locale)
		return func(a, b models.ApplicationRecord) int {
			return coll.CompareString(a.FullName, b.FullName)
		}
	case SortByExperience:
		return func(a, b models.ApplicationRecord) int {
			return compareInt(a.YearsOfExperience, b.YearsOfExperience)
		}
	case SortByRating:
		return func(a, b models.ApplicationRecord) int {
			return compareInt(a.RatingValue(), b.RatingValue())
		}
	case SortByStatus:
		return func(a, b models.ApplicationRecord) int {
			return strings.Compare(string(a.Status), string(b.Status))
		}
	default:
		return func(a, b models.ApplicationRecord) int {
			switch {
			case a.AppliedAt.Before(b.AppliedAt):
				return -1
			case a.AppliedAt.After(b.AppliedAt):
				return 1
			default:
				return 0
			}
		}
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Paginate slices one page out of the sorted records. totalPages is at least 1.
// Page and page size are clamped to at least 1.
func Paginate(records []models.ApplicationRecord, page, pageSize int) ([]models.ApplicationRecord, int) {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}
	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []models.ApplicationRecord{}, totalPages
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	visible := make([]models.ApplicationRecord, end-start)
	copy(visible, records[start:end])
	return visible, totalPages
}

// IDs returns the record ids in order.
func IDs(records []models.ApplicationRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
