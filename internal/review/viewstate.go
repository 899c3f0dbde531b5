package review

import (
	"strconv"
	"strings"

	"github.com/noah-isme/careers-admin-api/internal/models"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// FilterAll disables a filter.
const FilterAll = "all"

// Page size bounds applied by Normalize when the caller passes none.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortField selects the comparator used by the sort stage.
type SortField string

const (
	SortByName       SortField = "name"
	SortByExperience SortField = "experience"
	SortByDate       SortField = "date"
	SortByStatus     SortField = "status"
	SortByRating     SortField = "rating"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ExperienceBucket is one of the fixed years-of-experience ranges.
type ExperienceBucket string

const (
	ExperienceJunior ExperienceBucket = "0-2"
	ExperienceMid    ExperienceBucket = "3-5"
	ExperienceSenior ExperienceBucket = "5+"
)

// Contains reports whether years falls in the bucket. "5+" is strictly greater than 5.
func (b ExperienceBucket) Contains(years int) bool {
	switch b {
	case ExperienceJunior:
		return years >= 0 && years <= 2
	case ExperienceMid:
		return years >= 3 && years <= 5
	case ExperienceSenior:
		return years > 5
	default:
		return false
	}
}

// Capabilities switch the optional reviewer features on or off.
// The simple review screen has neither; the enhanced one has both.
type Capabilities struct {
	Rating      bool `json:"rating"`
	BulkActions bool `json:"bulkActions"`
}

// FullCapabilities enables every optional feature.
func FullCapabilities() Capabilities {
	return Capabilities{Rating: true, BulkActions: true}
}

// ViewState is the reviewer's filter, sort and paging input.
type ViewState struct {
	SearchTerm       string        `json:"search" form:"search"`
	StatusFilter     string        `json:"status" form:"status"`
	ExperienceFilter string        `json:"experience" form:"experience"`
	RatingFilter     string        `json:"rating" form:"rating"`
	SortField        SortField     `json:"sort" form:"sort"`
	SortDirection    SortDirection `json:"order" form:"order"`
	Page             int           `json:"page" form:"page"`
	PageSize         int           `json:"pageSize" form:"pageSize"`
}

// DefaultViewState is newest applications first, first page, every filter off.
func DefaultViewState() ViewState {
	return ViewState{
		StatusFilter:     FilterAll,
		ExperienceFilter: FilterAll,
		RatingFilter:     FilterAll,
		SortField:        SortByDate,
		SortDirection:    SortDesc,
		Page:             1,
		PageSize:         DefaultPageSize,
	}
}

// PagingBounds overrides the default and maximum page size used by Normalize.
type PagingBounds struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Normalize fills defaults, lower-cases enum inputs and rejects unknown values.
// Inputs that belong to a disabled capability are reset to their neutral value.
func (s ViewState) Normalize(caps Capabilities, bounds PagingBounds) (ViewState, error) {
	if bounds.DefaultPageSize <= 0 {
		bounds.DefaultPageSize = DefaultPageSize
	}
	if bounds.MaxPageSize <= 0 {
		bounds.MaxPageSize = MaxPageSize
	}

	out := s
	out.SearchTerm = strings.TrimSpace(s.SearchTerm)
	out.StatusFilter = normalizeFilter(s.StatusFilter)
	out.ExperienceFilter = normalizeFilter(s.ExperienceFilter)
	out.RatingFilter = normalizeFilter(s.RatingFilter)
	out.SortField = SortField(strings.ToLower(strings.TrimSpace(string(s.SortField))))
	out.SortDirection = SortDirection(strings.ToLower(strings.TrimSpace(string(s.SortDirection))))

	if out.StatusFilter != FilterAll && !models.ApplicationStatus(out.StatusFilter).Valid() {
		return ViewState{}, appErrors.Validation("unknown status filter", "status")
	}
	if out.ExperienceFilter != FilterAll {
		switch ExperienceBucket(out.ExperienceFilter) {
		case ExperienceJunior, ExperienceMid, ExperienceSenior:
		default:
			return ViewState{}, appErrors.Validation("unknown experience filter", "experience")
		}
	}
	if !caps.Rating {
		out.RatingFilter = FilterAll
	}
	if out.RatingFilter != FilterAll {
		if _, err := parseRating(out.RatingFilter); err != nil {
			return ViewState{}, appErrors.Validation("rating filter must be between 0 and 5", "rating")
		}
	}

	switch out.SortField {
	case "":
		out.SortField = SortByDate
	case SortByName, SortByExperience, SortByDate, SortByStatus:
	case SortByRating:
		if !caps.Rating {
			out.SortField = SortByDate
		}
	default:
		return ViewState{}, appErrors.Validation("unknown sort field", "sort")
	}
	switch out.SortDirection {
	case "":
		out.SortDirection = SortDesc
	case SortAsc, SortDesc:
	default:
		return ViewState{}, appErrors.Validation("sort order must be asc or desc", "order")
	}

	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize <= 0 {
		out.PageSize = bounds.DefaultPageSize
	}
	if out.PageSize > bounds.MaxPageSize {
		out.PageSize = bounds.MaxPageSize
	}
	return out, nil
}

// FiltersEqual reports whether both states select the same records.
func (s ViewState) FiltersEqual(other ViewState) bool {
	return strings.EqualFold(s.SearchTerm, other.SearchTerm) &&
		s.StatusFilter == other.StatusFilter &&
		s.ExperienceFilter == other.ExperienceFilter &&
		s.RatingFilter == other.RatingFilter
}

// MinRating returns the rating threshold and whether the rating filter is active.
func (s ViewState) MinRating() (int, bool) {
	if s.RatingFilter == "" || s.RatingFilter == FilterAll {
		return 0, false
	}
	v, err := parseRating(s.RatingFilter)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeFilter(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return FilterAll
	}
	return v
}

func parseRating(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < models.MinRating || v > models.MaxRating {
		return 0, strconv.ErrRange
	}
	return v, nil
}
