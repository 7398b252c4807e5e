package post

import (
	"github.com/artwall/core/internal/models"
	"github.com/artwall/core/internal/modules/gradient"
)

// ListQuery holds query params for listing posts.
type ListQuery struct {
	Limit   int    `form:"limit"`
	Cursor  string `form:"cursor"`
	Grouped bool   `form:"grouped"`
	Theme   string `form:"theme"`
}

// ScoreDTO is the request body for evaluation/rating updates.
type ScoreDTO struct {
	Value *int `json:"value"`
}

// postResponse is the API response shape for a post card.
type postResponse struct {
	models.Post
	DateString    string `json:"date_string,omitempty"`
	Gradient      string `json:"gradient,omitempty"`
	SolidFallback string `json:"solid_fallback,omitempty"`
	Preview       string `json:"preview,omitempty"`
}

// yearGroupResponse is one year separator section of the grid.
type yearGroupResponse struct {
	Year  string         `json:"year"`
	Posts []postResponse `json:"posts"`
}

// toResponse normalizes a stored record and attaches derived display fields.
// Preview is only filled for detail views.
func toResponse(p models.Post, theme string, withPreview bool) postResponse {
	Normalize(&p)
	resp := postResponse{
		Post:          p,
		DateString:    DateString(p),
		Gradient:      gradient.Generate(p.ID, p.Medium, theme),
		SolidFallback: gradient.SolidFallback(p.Medium),
	}
	if withPreview {
		resp.Preview = CleanContent(p.Content)
	}
	return resp
}

func toGroupedResponse(groups []YearGroup, theme string) []yearGroupResponse {
	out := make([]yearGroupResponse, len(groups))
	for i, g := range groups {
		items := make([]postResponse, len(g.Posts))
		for j, p := range g.Posts {
			items[j] = toResponse(p, theme, false)
		}
		out[i] = yearGroupResponse{Year: g.Year, Posts: items}
	}
	return out
}
