package post

import (
	"errors"

	"github.com/artwall/core/internal/modules/gradient"
	"github.com/artwall/core/internal/pkg/response"
	"github.com/artwall/core/internal/store"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 100
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts post routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	posts := rg.Group("/posts")

	posts.GET("", h.list)
	posts.GET("/:id", h.get)
	posts.POST("/:id/evaluation", h.updateScore("evaluationNum"))
	posts.POST("/:id/rating", h.updateScore("ratingNum"))

	authed := posts.Group("", authMW)
	authed.DELETE("/:id", h.delete)
}

// list GET /posts — one page of the grid, optionally grouped by year.
func (h *Handler) list(c *gin.Context) {
	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if lq.Limit <= 0 {
		lq.Limit = defaultPageLimit
	}
	if lq.Limit > maxPageLimit {
		lq.Limit = maxPageLimit
	}
	if lq.Theme == "" {
		lq.Theme = gradient.DefaultTheme
	}

	page, next, err := h.svc.Paginate(c.Request.Context(), lq.Limit, lq.Cursor)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) || errors.Is(err, ErrInvalidLimit) {
			response.BadRequest(c, "invalid cursor format")
			return
		}
		response.InternalError(c, err)
		return
	}

	if lq.Grouped {
		response.Paged(c, toGroupedResponse(GroupByYear(page), lq.Theme), next)
		return
	}

	items := make([]postResponse, len(page))
	for i, p := range page {
		items[i] = toResponse(p, lq.Theme, false)
	}
	response.Paged(c, items, next)
}

// get GET /posts/:id
func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	theme := c.DefaultQuery("theme", gradient.DefaultTheme)
	response.OK(c, toResponse(*p, theme, true))
}

// updateScore POST /posts/:id/evaluation and /posts/:id/rating
func (h *Handler) updateScore(field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body ScoreDTO
		if err := c.ShouldBindJSON(&body); err != nil || body.Value == nil {
			response.BadRequest(c, "invalid "+field+" value")
			return
		}

		err := h.svc.UpdateScore(c.Request.Context(), c.Param("id"), field, *body.Value)
		switch {
		case err == nil:
			response.OK(c, gin.H{"status": "ok", field: *body.Value})
		case errors.Is(err, ErrInvalidScore), errors.Is(err, ErrInvalidScoreField):
			response.BadRequest(c, "invalid "+field+" value")
		case errors.Is(err, store.ErrNotFound):
			response.NotFound(c)
		default:
			response.InternalError(c, err)
		}
	}
}

// delete DELETE /posts/:id
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
