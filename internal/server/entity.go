package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/query"
	"github.com/smallbiznis/tenancy/pkg/db/pagination"
)

// entityService is the operation set every entity service exposes.
type entityService[T, F, R any] interface {
	Get(ctx context.Context, id snowflake.ID) (*T, error)
	GetAll(ctx context.Context, req query.ListRequest) (pagination.Page[T], error)
	Find(ctx context.Context, filter F) ([]T, error)
	Create(ctx context.Context, req R) (*T, error)
	Update(ctx context.Context, id snowflake.ID, req R) (*T, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) error
	Exists(ctx context.Context, id snowflake.ID) (bool, error)
}

type entityHandler[T, F, R any] struct {
	svc entityService[T, F, R]
}

type deleteManyRequest struct {
	IDs []snowflake.ID `json:"ids"`
}

func registerEntity[T, F, R any](g *gin.RouterGroup, path string, svc entityService[T, F, R]) *gin.RouterGroup {
	h := entityHandler[T, F, R]{svc: svc}

	r := g.Group(path)
	r.GET("", h.list)
	r.POST("/search", h.search)
	r.GET("/:id", h.get)
	r.HEAD("/:id", h.exists)
	r.POST("", h.create)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
	r.DELETE("", h.deleteMany)
	return r
}

func (h entityHandler[T, F, R]) list(c *gin.Context) {
	req := query.ListRequest{Search: c.Query("search")}
	if !bindPage(c, &req.Page) {
		return
	}

	page, err := h.svc.GetAll(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": page})
}

func (h entityHandler[T, F, R]) search(c *gin.Context) {
	var filter F
	if err := c.ShouldBindJSON(&filter); err != nil {
		AbortWithError(c, invalidRequestError("filter"))
		return
	}

	resp, err := h.svc.Find(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h entityHandler[T, F, R]) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h entityHandler[T, F, R]) exists(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ok, err := h.svc.Exists(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

func (h entityHandler[T, F, R]) create(c *gin.Context) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h entityHandler[T, F, R]) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h entityHandler[T, F, R]) delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h entityHandler[T, F, R]) deleteMany(c *gin.Context) {
	var req deleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	if err := h.svc.DeleteMany(c.Request.Context(), req.IDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
