package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"whatsapp-relay/internal/errs"

	"github.com/gin-gonic/gin"
)

// repository is the CRUD surface shared by the template, contact and group
// stores. N is the create payload, U the partial update.
type repository[T, N, U any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in N) (T, error)
	Update(ctx context.Context, id int64, u U) (T, error)
	Delete(ctx context.Context, id int64) error
}

type resourceHandler[T, N, U any] struct {
	repo repository[T, N, U]
	noun string

	// prepare fills server-side defaults into a create payload.
	prepare func(*N)
}

func newResourceHandler[T, N, U any](repo repository[T, N, U], noun string) *resourceHandler[T, N, U] {
	return &resourceHandler[T, N, U]{repo: repo, noun: noun}
}

func (h *resourceHandler[T, N, U]) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *resourceHandler[T, N, U]) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *resourceHandler[T, N, U]) Create(c *gin.Context) {
	var in N
	if err := bindStrictJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.prepare != nil {
		h.prepare(&in)
	}

	item, err := h.repo.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *resourceHandler[T, N, U]) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": h.notFound()})
		return
	}

	var u U
	if err := bindStrictJSON(c, &u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.repo.Update(c.Request.Context(), id, u)
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": h.notFound()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *resourceHandler[T, N, U]) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": h.notFound()})
		return
	}

	err = h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": h.notFound()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *resourceHandler[T, N, U]) notFound() string {
	return fmt.Sprintf("%s not found", h.noun)
}

// bindStrictJSON decodes a record body, rejecting fields the record does not
// have so ids and timestamps cannot be written by clients.
func bindStrictJSON(c *gin.Context, obj interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(obj)
}
