package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/generalbots/botengine/domain/function"
	"github.com/generalbots/botengine/internal/scriptlang"
)

// FunctionStore is the persistence surface for named script definitions,
// satisfied by backends/postgres.FunctionStore.
type FunctionStore interface {
	Create(ctx context.Context, f function.Definition) (function.Definition, error)
	Get(ctx context.Context, id string) (function.Definition, error)
	GetByName(ctx context.Context, name string) (function.Definition, error)
	List(ctx context.Context) ([]function.Definition, error)
	Update(ctx context.Context, f function.Definition) error
	Delete(ctx context.Context, id string) error
}

type createFunctionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Source      string `json:"source" binding:"required"`
}

func (h *Handler) createFunction(c *gin.Context) {
	if h.functions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "function storage not configured"})
		return
	}
	var req createFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := scriptlang.Compile(req.Source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source does not compile: " + err.Error()})
		return
	}
	created, err := h.functions.Create(c.Request.Context(), function.Definition{
		Name:        req.Name,
		Description: req.Description,
		Source:      req.Source,
	})
	if err != nil {
		h.log.WithField("name", req.Name).WithField("err", err).Error("create function failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create function"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listFunctions(c *gin.Context) {
	if h.functions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "function storage not configured"})
		return
	}
	list, err := h.functions.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list functions"})
		return
	}
	if list == nil {
		list = []function.Definition{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getFunction(c *gin.Context) {
	if h.functions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "function storage not configured"})
		return
	}
	f, err := h.functions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "function not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch function"})
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) deleteFunction(c *gin.Context) {
	if h.functions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "function storage not configured"})
		return
	}
	if err := h.functions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete function"})
		return
	}
	c.Status(http.StatusNoContent)
}
