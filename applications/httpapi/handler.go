// Package httpapi exposes the registration surface for Automations: a small
// gin router that lets operators create, list, enable/disable, and delete the
// records the Trigger Loop polls (§4.4, §6). It does not expose script
// execution directly — scripts only ever run from a Trigger Loop cycle.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/pkg/logger"
)

// Store is the persistence surface the registration API needs. It is
// satisfied by backends/postgres.AutomationStore; kept as an interface here
// so this package never imports a concrete backend.
type Store interface {
	Create(ctx context.Context, a automation.Automation) (automation.Automation, error)
	Get(ctx context.Context, id string) (automation.Automation, error)
	List(ctx context.Context) ([]automation.Automation, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// Handler wires automation and function registration requests to their
// respective stores. functions is optional: a host that never constructs it
// simply returns 501 on the /functions routes.
type Handler struct {
	store      Store
	functions  FunctionStore
	scriptsDir string
	log        *logger.Logger
}

// NewHandler builds a Handler. scriptsDir is the directory Param is resolved
// against by the Trigger Loop (§4.4); createAutomation validates every Param
// as a path rooted there, and writes a resolved FunctionName's source out as
// a file under it.
func NewHandler(store Store, functions FunctionStore, scriptsDir string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if scriptsDir == "" {
		scriptsDir = "scripts"
	}
	return &Handler{store: store, functions: functions, scriptsDir: scriptsDir, log: log}
}

// functionFileRe matches the function names safe to use as a path segment
// when materializing a resolved function's source onto disk.
var functionFileRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type createAutomationRequest struct {
	Kind     automation.Kind `json:"kind" binding:"required"`
	Target   string          `json:"target"`
	Schedule string          `json:"schedule"`
	// Param is a path, relative to the host's configured scripts directory,
	// to the script to run. Exactly one of Param or FunctionName must be
	// set; FunctionName resolves to a saved domain/function.Definition,
	// whose Source is written to disk under the scripts directory and
	// referenced by its relative path (§domain/function, §4.4).
	Param        string `json:"param"`
	FunctionName string `json:"function_name"`
	IsActive     *bool  `json:"is_active"`
}

func (h *Handler) createAutomation(c *gin.Context) {
	var req createAutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	param := req.Param
	if req.FunctionName != "" {
		if req.Param != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "set exactly one of param or function_name"})
			return
		}
		if h.functions == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "function storage not configured"})
			return
		}
		fn, err := h.functions.GetByName(c.Request.Context(), req.FunctionName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "no such function: " + req.FunctionName})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve function"})
			return
		}
		resolved, err := h.materializeFunction(req.FunctionName, fn.Source)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save resolved function: " + err.Error()})
			return
		}
		param = resolved
	}
	req.Param = param

	if err := h.validateParamPath(req.Param); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	a := automation.Automation{
		Kind:     req.Kind,
		Target:   req.Target,
		Schedule: req.Schedule,
		Param:    req.Param,
		IsActive: active,
	}
	if err := a.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.Create(c.Request.Context(), a)
	if err != nil {
		h.log.WithField("kind", a.Kind).WithField("err", err).Error("create automation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create automation"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// validateParamPath rejects a Param that is empty, absolute, or would
// resolve outside the scripts directory once joined to it, mirroring the
// Trigger Loop's own readScript guard (§4.4).
func (h *Handler) validateParamPath(param string) error {
	if param == "" {
		return errors.New("param must be a non-empty path relative to the scripts directory")
	}
	if filepath.IsAbs(param) {
		return errors.New("param must be relative, not an absolute path")
	}
	full := filepath.Join(h.scriptsDir, param)
	rel, err := filepath.Rel(h.scriptsDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.New("param path escapes the scripts directory")
	}
	return nil
}

// materializeFunction writes source to <scriptsDir>/functions/<name>.bas and
// returns that file's path relative to scriptsDir, so a FunctionName-based
// automation ends up with the same path-shaped Param as one created
// directly (§4.4).
func (h *Handler) materializeFunction(name, source string) (string, error) {
	if !functionFileRe.MatchString(name) {
		return "", errors.New("function name is not safe to use as a file name")
	}
	dir := filepath.Join(h.scriptsDir, "functions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	relPath := filepath.Join("functions", name+".bas")
	if err := os.WriteFile(filepath.Join(h.scriptsDir, relPath), []byte(source), 0o644); err != nil {
		return "", err
	}
	return relPath, nil
}

func (h *Handler) listAutomations(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list automations"})
		return
	}
	if list == nil {
		list = []automation.Automation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getAutomation(c *gin.Context) {
	a, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch automation"})
		return
	}
	c.JSON(http.StatusOK, a)
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) setAutomationActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetActive(c.Request.Context(), c.Param("id"), req.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update automation"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAutomation(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete automation"})
		return
	}
	c.Status(http.StatusNoContent)
}
