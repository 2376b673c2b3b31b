package handlers

import (
	"net/http"
	"sync"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/repositories"
	"apiscaffold/internal/services"
	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "api scaffold is running"})
}

// SystemHandler serves operational endpoints that need wiring.
type SystemHandler struct {
	DB       intdb.Executor
	Registry *repositories.Registry
	Settings *services.SettingsService
}

// DBCheck reports which entity tables exist.
func (h SystemHandler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		RespondError(c, http.StatusInternalServerError, "Database is not connected.", nil)
		return
	}
	tables := gin.H{}
	allOK := true
	for _, m := range h.Registry.All() {
		ok := intdb.HasTable(c.Request.Context(), h.DB, m.Schema.Table)
		tables[m.Schema.Table] = ok
		allOK = allOK && ok
	}
	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"database": "ok", "tables": tables})
}

// RefreshSettings reloads generic_system_settings into memory.
func (h SystemHandler) RefreshSettings(c *gin.Context) {
	n, err := h.Settings.Refresh(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "settings", "refresh", "triggered over http")
	writeResponse(c, Response{
		StatusCode: http.StatusOK,
		Result:     h.Settings.Snapshot(),
		Message:    utils.ToString(n) + " setting(s) loaded.",
		Other:      gin.H{"count": n},
	})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
