package api

import (
	"log"
	stdhttp "net/http"

	h "apiscaffold/internal/http/handlers"
	"apiscaffold/internal/http/middleware"
	"apiscaffold/internal/services"

	"github.com/gin-gonic/gin"
)

func NewRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(app.Env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	secret := []byte(app.Env.JWTSecret)
	sys := h.SystemHandler{DB: app.DB, Registry: app.Registry, Settings: app.Settings}
	export := services.ExportService{}

	api := r.Group("/api")
	api.Use(middleware.AuthOptional(secret))
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", sys.DBCheck)
		api.GET("/routes", h.Routes)

		auth := h.AuthHandler{Users: app.manager("USERS"), Secret: secret}
		api.POST("/auth/login", auth.Login)

		api.POST("/settings/refresh", middleware.RequireRoles("admin", "owner"), sys.RefreshSettings)

		settings := h.NewController("system-settings", app.manager("SYSTEM_SETTINGS"))
		settings.Export = export
		settings.Mount(api.Group("/system-settings", middleware.RequireRolesForWrites("admin", "owner")))

		users := h.NewController("users", app.manager("USERS"))
		users.Export = export
		usersGroup := api.Group("/users")
		users.Mount(usersGroup)

		userRoles := h.LinkHandler{Left: app.manager("USERS"), Links: app.UserRoles}
		usersGroup.GET("/:pk/roles", userRoles.List)
		usersGroup.PUT("/:pk/roles", middleware.RequireRoles("admin", "owner"), userRoles.Save)
		usersGroup.DELETE("/:pk/roles", middleware.RequireRoles("admin", "owner"), userRoles.Delete)

		roles := h.NewController("roles", app.manager("ROLES"))
		roles.Export = export
		roles.Mount(api.Group("/roles", middleware.RequireRolesForWrites("admin", "owner")))

		addresses := h.NewController("addresses", app.manager("ADDRESSES"))
		addresses.Mount(api.Group("/addresses"))

		partners := h.NewController("partners", app.manager("PARTNERS"))
		partners.API = app.Partners
		partners.Export = export
		partners.Mount(api.Group("/partners"))
	}

	h.SetRouter(r)
	return r
}
