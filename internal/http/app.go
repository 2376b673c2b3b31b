package api

import (
	"context"
	"fmt"
	"net/http"

	"apiscaffold/internal/cache"
	intconfig "apiscaffold/internal/config"
	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/remote"
	"apiscaffold/internal/repositories"
	"apiscaffold/internal/services"
	"apiscaffold/internal/utils"
)

// App holds the wired managers shared by every request.
type App struct {
	Env       intconfig.Env
	DB        intdb.Executor
	Registry  *repositories.Registry
	UserRoles *repositories.LinkManager
	Settings  *services.SettingsService
	Partners  *remote.Manager
}

func NewApp(env intconfig.Env, db intdb.Executor, c cache.Cache) *App {
	userRoles := repositories.NewLinkManager(db, models.UserRolesLink)

	reg := repositories.NewRegistry()
	settings := repositories.NewSystemSettingsManager(db)
	for _, m := range []*repositories.Manager{
		settings,
		repositories.NewAddressesManager(db),
		repositories.NewUsersManager(db, userRoles),
		repositories.NewRolesManager(db, userRoles),
		repositories.NewPartnersManager(db),
	} {
		if !reg.Register(m.Name(), m) {
			utils.LogEvent("", "app", "register", fmt.Sprintf("duplicate manager %s ignored", m.Name()))
		}
	}

	return &App{
		Env:       env,
		DB:        db,
		Registry:  reg,
		UserRoles: userRoles,
		Settings:  services.NewSettingsService(settings, env),
		Partners: &remote.Manager{
			Name:       "partners",
			Method:     http.MethodGet,
			BaseURL:    env.RemoteAPIBaseURL,
			AuthCode:   env.RemoteAPIAuthCode,
			PartnerID:  env.RemoteAPIPartnerID,
			Client:     &http.Client{Timeout: env.RemoteAPITimeout},
			Cache:      c,
			KeyReplace: map[string]string{"partner_code": "code", "partner_name": "name"},
			Defaults:   map[string]any{"status": "active"},
		},
	}
}

// Bootstrap checks live tables and loads settings. Failures are logged, not fatal.
func (a *App) Bootstrap(ctx context.Context) {
	for _, m := range a.Registry.All() {
		m.DiscoverColumns(ctx)
	}
	if _, err := a.Settings.Refresh(ctx); err != nil {
		utils.LogEvent("", "app", "bootstrap", "settings refresh failed: "+err.Error())
	}
	a.Partners.BaseURL = a.Settings.String("REMOTE_API_BASE_URL", a.Partners.BaseURL)
	a.Partners.AuthCode = a.Settings.String("REMOTE_API_AUTH_CODE", a.Partners.AuthCode)
	a.Partners.PartnerID = a.Settings.String("REMOTE_API_PARTNER_ID", a.Partners.PartnerID)
}

func (a *App) manager(name string) *repositories.Manager {
	m, err := a.Registry.Get(name)
	if err != nil {
		panic(err)
	}
	return m
}
