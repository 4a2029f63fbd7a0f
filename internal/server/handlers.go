package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/findexa/repscout/internal/archive"
	"github.com/findexa/repscout/internal/runtime"
	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/repository"
)

const tokenTTL = 24 * time.Hour

// ResultReader is the Postgres store surface the API exposes.
type ResultReader interface {
	ReportRow(ctx context.Context, company string) (*store.ReportRow, error)
	InfoRow(ctx context.Context, company string) (*store.InfoRow, error)
}

// Searcher is the page archive surface the API exposes.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]archive.Hit, error)
}

// Handlers serves the operator API.
type Handlers struct {
	Sites   repository.SiteStore
	Ledger  repository.ActionLedger
	Results ResultReader
	Archive Searcher
	Runner  runtime.Runner

	Secret            []byte
	AdminPasswordHash string
}

// Register mounts the public and protected routes under api.
func (h *Handlers) Register(api *echo.Group) {
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(runtime.EchoAuthMiddleware(h.Secret))
	authed.GET("/companies", h.listCompanies)
	authed.GET("/companies/:company/site", h.getSite)
	authed.GET("/companies/:company/report", h.getReport)
	authed.GET("/companies/:company/info", h.getInfo)
	authed.GET("/companies/:company/actions", h.getActions)
	authed.DELETE("/companies/:company/actions", h.resetActions)
	authed.POST("/runs", h.startRun)
	authed.GET("/search/pages", h.searchPages)
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handlers) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if h.AdminPasswordHash == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "admin password not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.AdminPasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	tok, err := runtime.SignJWT("admin", h.Secret, tokenTTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     "auth",
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(tokenTTL),
	})
	return c.JSON(http.StatusOK, map[string]string{"token": tok})
}

func (h *Handlers) listCompanies(c echo.Context) error {
	companies, err := h.Sites.Companies(c.Request().Context())
	if err != nil {
		return err
	}
	if companies == nil {
		companies = []string{}
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *Handlers) getSite(c echo.Context) error {
	site, err := h.Sites.GetSite(c.Request().Context(), c.Param("company"))
	if errors.Is(err, models.ErrSiteNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "company not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, site)
}

func (h *Handlers) getReport(c echo.Context) error {
	row, err := h.Results.ReportRow(c.Request().Context(), c.Param("company"))
	if err != nil {
		return err
	}
	if row == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no report for company")
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handlers) getInfo(c echo.Context) error {
	row, err := h.Results.InfoRow(c.Request().Context(), c.Param("company"))
	if err != nil {
		return err
	}
	if row == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no extraction for company")
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handlers) getActions(c echo.Context) error {
	actions, err := h.Ledger.AllActions(c.Request().Context(), c.Param("company"))
	if err != nil {
		return err
	}
	if actions == nil {
		actions = []models.ActionRecord{}
	}
	return c.JSON(http.StatusOK, actions)
}

func (h *Handlers) resetActions(c echo.Context) error {
	if err := h.Ledger.DeleteAll(c.Request().Context(), c.Param("company")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type runRequest struct {
	Companies []string `json:"companies"`
}

func (h *Handlers) startRun(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	runID := uuid.NewString()
	go func() {
		// Detached from the request; a nil list means every known company.
		_ = h.Runner.Run(context.Background(), req.Companies)
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"run_id": runID})
}

func (h *Handlers) searchPages(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := 10
	if raw := c.QueryParam("k"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("k", &k).BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be an integer")
		}
	}
	hits, err := h.Archive.Search(c.Request().Context(), q, k)
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []archive.Hit{}
	}
	return c.JSON(http.StatusOK, hits)
}
