package riskanalysis

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/auth"
)

const maxPayloadBytes = 5 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the analysis endpoints. Extra middleware, such as a
// rate limiter, runs after the role check.
func (h *Handler) RegisterRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	g := api.Group("/analysis", append([]echo.MiddlewareFunc{auth.RequireRole(auth.RoleAnalyst)}, mw...)...)
	g.POST("", h.AnalyseRaw)
	g.GET("/patients/:id", h.AnalysePatient)
	g.GET("/individual", h.AnalyseIndividual)
	g.GET("/companies/:company", h.AnalyseCompany)
	g.GET("/cities/:city", h.AnalyseCity)
	g.GET("/all", h.AnalyseAll)
}

// respond writes the classifier result, or the upstream failure with its
// own status code.
func respond(c echo.Context, resp Response, err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return c.JSON(upstream.StatusCode, map[string]string{
			"error":   "classifier request failed",
			"details": upstream.Body,
		})
	}
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) AnalyseRaw(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read payload")
	}
	resp, err := h.svc.AnalyseRaw(c.Request().Context(), json.RawMessage(body))
	return respond(c, resp, err)
}

func (h *Handler) AnalysePatient(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	resp, err := h.svc.AnalysePatient(c.Request().Context(), id)
	return respond(c, resp, err)
}

func (h *Handler) AnalyseIndividual(c echo.Context) error {
	resp, err := h.svc.AnalyseIndividual(c.Request().Context())
	return respond(c, resp, err)
}

func (h *Handler) AnalyseCompany(c echo.Context) error {
	resp, err := h.svc.AnalyseCompany(c.Request().Context(), c.Param("company"))
	return respond(c, resp, err)
}

func (h *Handler) AnalyseCity(c echo.Context) error {
	resp, err := h.svc.AnalyseCity(c.Request().Context(), c.Param("city"))
	return respond(c, resp, err)
}

func (h *Handler) AnalyseAll(c echo.Context) error {
	resp, err := h.svc.AnalyseAll(c.Request().Context())
	return respond(c, resp, err)
}
