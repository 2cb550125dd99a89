package summary

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/summaries", auth.RequireRole(auth.RoleDentist, auth.RoleReceptionist, auth.RoleAnalyst))
	g.GET("/patients/:id", h.Sheet)
	g.GET("/patients/:id/overview", h.Overview)
	g.GET("/individual", h.IndividualSheets)
	g.GET("/individual/overview", h.IndividualOverviews)
	g.GET("/companies/:company", h.SheetsByCompany)
	g.GET("/companies/:company/overview", h.OverviewsByCompany)
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Sheet(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sheet, err := h.svc.Sheet(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sheet)
}

func (h *Handler) Overview(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ov, err := h.svc.Overview(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ov)
}

func (h *Handler) IndividualSheets(c echo.Context) error {
	out, err := h.svc.IndividualSheets(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) IndividualOverviews(c echo.Context) error {
	out, err := h.svc.IndividualOverviews(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) SheetsByCompany(c echo.Context) error {
	out, err := h.svc.SheetsByCompany(c.Request().Context(), c.Param("company"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) OverviewsByCompany(c echo.Context) error {
	out, err := h.svc.OverviewsByCompany(c.Request().Context(), c.Param("company"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}
