package alert

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
	read := api.Group("", auth.RequireRole(auth.RoleDentist, auth.RoleAnalyst))
	read.GET("/alerts", h.List)
	read.GET("/alerts/excessive-use", h.ListExcessiveUse)
	read.GET("/alerts/trending-to-excess", h.ListTrendingToExcess)
	read.GET("/alerts/:id", h.Get)
	read.GET("/patients/:id/alerts", h.ListByPatient)

	write := api.Group("", auth.RequireRole(auth.RoleAnalyst))
	write.POST("/alerts", h.Create)
	write.PUT("/alerts/:id", h.Update)
	write.DELETE("/alerts/:id", h.Delete)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/alerts", h.DeleteAll)
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func views(items []*Alert) []View {
	out := make([]View, 0, len(items))
	for _, a := range items {
		out = append(out, a.View())
	}
	return out
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a.View())
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a.View())
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, views(items))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, views(items))
}

func (h *Handler) ListExcessiveUse(c echo.Context) error {
	items, err := h.svc.ListExcessiveUse(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, views(items))
}

func (h *Handler) ListTrendingToExcess(c echo.Context) error {
	items, err := h.svc.ListTrendingToExcess(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, views(items))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a.View())
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAll(c echo.Context) error {
	n, err := h.svc.DeleteAll(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}
