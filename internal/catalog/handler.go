package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartdent/smartdent/internal/platform/auth"
)

type Handler struct {
	cat *Catalog
}

func NewHandler(cat *Catalog) *Handler {
	return &Handler{cat: cat}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/catalog", auth.RequireRole(auth.RoleDentist, auth.RoleReceptionist, auth.RoleAnalyst))
	g.GET("/plans", h.Plans)
	g.GET("/procedures", h.Procedures)
}

type procedureView struct {
	Name string `json:"procedure_type"`
	Cost string `json:"cost"`
}

type categoryView struct {
	Name       string          `json:"category"`
	Procedures []procedureView `json:"procedures"`
}

func (h *Handler) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cat.PlanGroups())
}

// Procedures lists every procedure type by category with its cost formatted
// as currency.
func (h *Handler) Procedures(c echo.Context) error {
	cats := h.cat.ProcedureCategories()
	out := make([]categoryView, 0, len(cats))
	for _, cat := range cats {
		v := categoryView{Name: cat.Name, Procedures: make([]procedureView, 0, len(cat.Procedures))}
		for _, p := range cat.Procedures {
			v.Procedures = append(v.Procedures, procedureView{Name: p.Name, Cost: p.Cost.BRL()})
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, out)
}
