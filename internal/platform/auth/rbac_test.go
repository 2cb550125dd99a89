package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func callWithRoles(roles []string, mw echo.MiddlewareFunc) (bool, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", roles))
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func TestRequireRole_Allowed(t *testing.T) {
	called, err := callWithRoles([]string{RoleReceptionist}, RequireRole(RoleDentist, RoleReceptionist))
	if err != nil || !called {
		t.Errorf("expected access, err=%v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	called, err := callWithRoles([]string{RoleAnalyst}, RequireRole(RoleReceptionist))
	if called {
		t.Error("handler should not run")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	called, err := callWithRoles([]string{RoleAdmin}, RequireRole(RoleDentist))
	if err != nil || !called {
		t.Errorf("expected admin access, err=%v", err)
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	called, _ := callWithRoles(nil, RequireRole(RoleDentist))
	if called {
		t.Error("handler should not run without roles")
	}
}
