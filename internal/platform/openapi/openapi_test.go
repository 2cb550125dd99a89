package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func noop(c echo.Context) error { return nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1")
	api.GET("/patients", noop)
	api.POST("/patients", noop)
	api.GET("/patients/:id", noop)
	api.DELETE("/patients/:id", noop)
	api.GET("/analysis/companies/:company", noop)
	api.GET("/alerts/trending-to-excess", noop)
	e.GET("/health", noop)
	return e
}

func TestGenerateSpec_Structure(t *testing.T) {
	e := newTestEcho()
	spec := NewGenerator(e, "/api/v1", "1.0.0", "http://localhost:8000").GenerateSpec()

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected openapi '3.0.3', got %v", spec["openapi"])
	}
	info, ok := spec["info"].(map[string]interface{})
	if !ok || info["title"] != "SmartDent API" || info["version"] != "1.0.0" {
		t.Errorf("unexpected info: %v", spec["info"])
	}

	paths := spec["paths"].(map[string]map[string]interface{})
	if _, ok := paths["/health"]; ok {
		t.Error("routes outside the prefix must be skipped")
	}
	item, ok := paths["/api/v1/patients/{id}"]
	if !ok {
		t.Fatalf("expected converted path, got %v", keys(paths))
	}
	if _, ok := item["get"]; !ok {
		t.Error("expected GET operation")
	}
	if _, ok := item["delete"]; !ok {
		t.Error("expected DELETE operation")
	}

	get := item["get"].(map[string]interface{})
	params := get["parameters"].([]map[string]interface{})
	if len(params) != 1 || params[0]["name"] != "id" || params[0]["in"] != "path" {
		t.Errorf("unexpected parameters: %v", params)
	}
	if get["operationId"] != "getPatientsId" {
		t.Errorf("unexpected operationId: %v", get["operationId"])
	}

	post := paths["/api/v1/patients"]["post"].(map[string]interface{})
	if _, ok := post["requestBody"]; !ok {
		t.Error("expected request body on POST")
	}
	if _, ok := post["responses"].(map[string]interface{})["201"]; !ok {
		t.Error("expected 201 response on POST")
	}

	trend := paths["/api/v1/alerts/trending-to-excess"]["get"].(map[string]interface{})
	if trend["operationId"] != "getAlertsTrendingToExcess" {
		t.Errorf("unexpected operationId: %v", trend["operationId"])
	}
}

func TestGenerateSpec_Tags(t *testing.T) {
	spec := NewGenerator(newTestEcho(), "/api/v1", "1.0.0", "").GenerateSpec()
	tags := spec["tags"].([]map[string]string)
	var names []string
	for _, tg := range tags {
		names = append(names, tg["name"])
	}
	if strings.Join(names, ",") != "alerts,analysis,patients" {
		t.Errorf("unexpected tags: %v", names)
	}
}

func TestRegisterRoutes(t *testing.T) {
	e := newTestEcho()
	NewGenerator(e, "/api/v1", "1.0.0", "").RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Errorf("expected swagger page, got %d", rec.Code)
	}
}

func keys(m map[string]map[string]interface{}) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
