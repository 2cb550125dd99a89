// Package openapi describes the registered HTTP routes as an OpenAPI 3.0
// document and serves a Swagger UI page for it.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteSource is satisfied by *echo.Echo.
type RouteSource interface {
	Routes() []*echo.Route
}

// Generator builds the document from the routes registered under prefix.
type Generator struct {
	routes  RouteSource
	prefix  string
	version string
	baseURL string
}

func NewGenerator(routes RouteSource, prefix, version, baseURL string) *Generator {
	return &Generator{routes: routes, prefix: prefix, version: version, baseURL: baseURL}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map. Echo's ":param"
// segments become "{param}" path parameters.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	tags := make(map[string]bool)

	for _, r := range g.routes.Routes() {
		if !strings.HasPrefix(r.Path, g.prefix) || strings.HasSuffix(r.Path, "*") {
			continue
		}
		method := strings.ToLower(r.Method)
		if !knownMethods[method] {
			continue
		}
		path, params := convertPath(r.Path)
		tag := tagOf(strings.TrimPrefix(r.Path, g.prefix))
		tags[tag] = true

		op := map[string]interface{}{
			"operationId": operationID(r.Method, path),
			"tags":        []string{tag},
			"responses":   responsesFor(r.Method),
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if method == "post" || method == "put" {
			op["requestBody"] = map[string]interface{}{
				"required": true,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}

		if paths[path] == nil {
			paths[path] = make(map[string]interface{})
		}
		paths[path][method] = op
	}

	tagList := make([]map[string]string, 0, len(tags))
	for _, name := range sortedKeys(tags) {
		tagList = append(tagList, map[string]string{"name": name})
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "SmartDent API",
			"version":     g.version,
			"description": "Dental clinic patients, visits, billing and usage-risk alerts",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"tags":  tagList,
		"paths": paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
			"schemas": map[string]interface{}{
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"message": map[string]string{"type": "string"},
					},
				},
			},
		},
		"security": []map[string][]string{{"bearerAuth": {}}},
	}
}

var knownMethods = map[string]bool{"get": true, "post": true, "put": true, "delete": true, "patch": true}

func convertPath(p string) (string, []map[string]interface{}) {
	segs := strings.Split(p, "/")
	var params []map[string]interface{}
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		name := s[1:]
		segs[i] = "{" + name + "}"
		schema := map[string]string{"type": "string"}
		if name == "id" {
			schema = map[string]string{"type": "integer"}
		}
		params = append(params, map[string]interface{}{
			"name": name, "in": "path", "required": true, "schema": schema,
		})
	}
	return strings.Join(segs, "/"), params
}

// tagOf groups by the first path segment, e.g. "/patients/:id" -> "patients".
func tagOf(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		rel = rel[:i]
	}
	if rel == "" {
		return "root"
	}
	return rel
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, s := range strings.Split(path, "/") {
		s = strings.Trim(s, "{}")
		if s == "" || s == "api" || s == "v1" {
			continue
		}
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' }) {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}

func responsesFor(method string) map[string]interface{} {
	errRef := map[string]interface{}{
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	withDesc := func(desc string) map[string]interface{} {
		out := map[string]interface{}{"description": desc}
		for k, v := range errRef {
			out[k] = v
		}
		return out
	}

	resp := map[string]interface{}{
		"400": withDesc("Invalid request"),
		"401": withDesc("Missing or invalid token"),
		"403": withDesc("Role not allowed"),
		"404": withDesc("Not found"),
	}
	switch method {
	case http.MethodPost:
		resp["201"] = map[string]interface{}{"description": "Created"}
		resp["409"] = withDesc("Conflict")
	case http.MethodDelete:
		resp["204"] = map[string]interface{}{"description": "Deleted"}
	default:
		resp["200"] = map[string]interface{}{"description": "Success"}
	}
	return resp
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>SmartDent API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes serves /openapi.json and /docs on e.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	e.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
