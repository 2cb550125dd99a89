package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartdent/smartdent/internal/platform/auth"
)

// AuditEntry records who touched which patient data and how.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  int
	Action     string // read, create, update, delete
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditSink receives entries in addition to the structured log line.
type AuditSink interface {
	RecordAccess(entry AuditEntry) error
}

type AuditSinkFunc func(entry AuditEntry) error

func (f AuditSinkFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 request after it completes. The patient id is
// taken from /patients/:id paths or a patient_id query parameter.
func Audit(logger zerolog.Logger, sinks ...AuditSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, apiPrefix) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			switch {
			case errors.As(err, &he):
				status = he.Code
			case err != nil:
				status = http.StatusInternalServerError
			}
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				UserRoles:  auth.RolesFromContext(req.Context()),
				Resource:   resourceOf(path),
				PatientID:  patientIDOf(c),
				Action:     actionOf(req.Method),
				Method:     req.Method,
				Path:       path,
				IPAddress:  c.RealIP(),
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, sink := range sinks {
				if sinkErr := sink.RecordAccess(entry); sinkErr != nil {
					logger.Error().Err(sinkErr).Str("request_id", entry.RequestID).Msg("audit sink failed")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Int("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("data_access")

			return err
		}
	}
}

const apiPrefix = "/api/v1/"

func actionOf(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf returns the first path segment after /api/v1/.
func resourceOf(path string) string {
	rest := strings.TrimPrefix(path, apiPrefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}

func patientIDOf(c echo.Context) int {
	path := c.Request().URL.Path
	for _, prefix := range []string{apiPrefix + "patients/", apiPrefix + "summaries/patients/", apiPrefix + "analysis/patients/"} {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		seg := strings.TrimPrefix(path, prefix)
		if i := strings.IndexByte(seg, '/'); i >= 0 {
			seg = seg[:i]
		}
		if id, err := strconv.Atoi(seg); err == nil && id > 0 {
			return id
		}
	}
	if id, err := strconv.Atoi(c.QueryParam("patient_id")); err == nil && id > 0 {
		return id
	}
	return 0
}
