// Package log writes one JSON object per line through the standard logger.
// Request-scoped lines carry the request id, client address, route, status
// and, once authenticated, the caller's identity.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
)

// IdentityKey is the fiber Locals key holding the authenticated domain.Identity.
const IdentityKey = "identity"

type level string

const (
	levelInfo  level = "info"
	levelAudit level = "audit"
	levelWarn  level = "warn"
	levelError level = "error"
)

type line struct {
	TS     string         `json:"ts"`
	Level  level          `json:"level"`
	Action string         `json:"action,omitempty"`
	ReqID  string         `json:"req_id,omitempty"`
	IP     string         `json:"ip,omitempty"`
	Method string         `json:"method,omitempty"`
	Path   string         `json:"path,omitempty"`
	Status int            `json:"status,omitempty"`
	UserID int64          `json:"user_id,omitempty"`
	Role   string         `json:"role,omitempty"`
	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// request copies what is known about the current request onto l.
func (l *line) request(c *fiber.Ctx) {
	l.IP, l.Method, l.Path = c.IP(), c.Method(), c.Path()
	l.Status = c.Response().StatusCode()
	l.ReqID, _ = c.Locals("requestid").(string)
	if id, ok := c.Locals(IdentityKey).(domain.Identity); ok {
		l.UserID, l.Role = id.UserID, id.Role
	}
}

func emit(lv level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := line{TS: time.Now().UTC().Format(time.RFC3339), Level: lv, Action: action, Fields: fields}
	if c != nil {
		l.request(c)
	}
	if err != nil {
		l.Err = err.Error()
	}
	b, mErr := json.Marshal(l)
	if mErr != nil {
		// unmarshalable field values; keep the line, drop the fields
		l.Fields = map[string]any{"marshal_error": mErr.Error()}
		b, _ = json.Marshal(l)
	}
	log.Println(string(b))
}

// Info records routine events. c may be nil outside a request.
func Info(c *fiber.Ctx, action string, fields map[string]any) { emit(levelInfo, c, action, nil, fields) }

// Audit records state changes made on behalf of a user.
func Audit(c *fiber.Ctx, action string, fields map[string]any) { emit(levelAudit, c, action, nil, fields) }

// Security records refused or suspicious requests.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelError, c, action, err, fields)
}
