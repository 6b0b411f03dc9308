package api

import (
	"net/http"
	"strings"

	service "github.com/okian/gradepulse/internal/app"
)

// Identity headers set by the fronting identity provider.
const (
	HeaderRole    = "X-Role"
	HeaderTeacher = "X-Teacher"
)

// scopeFromRequest builds the caller's scope from the identity headers.
// No role header means LEADER.
func scopeFromRequest(r *http.Request) (service.Scope, error) {
	const op = "api.scope"

	role, err := service.ParseRole(r.Header.Get(HeaderRole))
	if err != nil {
		return service.Scope{}, WrapKind(op, ErrBadRequest, err)
	}
	scope := service.Scope{Role: role, Teacher: strings.TrimSpace(r.Header.Get(HeaderTeacher))}
	if role == service.RoleTeacher && scope.Teacher == "" {
		return service.Scope{}, WrapKind(op, ErrBadRequest, service.ErrMissingTeacher)
	}
	return scope, nil
}
