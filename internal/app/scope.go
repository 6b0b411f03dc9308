package service

import (
	"fmt"
	"strings"

	"github.com/okian/gradepulse/internal/adapters/repository"
)

// Role decides which uploads a caller may see.
type Role string

// Known roles.
const (
	RoleTeacher Role = "TEACHER"
	RoleLeader  Role = "LEADER"
)

// ParseRole accepts a role name in any case. An empty string is RoleLeader.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleLeader, "":
		return RoleLeader, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Scope identifies the caller of a read operation. The zero value sees
// everything.
type Scope struct {
	Role    Role
	Teacher string
}

// All is the unrestricted scope.
var All = Scope{Role: RoleLeader}

// Restrict narrows f to what the scope may see. A teacher scope pins the
// teacher name; visible is false when f asks for another teacher's uploads.
func (s Scope) Restrict(f repository.Filter) (restricted repository.Filter, visible bool, err error) {
	if s.Role != RoleTeacher {
		return f, true, nil
	}
	name := strings.TrimSpace(s.Teacher)
	if name == "" {
		return repository.Filter{}, false, ErrMissingTeacher
	}
	if f.TeacherName != "" && f.TeacherName != name {
		return f, false, nil
	}
	f.TeacherName = name
	return f, true, nil
}

// Unrestricted reports whether the scope sees every upload.
func (s Scope) Unrestricted() bool {
	return s.Role != RoleTeacher
}
