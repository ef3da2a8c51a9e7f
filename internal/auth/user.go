package auth

import (
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// Identity headers are set by the gateway after the session token has been
// verified. Services never read tokens themselves.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

type User struct {
	ID    string
	Email string
	Role  string
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func UserFromRequest(r *http.Request) (User, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return User{}, domain.ErrUnauthenticated
	}
	return User{
		ID:    id,
		Email: r.Header.Get(HeaderUserEmail),
		Role:  r.Header.Get(HeaderUserRole),
	}, nil
}

// SetIdentity replaces any identity headers on h with the given user.
func SetIdentity(h http.Header, u User) {
	StripIdentity(h)
	h.Set(HeaderUserID, u.ID)
	if u.Email != "" {
		h.Set(HeaderUserEmail, u.Email)
	}
	if u.Role != "" {
		h.Set(HeaderUserRole, u.Role)
	}
}

func StripIdentity(h http.Header) {
	h.Del(HeaderUserID)
	h.Del(HeaderUserEmail)
	h.Del(HeaderUserRole)
}
