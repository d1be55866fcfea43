/*
Package auth resolves the caller identity from the WebSocket handshake request.

Every authenticator is lenient: a missing, malformed or rejected credential
yields the anonymous identity instead of an error, since anonymous callers are
allowed to connect.
*/
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/treepeck/forumws/pkg/types"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator resolves the identity of the handshake request.
type Authenticator interface {
	Authenticate(r *http.Request) types.Identity
}

/*
Chain asks each authenticator in order and returns the first authenticated
identity.  An empty chain resolves every caller as anonymous.
*/
type Chain []Authenticator

func (c Chain) Authenticate(r *http.Request) types.Identity {
	for _, a := range c {
		if id := a.Authenticate(r); id.Authenticated() {
			return id
		}
	}
	return types.Identity{}
}

/*
bearerToken extracts the token from the "Authorization: Bearer" header or, as
browsers cannot set headers on WebSocket handshakes, from the "token" query
parameter.
*/
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}
