package ws

import (
	"context"
	"net/http"

	"github.com/treepeck/forumws/pkg/types"

	"github.com/gorilla/websocket"
)

/*
upgrader is used to establish a WebSocket connection.  It is safe for concurrent
use.
*/
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

/*
Authenticator resolves the caller identity from the handshake request.  It
never rejects a caller: any failure yields the anonymous identity.
*/
type Authenticator interface {
	Authenticate(r *http.Request) types.Identity
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) types.Identity

func (f AuthenticatorFunc) Authenticate(r *http.Request) types.Identity {
	return f(r)
}

// ctxKey is used as a context type which provides the caller identity.
type ctxKey string

const identityKey ctxKey = "identity"

/*
Identify is a middleware that resolves the caller identity and passes it to the
next handler through the request context.  Unlike a gate, it lets anonymous
callers through: permissions are checked per frame.
*/
func Identify(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			id := a.Authenticate(r)
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// identityFrom returns the identity stored by Identify, anonymous if none.
func identityFrom(ctx context.Context) types.Identity {
	id, _ := ctx.Value(identityKey).(types.Identity)
	return id
}
