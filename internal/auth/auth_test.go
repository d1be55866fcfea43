package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/treepeck/forumws/pkg/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestJWT_Parse(t *testing.T) {
	req := require.New(t)
	j := NewJWT("secret", discard)

	token, err := j.Issue(7, "dana42", "Dana", time.Hour)
	req.NoError(err)

	id, err := j.Parse(token)
	req.NoError(err)
	req.Equal(types.Identity{ID: 7, Name: "Dana"}, id)

	// Falls back to the username without a first name.
	token, err = j.Issue(8, "sam", "", time.Hour)
	req.NoError(err)
	id, err = j.Parse(token)
	req.NoError(err)
	req.Equal("sam", id.Name)

	// A user without any name is named Anonymous.
	token, err = j.Issue(9, " ", "", time.Hour)
	req.NoError(err)
	id, err = j.Parse(token)
	req.NoError(err)
	req.Equal(types.Identity{ID: 9, Name: types.AnonymousName}, id)
}

func TestJWT_ParseRejects(t *testing.T) {
	j := NewJWT("secret", discard)

	expired, err := j.Issue(7, "dana42", "Dana", -time.Minute)
	require.NoError(t, err)

	forged, err := NewJWT("other", discard).Issue(7, "dana42", "Dana", time.Hour)
	require.NoError(t, err)

	anonymous, err := j.Issue(0, "ghost", "", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", forged},
		{"missing user id", anonymous},
		{"unsigned", none},
		{"garbage", "not.a.token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := j.Parse(tc.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWT_Authenticate(t *testing.T) {
	req := require.New(t)
	j := NewJWT("secret", discard)
	token, err := j.Issue(7, "dana42", "Dana", time.Hour)
	req.NoError(err)

	r := httptest.NewRequest(http.MethodGet, "/ws/discussion/3/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	req.Equal(int64(7), j.Authenticate(r).ID)

	r = httptest.NewRequest(http.MethodGet, "/ws/discussion/3/?token="+token, nil)
	req.Equal(int64(7), j.Authenticate(r).ID)

	// Invalid credentials never reject the caller.
	r = httptest.NewRequest(http.MethodGet, "/ws/discussion/3/?token=bogus", nil)
	req.False(j.Authenticate(r).Authenticated())

	r = httptest.NewRequest(http.MethodGet, "/ws/discussion/3/", nil)
	req.False(j.Authenticate(r).Authenticated())
}

func newIdentityService(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		switch string(raw) {
		case "session-7":
			rw.Write([]byte(`{"id":7,"name":"Dana"}`))
		case "nameless":
			rw.Write([]byte(`{"id":8,"name":"  "}`))
		case "broken":
			rw.Write([]byte(`{"id":`))
		default:
			http.Error(rw, "unknown session", http.StatusUnauthorized)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRemote_Authenticate(t *testing.T) {
	ts := newIdentityService(t)
	a := NewRemote(ts.URL, discard)

	tests := []struct {
		name   string
		cookie string
		bearer string
		want   types.Identity
	}{
		{name: "cookie", cookie: "session-7", want: types.Identity{ID: 7, Name: "Dana"}},
		{name: "bearer", bearer: "session-7", want: types.Identity{ID: 7, Name: "Dana"}},
		{name: "nameless user", cookie: "nameless", want: types.Identity{ID: 8, Name: types.AnonymousName}},
		{name: "unknown session", cookie: "session-8"},
		{name: "broken reply", cookie: "broken"},
		{name: "no credential"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws/discussion_list/", nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "Auth", Value: tc.cookie})
			}
			if tc.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			require.Equal(t, tc.want, a.Authenticate(r))
		})
	}
}

func TestRemote_ServiceDown(t *testing.T) {
	ts := newIdentityService(t)
	url := ts.URL
	ts.Close()

	r := httptest.NewRequest(http.MethodGet, "/ws/discussion_list/", nil)
	r.AddCookie(&http.Cookie{Name: "Auth", Value: "session-7"})
	require.False(t, NewRemote(url, discard).Authenticate(r).Authenticated())
}

func TestChain_FirstAuthenticatedWins(t *testing.T) {
	req := require.New(t)
	j := NewJWT("secret", discard)
	token, err := j.Issue(9, "lee", "Lee", time.Hour)
	req.NoError(err)

	ts := newIdentityService(t)
	c := Chain{j, NewRemote(ts.URL, discard)}

	// Only the remote service knows the cookie.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "Auth", Value: "session-7"})
	req.Equal(int64(7), c.Authenticate(r).ID)

	// The token is resolved first.
	r = httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
	r.AddCookie(&http.Cookie{Name: "Auth", Value: "session-7"})
	req.Equal(int64(9), c.Authenticate(r).ID)

	req.False(Chain{}.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil)).Authenticated())
}
