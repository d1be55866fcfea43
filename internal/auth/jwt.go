package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/treepeck/forumws/pkg/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
)

// Claims defines the data stored inside the token.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	jwt.RegisteredClaims
}

// JWT authenticates callers by an HS256 signed token.
type JWT struct {
	secret []byte
	log    *slog.Logger
}

func NewJWT(secret string, log *slog.Logger) *JWT {
	return &JWT{secret: []byte(secret), log: log}
}

func (j *JWT) Authenticate(r *http.Request) types.Identity {
	token := bearerToken(r)
	if token == "" {
		return types.Identity{}
	}

	id, err := j.Parse(token)
	if err != nil {
		j.log.Debug("token rejected", "error", err)
		return types.Identity{}
	}
	return id
}

/*
Parse validates the signature and the expiration of the token and returns the
identity it carries.  The display name is the first name, or the username when
the first name is blank.
*/
func (j *JWT) Parse(token string) (types.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.UserID == 0 {
		return types.Identity{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return types.Identity{
		ID:   claims.UserID,
		Name: lo.CoalesceOrEmpty(
			strings.TrimSpace(claims.FirstName),
			strings.TrimSpace(claims.Username),
			types.AnonymousName,
		),
	}, nil
}

// Issue creates a signed token for the specified user.
func (j *JWT) Issue(userID int64, username, firstName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
