package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/treepeck/forumws/pkg/types"

	"github.com/samber/lo"
)

const remoteTimeout = 5 * time.Second

/*
Remote authenticates callers by an external identity service.

It reads the session from the Auth cookie, or the bearer token when there is
no cookie, and sends it to the service in the request body.  The service
replies 200 with {"id": ..., "name": ...} for a known caller.  A caller without
a name is named Anonymous.
*/
type Remote struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewRemote(url string, log *slog.Logger) *Remote {
	return &Remote{
		url:    url,
		client: &http.Client{Timeout: remoteTimeout},
		log:    log,
	}
}

type remoteIdentity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (a *Remote) Authenticate(r *http.Request) types.Identity {
	var credential string
	if session, err := r.Cookie("Auth"); err == nil {
		credential = session.Value
	} else {
		credential = bearerToken(r)
	}
	if credential == "" {
		return types.Identity{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url,
		bytes.NewReader([]byte(credential)))
	if err != nil {
		a.log.Warn("cannot build identity request", "error", err)
		return types.Identity{}
	}

	res, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("identity service is down or busy", "error", err)
		return types.Identity{}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		a.log.Debug("session rejected", "status", res.StatusCode)
		return types.Identity{}
	}

	var id remoteIdentity
	if err := json.NewDecoder(res.Body).Decode(&id); err != nil {
		a.log.Warn("cannot decode identity", "error", err)
		return types.Identity{}
	}
	return types.Identity{
		ID:   id.ID,
		Name: lo.CoalesceOrEmpty(strings.TrimSpace(id.Name), types.AnonymousName),
	}
}
