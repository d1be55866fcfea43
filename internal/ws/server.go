package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/treepeck/forumws/internal/metrics"
	"github.com/treepeck/forumws/pkg/types"

	"github.com/gorilla/mux"
)

/*
Persister is the part of the persistence bridge used by the sessions.  Calls
may block until the store answers, but must not depend on the lifetime of the
calling connection.
*/
type Persister interface {
	CreatePost(ctx context.Context, topicID int64, content string,
		author *types.Identity, fallbackName string) (types.Post, error)
	CreateTopic(ctx context.Context, title, fallbackName string) (types.Topic, error)
	CountPosts(ctx context.Context, topicID int64) (int64, error)
}

/*
Server accepts WebSocket connections and attaches each of them to the session
of the requested room.
*/
type Server struct {
	registry *Registry
	store    Persister
	auth     Authenticator
	opts     Options
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewServer(
	registry *Registry,
	store Persister,
	auth Authenticator,
	opts Options,
	m *metrics.Metrics,
	log *slog.Logger,
) *Server {
	return &Server{
		registry: registry,
		store:    store,
		auth:     auth,
		opts:     opts,
		metrics:  m,
		log:      log,
	}
}

/*
Routes registers the WebSocket endpoints and the health check on r.
*/
func (s *Server) Routes(r *mux.Router) {
	wsr := r.PathPrefix("/ws").Subrouter()
	wsr.Use(Identify(s.auth))
	wsr.HandleFunc("/discussion/{topic_id:[0-9]+}/", s.handleDiscussion).Methods(http.MethodGet)
	wsr.HandleFunc("/discussion_list/", s.handleTopicList).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) handleDiscussion(rw http.ResponseWriter, r *http.Request) {
	topicID, err := strconv.ParseInt(mux.Vars(r)["topic_id"], 10, 64)
	if err != nil {
		http.Error(rw, "The requested topic not found.", http.StatusNotFound)
		return
	}
	s.accept(rw, r, newDiscussion(s, topicID))
}

func (s *Server) handleTopicList(rw http.ResponseWriter, r *http.Request) {
	s.accept(rw, r, newTopicList(s))
}

/*
accept upgrades the connection and serves it until it is closed.  Anonymous
callers are accepted as well.
*/
func (s *Server) accept(rw http.ResponseWriter, r *http.Request, sess session) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		s.log.Debug("cannot upgrade connection", "error", err)
		return
	}

	c := newClient(identityFrom(r.Context()), conn, s.opts)

	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	s.log.Info("client connected", "client", c.id, "room", sess.room(),
		"authenticated", c.identity.Authenticated())

	err = c.serve(sess)
	switch {
	case errors.Is(err, errInboundOverflow):
		s.log.Warn("client closed", "client", c.id,
			"room", sess.room(), "error", err)
		return
	case err != nil:
		s.log.Warn("cannot connect client", "client", c.id,
			"room", sess.room(), "error", err)
		return
	}

	s.log.Info("client disconnected", "client", c.id, "room", sess.room())
}

type health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(health{
		Status:      "ok",
		Connections: s.registry.Count(),
		Rooms:       s.registry.Rooms(),
	})
}
