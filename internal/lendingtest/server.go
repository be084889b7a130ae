// Package lendingtest runs an in-memory BookBank server for tests. It answers
// with the same envelopes as the real server, legacy ones included.
package lendingtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"bookbank/internal/lending"

	"github.com/go-chi/chi/v5"
)

// Call is one request the server received.
type Call struct {
	Method      string
	Path        string
	ContentType string
	Form        map[string]string
}

type canned struct {
	status int
	body   string
}

// Server is a running fake server.
type Server struct {
	*httptest.Server
	Store *Store

	mu             sync.Mutex
	user           string
	requireSession bool
	calls          []Call
	canned         map[string]canned
	faults         map[string]Fault
}

// NewServer starts a server acting on behalf of user.
func NewServer(user string) *Server {
	s := &Server{
		Store:  NewStore(),
		user:   user,
		canned: make(map[string]canned),
		faults: make(map[string]Fault),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// SetUser changes the user the server believes it is talking to.
func (s *Server) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// RequireSession makes every API call answer 401 unless it carries the
// session cookie handed out by /login.
func (s *Server) RequireSession(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireSession = on
}

// Respond makes method+path answer with a fixed status and raw body.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[method+" "+path] = canned{status: status, body: body}
}

// Calls returns every request received so far, /login excluded.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts received requests matching method and path.
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/login", s.handleLogin)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("index")) })

	r.Group(func(r chi.Router) {
		r.Use(s.record)
		r.Get("/api/books", s.handleListBooks)
		r.Post("/api/books", s.handleAddBook)
		r.Delete("/api/book/{id}", s.handleDeleteBook)
		r.Post("/request_book/{id}", s.handleRequestBook)
		r.Delete("/request/{id}", s.handleDeleteRequest)
		r.Post("/request/{id}/accept", s.handleTransition(lending.StatusAccepted, true))
		r.Post("/request/{id}/reject", s.handleTransition(lending.StatusRejected, true))
		r.Post("/request/{id}/initiate_return", s.handleTransition(lending.StatusReturnInitiated, false))
		r.Post("/request/{id}/complete", s.handleTransition(lending.StatusCompleted, false))
		r.Post("/request/{id}/transfer_ownership", s.handleTransferOwnership)
		r.Get("/request/{id}/chat", s.handleListChat)
		r.Post("/request/{id}/chat", s.handleSendChat)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}
		if strings.HasPrefix(call.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				call.Form = flatten(r.MultipartForm.Value)
			}
		} else if strings.HasPrefix(call.ContentType, "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err == nil {
				call.Form = flatten(r.PostForm)
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		reply, hasCanned := s.canned[r.Method+" "+r.URL.Path]
		fault, hasFault := s.faults[r.Method+" "+r.URL.Path]
		needSession := s.requireSession
		s.mu.Unlock()

		if hasFault && fault.apply(w, r) {
			return
		}
		if hasCanned {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(reply.status)
			w.Write([]byte(reply.body))
			return
		}
		if needSession {
			if c, err := r.Cookie(lendingSessionCookie); err != nil || c.Value == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "Please log in"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

const lendingSessionCookie = "session"

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func (s *Server) currentUser(r *http.Request) string {
	if c, err := r.Cookie(lendingSessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	if !s.Store.checkPassword(username, r.PostForm.Get("password")) {
		w.Write([]byte("Invalid credentials"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: lendingSessionCookie, Value: username, Path: "/"})
	http.Redirect(w, r, "/", http.StatusFound)
}
