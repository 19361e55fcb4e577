package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campanile/api/internal/attendance"
	"campanile/api/internal/authz"
	"campanile/api/internal/config"
	"campanile/api/internal/identity"
	"campanile/api/internal/model"
	"campanile/api/internal/session"
	"campanile/api/internal/token"
)

const sessionCookieName = "session_id"

type Server struct {
	cfg        config.Config
	sessions   *session.Manager
	tokens     *token.Manager
	exceptions attendance.Source
}

func NewServer(cfg config.Config, sessions *session.Manager, tokens *token.Manager, exceptions attendance.Source) *Server {
	return &Server{
		cfg:        cfg,
		sessions:   sessions,
		tokens:     tokens,
		exceptions: exceptions,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/token", s.handleIssueToken)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.With(s.authMiddleware).Get("/student/{studentEmail}/attendance", s.handleGetAttendance)
	r.With(s.authMiddleware).Post("/attendance", s.handleCreateAttendance)

	return r
}

// Auth

type identityKey struct{}

// authMiddleware resolves either credential kind: a bearer token, or
// the session cookie. Every auth failure collapses into one 401 so
// callers cannot tell expired sessions, bad signatures, and deleted
// accounts apart.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, err := s.resolveIdentity(r)
		if err != nil {
			// Storage outages are hard failures, not auth failures.
			if !errors.Is(err, identity.ErrNotAuthenticated) && !errors.Is(err, identity.ErrMalformedToken) {
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
			writeError(w, http.StatusUnauthorized, "not_authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, resolved)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveIdentity(r *http.Request) (*identity.Identity, error) {
	if bearer := bearerToken(r.Header.Get("Authorization")); bearer != "" {
		resolved, err := s.tokens.Resolve(r.Context(), bearer)
		if err != nil {
			return nil, err
		}
		return &resolved, nil
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		resolved, err := s.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			return nil, err
		}
		return &resolved, nil
	}
	return nil, identity.ErrNotAuthenticated
}

func identityFromContext(ctx context.Context) *identity.Identity {
	value := ctx.Value(identityKey{})
	resolved, _ := value.(*identity.Identity)
	return resolved
}

// Models

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identitySummary struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type loginResponse struct {
	SessionID string          `json:"sessionId"`
	ExpiresAt int64           `json:"expiresAt"`
	User      identitySummary `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type attendanceRangeResponse struct {
	Kind        string `json:"kind"`
	From        string `json:"from"`
	To          string `json:"to"`
	Description string `json:"description"`
	Justified   bool   `json:"justified"`
	Author      string `json:"author"`
	Student     string `json:"student"`
}

type createAttendanceRequest struct {
	Kind        string `json:"kind"`
	Day         string `json:"day"`
	Description string `json:"description"`
	Justified   bool   `json:"justified"`
	Student     string `json:"student"`
}

// Handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	created, err := s.sessions.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown account and wrong password are deliberately one
		// outcome at this boundary.
		if errors.Is(err, identity.ErrAccountNotFound) || errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    created.ID,
		Path:     "/",
		Expires:  created.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		SessionID: created.ID,
		ExpiresAt: created.ExpiresAt.Unix(),
		User: identitySummary{
			Email: created.Email,
			Type:  string(created.Type),
		},
	})
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	value, err := s.tokens.Issue(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) || errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: value})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	who := identityFromContext(r.Context())
	if who == nil {
		writeError(w, http.StatusUnauthorized, "not_authenticated")
		return
	}
	writeJSON(w, http.StatusOK, identitySummary{
		Email: who.Email,
		Type:  string(who.Type),
	})
}

var attendanceReadPolicy = authz.Policy{
	Allowed:   []model.AccountType{model.AccountAdmin, model.AccountTeacher, model.AccountStudent},
	OwnerOnly: []model.AccountType{model.AccountStudent},
}

var attendanceWritePolicy = authz.Policy{
	Allowed: []model.AccountType{model.AccountAdmin, model.AccountTeacher},
}

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	who := identityFromContext(r.Context())
	studentEmail := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "studentEmail")))

	if err := authz.Authorize(who, authz.Resource{Kind: "student", OwnerEmail: studentEmail}, attendanceReadPolicy); err != nil {
		writeAuthzError(w, err)
		return
	}

	rows, err := s.exceptions.ListByStudent(r.Context(), studentEmail)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	ranges := attendance.Consolidate(rows)
	out := make([]attendanceRangeResponse, len(ranges))
	for i, rng := range ranges {
		out[i] = attendanceRangeResponse{
			Kind:        string(rng.Kind),
			From:        rng.From.Format("2006-01-02"),
			To:          rng.To.Format("2006-01-02"),
			Description: rng.Description,
			Justified:   rng.Justified,
			Author:      rng.AuthorEmail,
			Student:     rng.StudentEmail,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAttendance(w http.ResponseWriter, r *http.Request) {
	who := identityFromContext(r.Context())
	if err := authz.Authorize(who, authz.Resource{Kind: "attendance"}, attendanceWritePolicy); err != nil {
		writeAuthzError(w, err)
		return
	}

	var req createAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	kind := model.ExceptionKind(req.Kind)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_kind")
		return
	}
	day, err := time.Parse("2006-01-02", req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_day")
		return
	}
	student := strings.TrimSpace(strings.ToLower(req.Student))
	if student == "" {
		writeError(w, http.StatusBadRequest, "missing_student")
		return
	}

	created, err := s.exceptions.Create(r.Context(), model.AttendanceException{
		Kind:         kind,
		Day:          day,
		Description:  req.Description,
		Justified:    req.Justified,
		AuthorEmail:  who.Email,
		StudentEmail: student,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": created.ID})
}

// Helpers

func writeAuthzError(w http.ResponseWriter, err error) {
	if errors.Is(err, identity.ErrForbidden) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeError(w, http.StatusUnauthorized, "not_authenticated")
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
