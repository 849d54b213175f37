package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/logging"
	"saas-starter-billing/internal/infra/metrics"
	red "saas-starter-billing/internal/infra/redis"
	"saas-starter-billing/internal/usecase"
)

const maxFormBody = 16 << 10

type signInResponse struct {
	Status   model.SignInStatus `json:"status"`
	Redirect string             `json:"redirect,omitempty"`
	Toast    *model.Toast       `json:"toast,omitempty"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type toastResponse struct {
	Error string      `json:"error"`
	Toast model.Toast `json:"toast"`
}

type sessionResponse struct {
	UserID       string  `json:"userId"`
	Email        string  `json:"email"`
	FirstName    string  `json:"firstName,omitempty"`
	LastName     string  `json:"lastName,omitempty"`
	Subscription *string `json:"subscription"`
	ExpiresAt    string  `json:"expiresAt,omitempty"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	if !s.allow(r) {
		metrics.IncSignIn("rate_limited")
		writeJSON(w, http.StatusTooManyRequests, toastResponse{
			Error: domain.ErrRateLimited.Error(),
			Toast: model.Toast{Variant: "destructive", Title: "Error", Description: "Too many attempts. Please try again later."},
		})
		return
	}

	form, err := decodeSignInForm(w, r)
	if err != nil {
		metrics.IncSignIn("invalid")
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	out, err := s.signIn.SignIn(ctx, form)
	if err != nil {
		var verr *usecase.ValidationError
		var serr *usecase.SignInError
		switch {
		case errors.As(err, &verr):
			metrics.IncSignIn("invalid")
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Fields: verr.Fields})
		case errors.As(err, &serr):
			metrics.IncSignIn("refused")
			status := http.StatusUnauthorized
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				status = http.StatusBadGateway
			}
			writeJSON(w, status, toastResponse{Error: "sign-in failed", Toast: serr.Toast})
		default:
			metrics.IncSignIn("refused")
			l.Error().Err(err).Msg("sign-in failed")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		}
		return
	}

	if !out.Complete() {
		metrics.IncSignIn("incomplete")
		writeJSON(w, http.StatusAccepted, signInResponse{Status: out.Status})
		return
	}

	ps := ProviderSession{ID: out.SessionID, ClientToken: out.ClientToken}
	if _, err := s.sessions.Mint(w, out.UserID, out.Email, ps); err != nil {
		l.Error().Err(err).Msg("session mint failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	metrics.IncSignIn("complete")
	writeJSON(w, http.StatusOK, signInResponse{Status: out.Status, Redirect: out.Redirect, Toast: out.Toast})
}

// decodeSignInForm accepts JSON, a urlencoded form or a multipart form.
func decodeSignInForm(w http.ResponseWriter, r *http.Request) (usecase.SignInForm, error) {
	var form usecase.SignInForm
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return form, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBody); err != nil {
			return form, err
		}
	default:
		err := json.NewDecoder(r.Body).Decode(&form)
		return form, err
	}
	form.Email = r.PostForm.Get("email")
	form.Password = r.PostForm.Get("password")
	return form, nil
}

func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	target, err := s.signIn.OAuthRedirect(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		var serr *usecase.SignInError
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown provider"})
		case errors.As(err, &serr):
			writeJSON(w, http.StatusBadGateway, toastResponse{Error: "oauth failed", Toast: serr.Toast})
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		}
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleSignOut always clears the cookie; a failed provider revocation is
// only logged.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.FromRequest(r); err == nil {
		ctx := logging.WithUserID(r.Context(), sess.UserID)
		if err := s.signIn.SignOut(ctx, sess.ClientToken, sess.SessionID); err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("provider sign-out failed")
		}
	}
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: domain.ErrUnauthenticated.Error()})
		return
	}
	ctx := logging.WithUserID(r.Context(), sess.UserID)

	out := sessionResponse{UserID: sess.UserID, Email: sess.Email}
	if !sess.ExpiresAt.IsZero() {
		out.ExpiresAt = sess.ExpiresAt.UTC().Format(time.RFC3339)
	}
	usr, err := s.users.FindByID(ctx, repository.NoTX, sess.UserID)
	switch {
	case err == nil:
		out.Email, out.FirstName, out.LastName = usr.Email, usr.FirstName, usr.LastName
		out.Subscription = usr.Subscription
	case errors.Is(err, domain.ErrNotFound):
		// signed in but never stored locally
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("session user lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// allow fails open when the limiter itself errors.
func (s *Server) allow(r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(r.Context(), red.SignInKey(clientIP(r)))
	if err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

// clientIP is the peer address. X-Forwarded-For and friends only count when
// the router trusts proxy headers, in which case RealIP has already applied them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
