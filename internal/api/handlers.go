package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/limbo/journal/internal/analytics"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/internal/pipeline"
	"github.com/limbo/journal/internal/service"
	"github.com/limbo/journal/pkg/entity"
	"github.com/limbo/journal/pkg/httputil"
)

const (
	dateLayout    = "2006-01-02"
	previewLength = 80
	submitTimeout = 30 * time.Second
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type UserResponse struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type EntryPreview struct {
	ID           string                 `json:"id"`
	Date         string                 `json:"date"`
	Mood         string                 `json:"mood"`
	MoodCategory analytics.MoodCategory `json:"mood_category"`
	Weather      string                 `json:"weather"`
	Preview      string                 `json:"preview"`
}

type EntryResponse struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
	Weather string `json:"weather"`
}

type DashboardResponse struct {
	Username     string                  `json:"username"`
	Streak       int                     `json:"streak"`
	Week         []analytics.DayActivity `json:"week"`
	WeeklyMood   string                  `json:"weekly_mood"`
	MoodCategory analytics.MoodCategory  `json:"mood_category"`
	TotalEntries int                     `json:"total_entries"`
	Recent       []EntryResponse         `json:"recent"`
}

type EditorResponse struct {
	Mode           string         `json:"mode"`
	Entry          *EntryResponse `json:"entry,omitempty"`
	Weather        string         `json:"weather"`
	WeatherPending bool           `json:"weather_pending"`
	Submitting     bool           `json:"submitting"`
}

type SubmitRequest struct {
	Content string `json:"content"`
}

func toEntryResponse(e entity.Entry) EntryResponse {
	return EntryResponse{
		ID:      e.ID.String(),
		Date:    e.Date.Format(dateLayout),
		Content: e.Content,
		Mood:    e.Mood,
		Weather: e.Weather,
	}
}

func toEditorResponse(st pipeline.EditorState) EditorResponse {
	resp := EditorResponse{
		Mode:           st.Mode.String(),
		Weather:        st.Weather,
		WeatherPending: st.WeatherPending,
		Submitting:     st.Submitting,
	}
	if st.Entry != nil {
		e := toEntryResponse(*st.Entry)
		resp.Entry = &e
	}
	return resp
}

// writeServiceError maps sentinel errors onto status codes
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrValidation):
		logger.Error(op+" error: validation", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, errorvalues.ErrWrongCredentials):
		logger.Error(op + " error: wrong credentials")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "invalid email or password", nil)
	case errors.Is(err, errorvalues.ErrNotAuthenticated), errors.Is(err, errorvalues.ErrInvalidToken):
		logger.Error(op + " error: not authenticated")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated", nil)
	case errors.Is(err, errorvalues.ErrEntryNotFound):
		logger.Error(op + " error: unexist entry")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "entry doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrUserNotFound):
		logger.Error(op + " error: unexist user")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrUserExists):
		logger.Error(op + " error: existed user")
		httputil.WriteErrorResponse(w, http.StatusConflict, "user with such email already exists", nil)
	case errors.Is(err, errorvalues.ErrSubmitInProgress):
		logger.Error(op + " error: submit in progress")
		httputil.WriteErrorResponse(w, http.StatusConflict, "entry is already being saved", nil)
	case errors.Is(err, pipeline.ErrLoopStopped):
		logger.Error(op + " error: loop stopped")
		httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "service is shutting down", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Error(op+" error: timed out", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusGatewayTimeout, "request timed out", nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during "+op, nil)
	}
}

func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req SignupRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("signup error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	var user *entity.User
	err := s.onLoopErr(ctx, func() (err error) {
		user, err = s.userService.Signup(ctx, s.sess, &service.SignupRequest{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err == nil {
			s.editor.Reset()
		}
		return err
	})
	if err != nil {
		writeServiceError(w, logger, "signup", err)
		return
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		logger.Error("signup error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, AuthResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	})
	logger.Info("successful signup")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LoginRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	var user *entity.User
	err := s.onLoopErr(ctx, func() (err error) {
		user, err = s.userService.Login(ctx, s.sess, req.Email, req.Password)
		if err == nil {
			s.editor.Reset()
		}
		return err
	})
	if err != nil {
		writeServiceError(w, logger, "login", err)
		return
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		logger.Error("login error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, AuthResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	})
	logger.Info("successful login")
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	if err := s.onLoop(r.Context(), func() {
		s.userService.Logout(s.sess)
		s.editor.Reset()
	}); err != nil {
		writeServiceError(w, logger, "logout", err)
		return
	}
	httputil.WriteNoContent(w)
	logger.Info("logged out")
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var user *entity.User
	err := s.onLoopErr(r.Context(), func() (err error) {
		user, err = s.userService.CurrentUser(s.sess)
		return err
	})
	if err != nil {
		writeServiceError(w, logger, "current user", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, UserResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	})
}

func (s *Server) ListEntries(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var entries []entity.Entry
	err := s.onLoopErr(r.Context(), func() (err error) {
		entries, err = s.journalService.ListEntries(s.sess)
		return err
	})
	if err != nil {
		writeServiceError(w, logger, "listing entries", err)
		return
	}
	previews := make([]EntryPreview, 0, len(entries))
	for _, e := range analytics.SortByDateDesc(entries) {
		previews = append(previews, EntryPreview{
			ID:           e.ID.String(),
			Date:         e.Date.Format(dateLayout),
			Mood:         e.Mood,
			MoodCategory: analytics.Categorize(e.Mood),
			Weather:      e.Weather,
			Preview:      analytics.Preview(e.Content, previewLength),
		})
	}
	httputil.WriteJSONResponse(w, http.StatusOK, previews)
	logger.Info("entries provided")
}

func (s *Server) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("entry deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid entry id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.onLoopErr(ctx, func() error {
		return s.journalService.DeleteEntry(ctx, s.sess, id)
	})
	if err != nil {
		writeServiceError(w, logger, "entry deletion", err)
		return
	}
	httputil.WriteNoContent(w)
	logger.Info("entry deleted")
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var (
		entries  []entity.Entry
		username string
	)
	err := s.onLoopErr(r.Context(), func() (err error) {
		entries, err = s.journalService.ListEntries(s.sess)
		username, _ = s.sess.CurrentUsername()
		return err
	})
	if err != nil {
		writeServiceError(w, logger, "dashboard", err)
		return
	}
	snap := analytics.Compute(entries, s.clock())
	recent := make([]EntryResponse, 0, len(snap.Recent))
	for _, e := range snap.Recent {
		recent = append(recent, toEntryResponse(e))
	}
	httputil.WriteJSONResponse(w, http.StatusOK, DashboardResponse{
		Username:     username,
		Streak:       snap.Streak,
		Week:         snap.Week,
		WeeklyMood:   snap.WeeklyMood,
		MoodCategory: snap.MoodCategory,
		TotalEntries: snap.TotalEntries,
		Recent:       recent,
	})
}

func (s *Server) EditorState(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var st pipeline.EditorState
	if err := s.onLoop(r.Context(), func() {
		st = s.editor.State()
	}); err != nil {
		writeServiceError(w, logger, "editor state", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, toEditorResponse(st))
}

func (s *Server) EditorNew(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var st pipeline.EditorState
	if err := s.onLoop(r.Context(), func() {
		s.editor.StartNew()
		st = s.editor.State()
	}); err != nil {
		writeServiceError(w, logger, "editor new", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, toEditorResponse(st))
}

func (s *Server) EditorToday(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var st pipeline.EditorState
	err := s.onLoopErr(r.Context(), func() error {
		if err := s.editor.OpenToday(s.clock()); err != nil {
			return err
		}
		st = s.editor.State()
		return nil
	})
	if err != nil {
		writeServiceError(w, logger, "editor today", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, toEditorResponse(st))
}

func (s *Server) EditorEdit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("editor edit error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid entry id in path value", nil)
		return
	}
	var st pipeline.EditorState
	err = s.onLoopErr(r.Context(), func() error {
		entries, err := s.journalService.ListEntries(s.sess)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.ID == id {
				s.editor.StartEdit(e)
				st = s.editor.State()
				return nil
			}
		}
		return errorvalues.ErrEntryNotFound
	})
	if err != nil {
		writeServiceError(w, logger, "editor edit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, toEditorResponse(st))
}

type submitOutcome struct {
	entry *entity.Entry
	err   error
}

// EditorSubmit waits until the entry is classified and saved.
func (s *Server) EditorSubmit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req SubmitRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("submit error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()
	outcome := make(chan submitOutcome, 1)
	err := s.onLoopErr(ctx, func() error {
		return s.editor.Submit(req.Content, func(e *entity.Entry, err error) {
			outcome <- submitOutcome{entry: e, err: err}
		})
	})
	if err != nil {
		writeServiceError(w, logger, "submit", err)
		return
	}
	select {
	case res := <-outcome:
		if res.err != nil {
			writeServiceError(w, logger, "submit", res.err)
			return
		}
		httputil.WriteJSONResponse(w, http.StatusOK, toEntryResponse(*res.entry))
		logger.Info("entry saved", slog.String("entry_id", res.entry.ID.String()))
	case <-ctx.Done():
		writeServiceError(w, logger, "submit", ctx.Err())
	}
}
