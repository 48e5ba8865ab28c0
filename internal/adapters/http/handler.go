package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/PabloGalante/socratic-dialogue/internal/app/conversation"
	"github.com/PabloGalante/socratic-dialogue/internal/app/export"
	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const maxBodyBytes = 8 << 20

type Server struct {
	svc      *conversation.Service
	validate *validator.Validate
}

// NewServer builds the HTTP API. A nil metrics handler leaves /metrics unrouted.
func NewServer(svc *conversation.Service, metrics http.Handler) http.Handler {
	s := &Server{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r := chi.NewRouter()
	r.Use(withCORS)
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(withRecovery)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/turns", s.handleSendTurn)
			r.Post("/reflections", s.handleRecordReflection)
			r.Post("/lock", s.handleLock)
			r.Post("/end-reflection", s.handleEndReflection)
			r.Post("/reset", s.handleReset)
			r.Get("/export", s.handleExport)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleListReports)
		r.Get("/{id}", s.handleGetReport)
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type documentRequest struct {
	Filename string `json:"filename" validate:"required"`
	// Content is the base64-encoded file.
	Content string `json:"content" validate:"required,base64"`
}

type startSessionRequest struct {
	SourceMaterial string           `json:"source_material" validate:"required_without=Document"`
	Document       *documentRequest `json:"document,omitempty"`
	FocusQuestion  string           `json:"focus_question" validate:"required"`
}

type sendTurnRequest struct {
	Text string `json:"text"`
}

type reflectionRequest struct {
	Prompt   string `json:"prompt" validate:"required"`
	Response string `json:"response" validate:"required"`
}

type endReflectionRequest struct {
	ContentAnswer string `json:"content_answer" validate:"required"`
	ProcessAnswer string `json:"process_answer" validate:"required"`
}

type sessionResponse struct {
	ID                string                 `json:"id"`
	State             domain.State           `json:"state"`
	Stage             domain.Stage           `json:"stage"`
	FocusQuestion     string                 `json:"focus_question,omitempty"`
	ExchangeCount     int                    `json:"exchange_count"`
	Locked            bool                   `json:"locked"`
	Processing        bool                   `json:"processing"`
	PendingReflection string                 `json:"pending_reflection,omitempty"`
	ReadyToEnd        bool                   `json:"ready_to_end"`
	StartTime         *time.Time             `json:"start_time,omitempty"`
	EndTime           *time.Time             `json:"end_time,omitempty"`
	ElapsedSeconds    float64                `json:"elapsed_seconds"`
	Log               []domain.DialogueEntry `json:"dialogue_log"`
	Reflections       []domain.Reflection    `json:"reflections"`
	Analysis          *domain.AnalysisResult `json:"analysis,omitempty"`
	DisplaySections   []domain.Section       `json:"display_sections,omitempty"`
}

type turnResponse struct {
	Accepted            bool                  `json:"accepted"`
	ExchangeCount       int                   `json:"exchange_count"`
	Stage               domain.Stage          `json:"stage"`
	Reply               *domain.DialogueEntry `json:"reply,omitempty"`
	GatewayError        string                `json:"gateway_error,omitempty"`
	ReflectionScheduled bool                  `json:"reflection_scheduled"`
	Session             sessionResponse       `json:"session"`
}

type reportSummary struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
	FocusQuestion   string    `json:"focus_question"`
	ExchangeCount   int       `json:"exchange_count"`
	ReflectionCount int       `json:"reflection_count"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	in, ok := toStartInput(w, req)
	if !ok {
		return
	}

	out, err := s.svc.StartSession(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTurnResponse(out.Turn, out.Session))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	in, ok := toStartInput(w, req)
	if !ok {
		return
	}
	in.SessionID = sessionID(r)

	out, err := s.svc.StartSession(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTurnResponse(out.Turn, out.Session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.GetSession(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSession(r.Context(), sessionID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendTurn(w http.ResponseWriter, r *http.Request) {
	var req sendTurnRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.svc.SendMessage(r.Context(), conversation.SendMessageInput{
		SessionID: sessionID(r),
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !out.Turn.Accepted {
		status = http.StatusConflict
	}
	writeJSON(w, status, toTurnResponse(out.Turn, out.Session))
}

func (s *Server) handleRecordReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.svc.RecordReflection(r.Context(), conversation.RecordReflectionInput{
		SessionID: sessionID(r),
		Prompt:    req.Prompt,
		Response:  req.Response,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.LockSession(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleEndReflection(w http.ResponseWriter, r *http.Request) {
	var req endReflectionRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.svc.SubmitEndReflection(r.Context(), conversation.SubmitEndReflectionInput{
		SessionID:     sessionID(r),
		ContentAnswer: req.ContentAnswer,
		ProcessAnswer: req.ProcessAnswer,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.ResetSession(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := s.svc.ExportSession(r.Context(), conversation.ExportSessionInput{
		SessionID: sessionID(r),
		Format:    format,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("X-Report-ID", string(out.Report.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	reports, err := s.svc.ListReports(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]reportSummary, 0, len(reports))
	for _, rep := range reports {
		out = append(out, reportSummary{
			ID:              string(rep.ID),
			SessionID:       string(rep.SessionID),
			CreatedAt:       rep.CreatedAt,
			FocusQuestion:   rep.FocusQuestion,
			ExchangeCount:   rep.ExchangeCount,
			ReflectionCount: rep.ReflectionCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.GetReport(r.Context(), domain.ReportID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func sessionID(r *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(r, "id"))
}

func toStartInput(w http.ResponseWriter, req startSessionRequest) (conversation.StartSessionInput, bool) {
	in := conversation.StartSessionInput{
		SourceMaterial: req.SourceMaterial,
		FocusQuestion:  req.FocusQuestion,
	}
	if req.Document != nil && req.SourceMaterial == "" {
		data, err := base64.StdEncoding.DecodeString(req.Document.Content)
		if err != nil {
			badRequest(w, "document content must be base64")
			return in, false
		}
		in.Document = &conversation.Document{Filename: req.Document.Filename, Data: data}
	}
	return in, true
}

func toSessionResponse(snap session.Snapshot) sessionResponse {
	resp := sessionResponse{
		ID:                string(snap.ID),
		State:             snap.State,
		Stage:             snap.Stage,
		FocusQuestion:     snap.FocusQuestion,
		ExchangeCount:     snap.ExchangeCount,
		Locked:            snap.Locked,
		Processing:        snap.Processing,
		PendingReflection: snap.PendingReflection,
		ReadyToEnd:        snap.ReadyToEnd,
		ElapsedSeconds:    snap.Elapsed.Seconds(),
		Log:               snap.Log,
		Reflections:       snap.Reflections,
		Analysis:          snap.Analysis,
		DisplaySections:   snap.Analysis.DisplaySections(),
	}
	if resp.Log == nil {
		resp.Log = []domain.DialogueEntry{}
	}
	if resp.Reflections == nil {
		resp.Reflections = []domain.Reflection{}
	}
	if !snap.StartTime.IsZero() {
		t := snap.StartTime
		resp.StartTime = &t
	}
	if !snap.EndTime.IsZero() {
		t := snap.EndTime
		resp.EndTime = &t
	}
	return resp
}

func toTurnResponse(turn session.TurnResult, snap session.Snapshot) turnResponse {
	resp := turnResponse{
		Accepted:            turn.Accepted,
		ExchangeCount:       turn.ExchangeCount,
		Stage:               turn.Stage,
		Reply:               turn.Reply,
		ReflectionScheduled: turn.ReflectionScheduled,
		Session:             toSessionResponse(snap),
	}
	if turn.GatewayErr != nil {
		resp.GatewayError = turn.GatewayErr.Error()
	}
	return resp
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// decode reads a JSON body into v and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			badRequest(w, verrs[0].Field()+" failed "+verrs[0].Tag()+" validation")
			return false
		}
		badRequest(w, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *domain.ValidationError
		perr *domain.PreconditionError
	)
	switch {
	case errors.As(err, &verr):
		badRequest(w, verr.Error())
	case errors.As(err, &perr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": perr.Error()})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrReportNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}
