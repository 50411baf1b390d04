package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appchat "github.com/bryanwahyu/mediscan/internal/application/chatsvc"
	appreports "github.com/bryanwahyu/mediscan/internal/application/reports"
	appreview "github.com/bryanwahyu/mediscan/internal/application/review"
	appsuggest "github.com/bryanwahyu/mediscan/internal/application/suggest"
	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	domreports "github.com/bryanwahyu/mediscan/internal/domain/reports"
	"github.com/bryanwahyu/mediscan/internal/domain/upload"
	"github.com/bryanwahyu/mediscan/internal/middleware"
)

// uploadBodyLimit leaves headroom above the file ceiling for multipart
// framing before the request is refused outright.
const uploadBodyLimit = upload.MaxFileSize + 1<<20

type Router struct {
	review  *appreview.Service
	chat    *appchat.Service
	suggest *appsuggest.Service
	reports *appreports.Service
}

func NewRouter(review *appreview.Service, chat *appchat.Service, suggest *appsuggest.Service, reports *appreports.Service, corsOrigins []string, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{review: review, chat: chat, suggest: suggest, reports: reports}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	mux.Get("/healthz", middleware.HealthHandler(checkers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Handle("/*", staticHandler())

	mux.Route("/ui", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Get("/sessions/{id}", r.wrap(r.handleGetSession))
		rt.Post("/sessions/{id}/document", r.wrap(r.handleUploadDocument))
		rt.Put("/sessions/{id}/text", r.wrap(r.handleSetText))
		rt.Post("/sessions/{id}/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/sessions/{id}/blood", r.wrap(r.handleUploadBlood))
		rt.Post("/sessions/{id}/reset", r.wrap(r.handleReset))
		rt.Post("/sessions/{id}/report", r.wrap(r.handleReport))

		rt.Get("/suggest/icd", r.wrap(r.handleSuggestICD))

		rt.Post("/chat/{conv}/message", r.wrap(r.handleChatSend))
		rt.Post("/chat/{conv}/open", r.wrap(r.handleChatOpen))
		rt.Post("/chat/{conv}/collapse", r.wrap(r.handleChatCollapse))
		rt.Get("/chat/{conv}", r.wrap(r.handleChatGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors to HTTP statuses so handlers can just return them.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var ve *analysis.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusUnprocessableEntity, ve.Reason)
		case errors.Is(err, appreview.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, upload.ErrBusy):
			writeError(w, http.StatusConflict, "Another operation is already in progress.")
		case errors.Is(err, upload.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "That action does not apply right now.")
		case errors.Is(err, analysis.ErrBackendUnavailable):
			writeError(w, http.StatusBadGateway, "Server not responding.")
		case errors.Is(err, analysis.ErrBackendRejected), errors.Is(err, analysis.ErrMalformedResponse):
			writeError(w, http.StatusBadGateway, analysis.MessageFor(err))
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// sessionResponse is the render snapshot of a workflow session.
type sessionResponse struct {
	ID            string         `json:"id"`
	State         upload.State   `json:"state"`
	FileName      string         `json:"fileName,omitempty"`
	ExtractedText string         `json:"extractedText"`
	EditedText    string         `json:"editedText"`
	Outcome       upload.Outcome `json:"outcome"`
	Error         string         `json:"error,omitempty"`
}

func toSessionResponse(s upload.Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		State:         s.State,
		FileName:      s.FileName,
		ExtractedText: s.ExtractedText,
		EditedText:    s.EditedText,
		Outcome:       s.Outcome,
		Error:         s.LastError,
	}
}

// POST /ui/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	sess := r.review.Create()
	return writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// GET /ui/sessions/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.review.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /ui/sessions/{id}/document (multipart: file)
// Backend failures are absorbed into the session snapshot: the workflow has
// already moved to its retry state and the banner text rides in "error".
func (r *Router) handleUploadDocument(w http.ResponseWriter, req *http.Request) error {
	meta, file, err := readUpload(req)
	if err != nil {
		return err
	}
	defer file.Close()

	sess, err := r.review.UploadDocument(req.Context(), chi.URLParam(req, "id"), meta, file)
	if err != nil && !absorbed(err) {
		return err
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// PUT /ui/sessions/{id}/text
func (r *Router) handleSetText(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &analysis.ValidationError{Reason: "invalid JSON body"}
	}
	text := middleware.SanitizeString(body.Text)
	if err := middleware.ValidateTextLength(text); err != nil {
		return &analysis.ValidationError{Reason: err.Error()}
	}
	sess, err := r.review.SetText(chi.URLParam(req, "id"), text)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /ui/sessions/{id}/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementAnalyses()
	sess, err := r.review.Analyze(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		if !absorbed(err) {
			return err
		}
		middleware.IncrementAnalysesFailed()
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /ui/sessions/{id}/blood (multipart: file)
func (r *Router) handleUploadBlood(w http.ResponseWriter, req *http.Request) error {
	meta, file, err := readUpload(req)
	if err != nil {
		return err
	}
	defer file.Close()

	middleware.IncrementAnalyses()
	sess, err := r.review.UploadBloodReport(req.Context(), chi.URLParam(req, "id"), meta, file)
	if err != nil {
		if !absorbed(err) {
			return err
		}
		middleware.IncrementAnalysesFailed()
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /ui/sessions/{id}/reset
func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.review.Reset(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /ui/sessions/{id}/report — streams the generated PDF back as a
// download.
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.review.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}

	var bundle domreports.Bundle
	switch sess.Outcome.Kind {
	case upload.OutcomeDocument:
		bundle = domreports.Bundle{
			Analysis: sess.Outcome.Document,
			Entities: sess.Outcome.Document.Entities,
			ICDCodes: sess.Outcome.Document.ICDCodes,
		}
	case upload.OutcomeBlood:
		// The backend requires analysis_results even for blood-only reports;
		// an empty normalized result keeps the field an object, not null.
		empty := &analysis.Result{}
		empty.Normalize()
		bundle = domreports.Bundle{
			Analysis:   empty,
			BloodTests: sess.Outcome.Blood.Tests,
		}
	default:
		return &analysis.ValidationError{Reason: "Nothing to report yet: run an analysis first."}
	}

	pdf, filename, err := r.reports.Generate(req.Context(), bundle)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, err = w.Write(pdf)
	return err
}

// GET /ui/suggest/icd?session=&q=
func (r *Router) handleSuggestICD(w http.ResponseWriter, req *http.Request) error {
	key := req.URL.Query().Get("session")
	if key == "" {
		return &analysis.ValidationError{Reason: "session parameter is required"}
	}
	query := middleware.SanitizeString(req.URL.Query().Get("q"))
	if err := middleware.ValidateQuery(query); err != nil {
		return &analysis.ValidationError{Reason: err.Error()}
	}
	codes := r.suggest.Suggest(key, query)
	return writeJSON(w, http.StatusOK, map[string]any{"suggestions": codes})
}

// POST /ui/chat/{conv}/message
func (r *Router) handleChatSend(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &analysis.ValidationError{Reason: "invalid JSON body"}
	}

	reply, err := r.chat.Send(req.Context(), chi.URLParam(req, "conv"), middleware.SanitizeString(body.Text))
	if err != nil {
		return err
	}
	if reply.Text == appchat.FallbackText {
		middleware.IncrementChatFallbacks()
	}
	return writeJSON(w, http.StatusOK, reply)
}

// POST /ui/chat/{conv}/open
func (r *Router) handleChatOpen(w http.ResponseWriter, req *http.Request) error {
	r.chat.Open(chi.URLParam(req, "conv"))
	return writeJSON(w, http.StatusOK, r.chat.Snapshot(chi.URLParam(req, "conv")))
}

// POST /ui/chat/{conv}/collapse
func (r *Router) handleChatCollapse(w http.ResponseWriter, req *http.Request) error {
	r.chat.Collapse(chi.URLParam(req, "conv"))
	return writeJSON(w, http.StatusOK, r.chat.Snapshot(chi.URLParam(req, "conv")))
}

// GET /ui/chat/{conv}
func (r *Router) handleChatGet(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.chat.Snapshot(chi.URLParam(req, "conv")))
}

// absorbed reports whether the workflow already converted the error into a
// retry state, meaning the snapshot (not the status code) carries the news.
func absorbed(err error) bool {
	return errors.Is(err, analysis.ErrBackendUnavailable) ||
		errors.Is(err, analysis.ErrBackendRejected) ||
		errors.Is(err, analysis.ErrMalformedResponse)
}

// readUpload parses the multipart form and returns the file metadata the
// validators need. The body is capped just above the file ceiling so an
// oversized upload fails fast.
func readUpload(req *http.Request) (upload.FileMeta, multipart.File, error) {
	req.Body = http.MaxBytesReader(nil, req.Body, uploadBodyLimit)
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		return upload.FileMeta{}, nil, &analysis.ValidationError{Reason: "File exceeds the 10 MB limit."}
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return upload.FileMeta{}, nil, &analysis.ValidationError{Reason: `multipart field "file" is required`}
	}
	meta := upload.FileMeta{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	return meta, file, nil
}
