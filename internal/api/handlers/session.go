package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/game"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/dkrasnove/faunaguess/internal/learning"
	"github.com/dkrasnove/faunaguess/internal/persist"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	svc *game.Service
}

func NewSessionHandler(svc *game.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	Candidates int    `json:"candidates"`
	Asked      int    `json:"asked"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := h.svc.StartSession()
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:  session.ID.String(),
		Candidates: len(session.Candidates),
	})
}

type questionResponse struct {
	Question     *domain.Question `json:"question,omitempty"`
	Exhausted    bool             `json:"exhausted,omitempty"`
	NoCandidates bool             `json:"no_candidates,omitempty"`
}

// NextQuestion returns the highest-gain question. The two control signals
// are part of normal play, so they come back as 200s with a flag rather
// than error statuses.
func (h *SessionHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	q, err := h.svc.NextQuestion(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, questionResponse{Question: q})
	case errors.Is(err, domain.ErrQuestionsExhausted):
		writeJSON(w, http.StatusOK, questionResponse{Exhausted: true})
	case errors.Is(err, domain.ErrNoCandidates):
		writeJSON(w, http.StatusOK, questionResponse{NoCandidates: true})
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question_id")
		return
	}
	answer, err := domain.ParseAnswer(req.Answer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SubmitAnswer(id, questionID, answer); err != nil {
		switch {
		case errors.Is(err, game.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, knowledge.ErrQuestionNotFound):
			writeError(w, http.StatusBadRequest, "unknown question")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	candidates, answered, err := h.svc.SessionStatus(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:  id.String(),
		Candidates: candidates,
		Asked:      answered,
	})
}

type guessResponse struct {
	Guess        *game.Guess `json:"guess,omitempty"`
	NoCandidates bool        `json:"no_candidates,omitempty"`
}

func (h *SessionHandler) Guess(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	guess, err := h.svc.Guess(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, guessResponse{Guess: &guess})
	case errors.Is(err, domain.ErrNoCandidates):
		writeJSON(w, http.StatusOK, guessResponse{NoCandidates: true})
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type outcomeRequest struct {
	Outcome       string `json:"outcome"` // correct | known | new
	Animal        string `json:"animal,omitempty"`
	Description   string `json:"description,omitempty"`
	Distinguisher *struct {
		Question      string `json:"question"`
		SubjectAnswer string `json:"subject_answer"`
		OtherAnswer   string `json:"other_answer"`
	} `json:"distinguisher,omitempty"`
}

type outcomeResponse struct {
	Result    *learning.Result `json:"result"`
	SaveError string           `json:"save_error,omitempty"`
}

// Outcome ends the session with the ground truth and reconciles it into the
// knowledge base. A persistence failure is reported in the response body
// rather than voiding the reconciliation.
func (h *SessionHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome := learning.Outcome{
		Kind:        learning.OutcomeKind(req.Outcome),
		AnimalName:  req.Animal,
		Description: req.Description,
	}
	if req.Distinguisher != nil {
		subjectAns, err := domain.ParseAnswer(req.Distinguisher.SubjectAnswer)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid distinguisher subject_answer")
			return
		}
		otherAns, err := domain.ParseAnswer(req.Distinguisher.OtherAnswer)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid distinguisher other_answer")
			return
		}
		outcome.Distinction = &domain.Distinction{
			QuestionText:  req.Distinguisher.Question,
			SubjectAnswer: subjectAns,
			OtherAnswer:   otherAns,
		}
	}

	result, err := h.svc.Finish(r.Context(), id, outcome)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, outcomeResponse{Result: result})
	case errors.Is(err, persist.ErrPersistenceFailure) && result != nil:
		writeJSON(w, http.StatusOK, outcomeResponse{Result: result, SaveError: err.Error()})
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.svc.Abandon(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
