package handlers

import (
	"net/http"

	"github.com/dkrasnove/faunaguess/internal/game"
)

// KnowledgeHandler serves the read-only views of the knowledge base.
type KnowledgeHandler struct {
	svc *game.Service
}

func NewKnowledgeHandler(svc *game.Service) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

func (h *KnowledgeHandler) ListAnimals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Animals())
}

func (h *KnowledgeHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Questions())
}

func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}
