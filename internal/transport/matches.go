package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/errcode"
)

func (s *Server) handleMatchesForPosting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Matches.MatchesForPosting(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilMatches(list))
}

func (s *Server) handleRegenerateMatches(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Matches.Regenerate(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilMatches(list))
}

func (s *Server) handleMyMatches(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Matches.MatchesForProfile(r.Context(), actorID)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilMatches(list))
}

func (s *Server) handleApplyMatch(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	m, err := s.svc.Matches.Apply(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type decideMatchRequest struct {
	Status matching.Status `json:"status"`
}

func (s *Server) handleDecideMatch(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req decideMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	m, err := s.svc.Matches.Decide(r.Context(), actorID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func nonNilMatches(list []matching.RankedMatch) []matching.RankedMatch {
	if list == nil {
		return []matching.RankedMatch{}
	}
	return list
}
