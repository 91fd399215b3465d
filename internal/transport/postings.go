package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/errcode"
)

func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req posting.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	p, err := s.svc.Postings.Create(r.Context(), actorID, req)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Postings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleClosePosting(w http.ResponseWriter, r *http.Request) {
	s.postingAction(w, r, s.svc.Postings.Close)
}

func (s *Server) handleReactivatePosting(w http.ResponseWriter, r *http.Request) {
	s.postingAction(w, r, s.svc.Postings.Reactivate)
}

func (s *Server) handleRepostPosting(w http.ResponseWriter, r *http.Request) {
	s.postingAction(w, r, s.svc.Postings.Repost)
}

type extendRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) handleExtendPosting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req extendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}
	if req.ExpiresAt == nil {
		writeCode(w, errcode.Validation, "expires_at is required")
		return
	}

	p, err := s.svc.Postings.ExtendDeadline(r.Context(), actorID, chi.URLParam(r, "id"), *req.ExpiresAt)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type postingActionFunc func(ctx context.Context, actorID, id string) (*posting.Posting, error)

func (s *Server) postingAction(w http.ResponseWriter, r *http.Request, fn postingActionFunc) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := fn(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type submitApplicationRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req submitApplicationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	a, err := s.svc.Applications.Submit(r.Context(), actorID, chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Applications.ListForPosting(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	if list == nil {
		list = []application.Application{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	a, err := s.svc.Applications.Get(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type decideApplicationRequest struct {
	Status application.Status `json:"status"`
}

func (s *Server) handleDecideApplication(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req decideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	a, err := s.svc.Applications.Decide(r.Context(), actorID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	a, err := s.svc.Applications.Withdraw(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
