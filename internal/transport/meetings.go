package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/errcode"
)

type proposeMeetingRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (s *Server) handleProposeMeeting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req proposeMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	p, err := s.svc.Meetings.Propose(r.Context(), actorID, chi.URLParam(r, "id"), req.StartsAt, req.EndsAt)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Meetings.List(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	if list == nil {
		list = []meeting.Proposal{}
	}
	writeJSON(w, http.StatusOK, list)
}

type respondMeetingRequest struct {
	Available *bool `json:"available"`
}

func (s *Server) handleRespondMeeting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req respondMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}
	if req.Available == nil {
		writeCode(w, errcode.Validation, "available is required")
		return
	}

	p, err := s.svc.Meetings.Respond(r.Context(), actorID, chi.URLParam(r, "id"), *req.Available)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleConfirmMeeting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := s.svc.Meetings.Confirm(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCancelMeeting(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := s.svc.Meetings.Cancel(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := notification.ListOptions{UnreadOnly: q.Get("unread_only") == "true"}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		writeCode(w, errcode.Validation, "limit: "+err.Error())
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeCode(w, errcode.Validation, "offset: "+err.Error())
		return
	}

	list, err := s.svc.Notifications.List(r.Context(), actorID, opts)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if err := s.svc.Notifications.MarkRead(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intParam parses an optional non-negative query integer; empty is zero.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
