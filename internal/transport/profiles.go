package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/errcode"
)

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req profile.SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	p, err := s.svc.Profiles.Save(r.Context(), actorID, req)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type windowsRequest struct {
	Windows []availability.Window `json:"windows"`
}

func (s *Server) handleGetProfileAvailability(w http.ResponseWriter, r *http.Request) {
	windows, err := s.svc.Availability.ProfileWindows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowsRequest{Windows: nonNilWindows(windows)})
}

func (s *Server) handleSetProfileAvailability(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req windowsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	windows, err := s.svc.Availability.SetProfileWindows(r.Context(), actorID, req.Windows)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowsRequest{Windows: nonNilWindows(windows)})
}

type quickAvailabilityRequest struct {
	Days    []int                 `json:"days"`
	Buckets []availability.Bucket `json:"buckets"`
}

func (s *Server) handleSetQuickAvailability(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req quickAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	windows, err := s.svc.Availability.SetQuickAvailability(r.Context(), actorID, req.Days, req.Buckets)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowsRequest{Windows: nonNilWindows(windows)})
}

func (s *Server) handleSetPostingAvailability(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req windowsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	windows, err := s.svc.Availability.SetPostingWindows(r.Context(), actorID, chi.URLParam(r, "id"), req.Windows)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowsRequest{Windows: nonNilWindows(windows)})
}

func (s *Server) handleCommonAvailability(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	scope, err := availability.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}

	common, err := s.svc.Availability.CommonAvailability(r.Context(), actorID, chi.URLParam(r, "id"), scope)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availability.NewCommonResult(common))
}

type busyBlocksRequest struct {
	Ranges []string `json:"ranges"`
}

func (s *Server) handleSyncBusyBlocks(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req busyBlocksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeCode(w, errcode.Validation, err.Error())
		return
	}

	res, err := s.svc.Availability.SyncBusyBlocks(r.Context(), actorID, chi.URLParam(r, "connectionID"), req.Ranges)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type ancestryResponse struct {
	ID         string   `json:"id"`
	Ancestors  []string `json:"ancestors"`
	Breadcrumb string   `json:"breadcrumb"`
}

func (s *Server) handleSkillAncestry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ancestors, err := s.svc.Skills.Ancestry(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	crumb, err := s.svc.Skills.Breadcrumb(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, r, err)
		return
	}
	if ancestors == nil {
		ancestors = []string{}
	}
	writeJSON(w, http.StatusOK, ancestryResponse{ID: id, Ancestors: ancestors, Breadcrumb: crumb})
}

func nonNilWindows(windows []availability.Window) []availability.Window {
	if windows == nil {
		return []availability.Window{}
	}
	return windows
}
