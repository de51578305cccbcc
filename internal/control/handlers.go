package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/version"
)

const maxRequestBody = 64 << 10

// ProfileSummary is the public view of a profile.
type ProfileSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	UUID     string `json:"uuid"`
	Active   bool   `json:"active,omitempty"`
}

// EmulatorInfo describes the session emulator in a status response.
type EmulatorInfo struct {
	Address string `json:"address"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Version       string          `json:"version"`
	Emulator      *EmulatorInfo   `json:"emulator,omitempty"`
	ActiveProfile *ProfileSummary `json:"active_profile,omitempty"`
}

type activateRequest struct {
	ID string `json:"id"`
}

type launchClientRequest struct {
	Server string `json:"server,omitempty"`
}

type launchResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

func summarize(p configstore.Profile) ProfileSummary {
	return ProfileSummary{ID: p.ID, Name: p.Name, Username: p.Username, UUID: p.UUID}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	resp := StatusResponse{Version: version.String()}
	if s.emulator != nil {
		st := s.emulator.Status()
		info := &EmulatorInfo{Address: st.Addr, State: st.State.String()}
		if st.Err != nil {
			info.Error = st.Err.Error()
		}
		resp.Emulator = info
	}

	if s.store != nil {
		profile, err := s.store.ActiveProfile(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load active profile: %v", err))
			return
		}
		summary := summarize(profile)
		resp.ActiveProfile = &summary
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration store unavailable")
		return
	}

	profiles, err := s.store.Profiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list profiles: %v", err))
		return
	}
	active, err := s.store.ActiveProfile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load active profile: %v", err))
		return
	}

	out := make([]ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		summary := summarize(p)
		summary.Active = p.ID == active.ID
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration store unavailable")
		return
	}

	var req activateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.store.ActivateProfile(r.Context(), req.ID); err != nil {
		if configstore.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to activate profile: %v", err))
		return
	}

	profile, err := s.store.ActiveProfile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load active profile: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, summarize(profile))
}

func (s *Server) handleLaunchClient(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.launcher == nil {
		writeError(w, http.StatusServiceUnavailable, "launcher unavailable")
		return
	}

	var req launchClientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.launcher.LaunchClient(strings.TrimSpace(req.Server))
	writeJSON(w, http.StatusAccepted, launchResponse{Status: "launching", Kind: "client"})
}

func (s *Server) handleLaunchServer(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.launcher == nil {
		writeError(w, http.StatusServiceUnavailable, "launcher unavailable")
		return
	}

	s.launcher.LaunchServer()
	writeJSON(w, http.StatusAccepted, launchResponse{Status: "launching", Kind: "server"})
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration store unavailable")
		return
	}

	servers, err := s.store.Servers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list servers: %v", err))
		return
	}
	if servers == nil {
		servers = []configstore.ServerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

// decodeBody decodes an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}
