package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/logsink"
	"github.com/hylauncher/hylauncher/internal/token"
)

var (
	profileRoles        = []string{"player", "tester", "admin"}
	profileEntitlements = []string{"hytale_base_game", "early_access_pack"}
)

type profileResponse struct {
	Username      string         `json:"username"`
	UUID          string         `json:"uuid"`
	IdentityToken string         `json:"identity_token"`
	Roles         []string       `json:"roles"`
	AvatarData    map[string]any `json:"avatar_data"`
	Entitlements  []string       `json:"entitlements"`
}

type friendsResponse struct {
	Friends []any `json:"friends"`
	Pending []any `json:"pending"`
}

type serversResponse struct {
	Servers []any `json:"servers"`
}

type serviceResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Handler returns the request handler without binding a listener.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveHTTP)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.RequestURI
	if path == "" {
		path = r.URL.RequestURI()
	}

	if s.sink != nil {
		s.sink.Emit(fmt.Sprintf("Intercepted %s: %s%s", r.Method, r.Host, path), logsink.TagEmulator)
	}

	if r.Method == http.MethodPost {
		writeJSON(w, statusResponse{Status: "success"})
		return
	}

	switch {
	case strings.Contains(path, "user/profile"):
		writeJSON(w, s.profileBody(r.Context()))
	case strings.Contains(path, "friends"):
		writeJSON(w, friendsResponse{Friends: []any{}, Pending: []any{}})
	case strings.Contains(path, "servers"):
		writeJSON(w, serversResponse{Servers: []any{}})
	default:
		writeJSON(w, serviceResponse{Status: "ok", Service: ServiceName})
	}
}

func (s *Server) profileBody(ctx context.Context) profileResponse {
	profile := s.activeProfile(ctx)

	avatar := profile.AvatarData
	if avatar == nil {
		avatar = map[string]any{}
	}

	return profileResponse{
		Username:      profile.Username,
		UUID:          profile.UUID,
		IdentityToken: token.Mint(profile),
		Roles:         profileRoles,
		AvatarData:    avatar,
		Entitlements:  profileEntitlements,
	}
}

func (s *Server) activeProfile(ctx context.Context) configstore.Profile {
	if s.profiles == nil {
		return configstore.RecoveryProfile()
	}

	ctx, cancel := context.WithTimeout(ctx, profileReadTimeout)
	defer cancel()

	profile, err := s.profiles.ActiveProfile(ctx)
	if err != nil {
		log.Printf("[Emulator] active profile unavailable, serving recovery profile: %v", err)
		return configstore.RecoveryProfile()
	}
	return profile
}

// writeJSON writes a 200 application/json response with a compact body.
func writeJSON(w http.ResponseWriter, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("[Emulator] failed to encode response: %v", err)
		data = []byte(`{}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("[Emulator] failed to write response: %v", err)
	}
}
