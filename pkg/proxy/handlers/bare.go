package handlers

import (
	"net/http"
)

// bareInfo describes the proxy endpoint for clients probing GET /bare/.
type bareInfo struct {
	Versions []string        `json:"versions"`
	Language string          `json:"language"`
	Project  bareProjectInfo `json:"project"`
}

type bareProjectInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// BareHandler serves GET /bare/ with static metadata describing the
// proxy, the shape bare-client libraries expect when probing a server.
type BareHandler struct{}

// NewBareHandler creates the bare info handler.
func NewBareHandler() *BareHandler {
	return &BareHandler{}
}

// ServeHTTP implements http.Handler.
func (h *BareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bareInfo{
		Versions: []string{"v1"},
		Language: "Go",
		Project: bareProjectInfo{
			Name:        "corsair",
			Description: "Bare proxy core with chat-completion gateway",
			Version:     Version,
		},
	})
}
