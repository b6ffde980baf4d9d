package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/convosphere/convosphere-server/internal/relay"
)

// Handlers provides the REST endpoints next to the websocket.
type Handlers struct {
	hub *relay.Hub
}

// NewHandlers creates the REST handler set.
func NewHandlers(hub *relay.Hub) *Handlers {
	return &Handlers{hub: hub}
}

// Root answers the banner the browser client probes for.
// GET /
func (h *Handlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "API online")
}

// Health reports liveness.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// OnlineResponse lists the currently connected users.
type OnlineResponse struct {
	Users []UserInfo `json:"users"`
	Count int        `json:"count"`
}

// UserInfo is one online user as exposed over REST.
type UserInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
}

// Online returns the presence directory snapshot. Avatars are left out
// on purpose: they are opaque blobs, far too heavy for a listing.
// GET /api/online
func (h *Handlers) Online(c *gin.Context) {
	users := h.hub.Directory().Online()

	resp := OnlineResponse{Users: make([]UserInfo, 0, len(users)), Count: len(users)}
	for _, u := range users {
		resp.Users = append(resp.Users, UserInfo{
			Name:        u.Name,
			DisplayName: u.DisplayName,
			Admin:       u.Admin,
		})
	}
	c.JSON(http.StatusOK, resp)
}
