// Package api wires the HTTP surface of the messenger: account registration
// and login, user listing, admin activation toggles, media upload and the
// websocket chat endpoint.
package api

import (
	"messenger/internal/auth"
	"messenger/internal/chat"
	"messenger/internal/media"
	"messenger/internal/storage"

	"github.com/gin-gonic/gin"
)

// Server groups the collaborators the handlers need.
type Server struct {
	store  storage.Store
	tokens *auth.TokenManager
	relay  *chat.Relay
	media  *media.Service
}

func New(store storage.Store, tokens *auth.TokenManager, relay *chat.Relay, mediaSvc *media.Service) *Server {
	return &Server{
		store:  store,
		tokens: tokens,
		relay:  relay,
		media:  mediaSvc,
	}
}

// Register mounts all routes on the engine.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/", s.handleRoot)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.GET("/me", auth.RequireUser(s.store, s.tokens), s.handleMe)
	}

	users := r.Group("/users", auth.RequireUser(s.store, s.tokens))
	{
		users.GET("/", s.handleListUsers)
	}

	admin := r.Group("/admin", auth.RequireUser(s.store, s.tokens), auth.RequireAdmin())
	{
		admin.GET("/users", s.handleListUsers)
		admin.POST("/users/:id/toggle_active", s.handleToggleActive)
		admin.POST("/users/:id/activate", s.handleSetActive(true))
		admin.POST("/users/:id/deactivate", s.handleSetActive(false))
	}

	r.POST("/media/upload", s.handleMediaUpload)
	r.GET("/media/:filename", s.handleMediaGet)

	r.GET("/chat/ws", s.relay.HandleWS)
}
