package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tessera-chat/tessera/internal/session"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Channel *ChannelHandler
	Message *MessageHandler
	Standup *StandupHandler
	Stream  *StreamHandler
}

// RegisterRoutes mounts the full surface on the engine. The credential
// endpoints are public (and rate limited); everything else sits behind
// the session middleware.
func RegisterRoutes(srv *gin.Engine, sessions session.Authority, h Handlers) {
	// Health is public so load balancers can probe without a session.
	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := srv.Group("/v1/auth")
	public.Use(RateLimit(5, 10))
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.POST("/passwordreset/request", h.Auth.ResetRequest)
	public.POST("/passwordreset/reset", h.Auth.ResetPassword)

	v1 := srv.Group("/v1")
	v1.Use(AuthMiddleware(sessions))

	v1.POST("/auth/logout", h.Auth.Logout)
	v1.POST("/admin/userpermission/change", h.User.ChangeRole)

	v1.GET("/users/all", h.User.All)
	v1.GET("/user/profile", h.User.Profile)
	v1.PUT("/user/profile/setname", h.User.SetName)
	v1.PUT("/user/profile/setemail", h.User.SetEmail)
	v1.PUT("/user/profile/sethandle", h.User.SetHandle)
	v1.POST("/user/profile/uploadphoto", h.User.UploadPhoto)

	v1.POST("/channels/create", h.Channel.Create)
	v1.GET("/channels/list", h.Channel.List)
	v1.GET("/channels/listall", h.Channel.ListAll)
	v1.POST("/channel/join", h.Channel.Join)
	v1.POST("/channel/leave", h.Channel.Leave)
	v1.POST("/channel/invite", h.Channel.Invite)
	v1.POST("/channel/addowner", h.Channel.AddOwner)
	v1.POST("/channel/removeowner", h.Channel.RemoveOwner)
	v1.GET("/channel/details", h.Channel.Details)
	v1.GET("/channel/messages", h.Channel.Messages)

	v1.POST("/message/send", h.Message.Send)
	v1.POST("/message/sendlater", h.Message.SendLater)
	v1.PUT("/message/edit", h.Message.Edit)
	v1.DELETE("/message/remove", h.Message.Remove)
	v1.POST("/message/pin", h.Message.Pin)
	v1.POST("/message/unpin", h.Message.Unpin)
	v1.POST("/message/react", h.Message.React)
	v1.POST("/message/unreact", h.Message.Unreact)
	v1.GET("/search", h.Message.Search)

	v1.POST("/standup/start", h.Standup.Start)
	v1.POST("/standup/send", h.Standup.Send)
	v1.GET("/standup/active", h.Standup.Active)

	v1.GET("/ws", h.Stream.Stream)
}
