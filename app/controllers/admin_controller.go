package controllers

import (
	"time"

	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/pkg/ctx"
	"github.com/hsmarket/storefront/pkg/middleware"
	"github.com/hsmarket/storefront/pkg/sse"
	"github.com/hsmarket/storefront/pkg/ws"
)

const streamHeartbeat = 25 * time.Second

type AdminController struct {
	auth   *services.AuthService
	hub    *ws.Hub
	stream *sse.Broker
}

func NewAdminController(auth *services.AuthService, hub *ws.Hub, stream *sse.Broker) *AdminController {
	return &AdminController{auth: auth, hub: hub, stream: stream}
}

type loginInput struct {
	Password string `json:"password" validate:"required,max=256"`
}

func (ac *AdminController) Login(c *ctx.Context) {
	var in loginInput
	if !c.BindJSON(&in) {
		return
	}
	session, err := ac.auth.Login(c.Context(), in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(session)
}

func (ac *AdminController) Logout(c *ctx.Context) {
	if err := ac.auth.Logout(c.Context(), middleware.BearerToken(c.R)); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// Live upgrades to the order event websocket.
func (ac *AdminController) Live(c *ctx.Context) {
	if err := ac.hub.Upgrade(c.W, c.R); err != nil {
		// The upgrader has already answered the client.
		c.Log().Warn("live feed upgrade failed", "error", err)
	}
}

// Stream serves the same order events as Live over Server-Sent Events.
func (ac *AdminController) Stream(c *ctx.Context) {
	if err := ac.stream.Serve(c.W, c.R, streamHeartbeat); err != nil {
		c.Log().Warn("event stream closed", "error", err)
	}
}
