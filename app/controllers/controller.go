// Package controllers adapts the services to HTTP. Handlers are ctx.HandlerFunc
// values wrapped with ctx.Wrap by the route table.
package controllers

import (
	"errors"
	"net/http"

	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/pkg/ctx"
)

// genericFailure is shown to shoppers for any unexpected error.
const genericFailure = "وقع خطأ، عاود المحاولة من فضلك"

// fail maps a service error onto the response envelope.
func fail(c *ctx.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		c.NotFound()
	case errors.Is(err, services.ErrInvalidStatus):
		c.ValidationError(map[string]string{"status": "The selected status is invalid."})
	case errors.Is(err, services.ErrSeedNeedsConfirmation):
		c.Error(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnsupportedImage):
		c.Error(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, services.ErrAdminDisabled):
		c.Error(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrTokenRevoked):
		c.Unauthorized()
	default:
		c.Log().Error("request failed", "error", err)
		c.Error(http.StatusInternalServerError, genericFailure)
	}
}
