package httpserver

import (
	"errors"
	"net/http"
	"net/url"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	"storefront/internal/service/checkout"
	"storefront/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

// respondError maps a service error onto a status code and JSON body.
func (h *handler) respondError(c *gin.Context, err error) {
	var (
		verr   *checkout.ValidationError
		serr   *transport.StatusError
		urlErr *url.Error
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid form", Fields: verr.Fields})
	case errors.Is(err, transport.ErrAuthRequired), errors.Is(err, transport.ErrRefreshFailed):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "login required", Redirect: h.loginPath})
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &serr):
		if serr.StatusCode == http.StatusNotFound {
			c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}
		h.logger.WithError(err).Warn("upstream request failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "upstream request failed", Retryable: true})
	case errors.As(err, &urlErr):
		h.logger.WithError(err).Warn("upstream unreachable")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "upstream unreachable", Retryable: true})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// respondBindError reports a malformed or invalid request body.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
