package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/discord"
	"mediadrop/gateway/internal/domain"
	"mediadrop/gateway/internal/session"
)

// stateCookieName holds the OAuth state nonce between the login redirect and
// the callback.
const stateCookieName = "mediadrop_oauth_state"

const stateCookieMaxAge = 300 // seconds

// IdentityExchanger is the slice of the identity provider the handlers
// consume: build an authorize URL, and turn a code into an identity with
// role claims.
type IdentityExchanger interface {
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (*domain.SessionUser, error)
}

// AuthHandler serves the authentication flow paths, which the gate exempts.
type AuthHandler struct {
	cfg      *config.ServerConfig
	codec    *session.Codec
	identity IdentityExchanger
}

// NewAuthHandler creates an AuthHandler. identity may be nil when role-gating
// is disabled; the routes then answer 503.
func NewAuthHandler(cfg *config.ServerConfig, codec *session.Codec, identity IdentityExchanger) *AuthHandler {
	return &AuthHandler{cfg: cfg, codec: codec, identity: identity}
}

// Login starts the identity exchange: it parks a state nonce in a short-lived
// cookie and redirects the browser to the provider's authorize URL.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.identity == nil {
		abortWithError(c, http.StatusServiceUnavailable, "identity provider is not configured")
		return
	}

	state := uuid.NewString()
	c.SetCookie(stateCookieName, state, stateCookieMaxAge, "/", "", h.cfg.IsProduction(), true)
	c.Redirect(http.StatusFound, h.identity.AuthCodeURL(state))
}

// Callback finishes the identity exchange: verifies the state nonce, trades
// the code for an identity with role claims, seals the session, and sends the
// browser home.
func (h *AuthHandler) Callback(c *gin.Context) {
	if h.identity == nil {
		abortWithError(c, http.StatusServiceUnavailable, "identity provider is not configured")
		return
	}

	code := c.Query("code")
	if code == "" {
		abortWithError(c, http.StatusBadRequest, "missing code")
		return
	}

	wantState, err := c.Cookie(stateCookieName)
	if err != nil || wantState == "" || c.Query("state") != wantState {
		abortWithError(c, http.StatusBadRequest, "invalid state")
		return
	}
	// One-shot nonce.
	c.SetCookie(stateCookieName, "", -1, "/", "", h.cfg.IsProduction(), true)

	user, err := h.identity.Authenticate(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, discord.ErrNotGuildMember):
			abortWithError(c, http.StatusForbidden, "not a member of the required guild")
		case errors.Is(err, discord.ErrMissingRole):
			abortWithError(c, http.StatusForbidden, "missing required role")
		default:
			logrus.WithError(err).Warn("identity exchange failed")
			abortWithError(c, http.StatusUnauthorized, "failed to authenticate")
		}
		return
	}

	token, err := h.codec.Seal(user)
	if err != nil {
		logrus.WithError(err).Error("failed to seal session")
		abortWithError(c, http.StatusInternalServerError, "failed to create session")
		return
	}

	c.SetCookie(h.cfg.CookieName, token, int(h.codec.TTL().Seconds()), "/", "", h.cfg.IsProduction(), true)
	c.Redirect(http.StatusFound, "/")
}
