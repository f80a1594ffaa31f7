package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/router"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// AuthController serves the login, registration and external-login pages.
type AuthController struct {
	service     *auth.Service
	sessions    *auth.SessionManager
	rateLimiter *auth.RateLimiter
	views       *views
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager, rateLimiter *auth.RateLimiter, v *views) *AuthController {
	return &AuthController{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		views:       v,
	}
}

func (ac *AuthController) page(c *gin.Context, route string) PageData {
	r, _, _ := routeFor(c, route)
	return PageData{
		Title:     r.Name,
		Route:     r,
		CSRFField: auth.CSRFField(c),
		Error:     c.Query("error"),
	}
}

func (ac *AuthController) LoginPage(c *gin.Context) {
	data := ac.page(c, router.LoginPath)
	data.Next = auth.SafeRedirectPath(c.Query("redirect"))
	if c.Query("registered") != "" {
		data.Notice = "Account created. You can log in now."
	}
	ac.views.render(c, http.StatusOK, "login", data)
}

// Login submits the credentials to the backend. The rate limiter only counts
// rejections, not backend outages.
func (ac *AuthController) Login(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.PostForm("username")
	next := auth.SafeRedirectPath(c.PostForm("redirect"))
	ip := c.ClientIP()

	_, err := ac.service.Login(ctx, username, c.PostForm("password"))
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrProfileFetch) && errors.Is(err, session.ErrUnauthorized):
		// The new token was rejected on first use and is already cleared.
		log.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("http: token rejected right after login")
		data := ac.page(c, router.LoginPath)
		data.Next = next
		data.Username = username
		data.Error = "The server rejected the new session. Please log in again."
		ac.views.render(c, http.StatusUnauthorized, "login", data)
		return
	case errors.Is(err, auth.ErrProfileFetch):
		log.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("http: logged in without a profile")
	default:
		status := backendStatus(err)
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			if ac.rateLimiter != nil {
				ac.rateLimiter.RecordFailure(ip, username)
			}
		}
		data := ac.page(c, router.LoginPath)
		data.Next = next
		data.Username = username
		data.Error = backendMessage(err, "Invalid username or password")
		if errors.Is(err, auth.ErrMissingAccessToken) {
			status, data.Error = http.StatusBadGateway, "The server did not issue a session. Please try again."
		}
		ac.views.render(c, status, "login", data)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(ip, username)
	}
	ac.rotate(c)
	c.Redirect(http.StatusFound, next)
}

func (ac *AuthController) RegisterPage(c *gin.Context) {
	ac.views.render(c, http.StatusOK, "register", ac.page(c, "/register"))
}

func (ac *AuthController) Register(c *gin.Context) {
	username, email := c.PostForm("username"), c.PostForm("email")

	if _, err := ac.service.Register(c.Request.Context(), username, email, c.PostForm("password")); err != nil {
		if followPending(c) {
			return
		}
		data := ac.page(c, "/register")
		data.Username, data.Email = username, email
		data.Error = backendMessage(err, "Registration failed")
		ac.views.render(c, backendStatus(err), "register", data)
		return
	}

	c.Redirect(http.StatusFound, router.LoginPath+"?registered=1")
}

// Logout forgets the stored token; the backend is not told.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.service.Logout(c.Request.Context()); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	c.Redirect(http.StatusFound, router.LoginPath)
}

// GiteeLogin sends the browser to the provider's authorization page.
func (ac *AuthController) GiteeLogin(c *gin.Context) {
	resp, err := ac.service.GiteeLogin(c.Request.Context())
	if err != nil {
		if followPending(c) {
			return
		}
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("http: gitee login unavailable")
		c.Redirect(http.StatusFound, loginError("Gitee login is unavailable right now."))
		return
	}
	if followPending(c) {
		return
	}
	log.Ctx(c.Request.Context()).Warn().RawJSON("response", resp.Raw).Msg("http: gitee login returned no auth_url")
	c.Redirect(http.StatusFound, loginError("Gitee login is not configured."))
}

// GiteeCallback receives the token the backend hands back after the
// provider round trip.
func (ac *AuthController) GiteeCallback(c *gin.Context) {
	if !ac.service.HandleGiteeCallback(c.Request.Context(), c.Query("token"), c.Query("avatar_url")) {
		c.Redirect(http.StatusFound, loginError("Gitee login failed. Please try again."))
		return
	}
	ac.rotate(c)
	c.Redirect(http.StatusFound, router.HomePath)
}

// rotate renews the session cookie once a token is stored in it.
func (ac *AuthController) rotate(c *gin.Context) {
	if ac.sessions == nil {
		return
	}
	if err := ac.sessions.Rotate(c.Request.Context()); err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("http: session rotation failed")
	}
}

func loginError(msg string) string {
	return router.LoginPath + "?error=" + url.QueryEscape(msg)
}
