package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marko/tradelog-api/internal/config"
	"github.com/marko/tradelog-api/internal/oauth"
	"github.com/marko/tradelog-api/internal/services"
	"github.com/marko/tradelog-api/internal/session"
	"github.com/marko/tradelog-api/pkg/dto"
)

// Login modes for the OAuth flow: the browser flow ends in a session cookie,
// the API/desktop flow ends in a bearer token.
const (
	modeSession = "session"
	modeToken   = "token"
)

type AuthHandler struct {
	cfg         *config.Config
	providers   map[string]oauth.Provider
	userService UserServiceInterface
	jwtService  JWTServiceInterface
	sessions    SessionBridgeInterface
	states      sync.Map
}

type stateData struct {
	mode      string
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	jwtService JWTServiceInterface,
	sessions SessionBridgeInterface,
) *AuthHandler {
	h := &AuthHandler{
		cfg:         cfg,
		providers:   make(map[string]oauth.Provider),
		userService: userService,
		jwtService:  jwtService,
		sessions:    sessions,
	}

	if cfg.GitHub.ClientID != "" {
		h.providers["github"] = oauth.NewGitHubProvider(cfg.GitHub)
	}
	if cfg.Google.ClientID != "" {
		h.providers["google"] = oauth.NewGoogleProvider(cfg.Google)
	}

	go h.cleanupStates()

	return h
}

func (h *AuthHandler) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		now := time.Now()
		h.states.Range(func(key, value interface{}) bool {
			if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
				h.states.Delete(key)
			}
			return true
		})
	}
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	mode := c.QueryParam("mode")
	if mode != modeToken {
		mode = modeSession
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	h.states.Store(state, stateData{mode: mode, expiresAt: time.Now().Add(10 * time.Minute)})

	_ = c.JSON(200, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, "invalid or expired state")
		return
	}

	sdTyped, ok := sd.(stateData)
	if !ok || time.Now().After(sdTyped.expiresAt) {
		h.redirectWithError(c, "state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx := c.Request.Context()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.ResolveOAuth(ctx, userInfo)
	if err != nil {
		h.redirectWithError(c, "sign-in failed")
		return
	}

	if sdTyped.mode == modeToken {
		token, err := h.jwtService.Issue(user.ID)
		if err != nil {
			c.InternalServerError("failed to issue token")
			return
		}
		_ = c.JSON(200, dto.TokenResponse{
			AccessToken: token,
			ExpiresIn:   int64(h.jwtService.AccessExpiry().Seconds()),
		})
		return
	}

	sid, err := h.sessions.Serialize(user)
	if err != nil {
		h.redirectWithError(c, "failed to create session")
		return
	}

	h.setSessionCookie(c, sid, h.sessions.TTL())
	http.Redirect(c.Response, c.Request, h.cfg.FrontendURL, http.StatusFound)
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.BadRequest("a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		c.BadRequest("password must be at least 8 characters")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Email[:strings.Index(req.Email, "@")]
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.BadRequest("email already registered")
			return
		}
		c.InternalServerError("failed to register")
		return
	}

	_ = c.JSON(201, userResponse(user))
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		// Invalid email, wrong password and deactivated account all look
		// the same from outside.
		c.Unauthorized("invalid email or password")
		return
	}

	token, err := h.jwtService.Issue(user.ID)
	if err != nil {
		c.InternalServerError("failed to issue token")
		return
	}

	if err := h.userService.TouchLastLogin(ctx, user.ID); err != nil {
		c.InternalServerError("failed to record login")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.jwtService.AccessExpiry().Seconds()),
	})
}

// Session resolves the browser session cookie back to a user. An invalid or
// dangling session clears the cookie and demands re-authentication.
func (h *AuthHandler) Session(c *drift.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil {
		c.Unauthorized("no session")
		return
	}

	user, err := h.sessions.Deserialize(c.Request.Context(), cookie.Value)
	if err != nil {
		h.setSessionCookie(c, "", -time.Hour)
		c.Unauthorized("session expired")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func (h *AuthHandler) Logout(c *drift.Context) {
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil {
		h.sessions.Revoke(cookie.Value)
	}
	h.setSessionCookie(c, "", -time.Hour)

	_ = c.JSON(200, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) setSessionCookie(c *drift.Context, value string, maxAge time.Duration) {
	http.SetCookie(c.Response, &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	redirectURL := fmt.Sprintf("%s/login?error=%s",
		h.cfg.FrontendURL,
		url.QueryEscape(errMsg),
	)
	http.Redirect(c.Response, c.Request, redirectURL, http.StatusFound)
}
