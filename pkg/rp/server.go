package rp

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/identigo/relyingparty/pkg/session"
	"github.com/labstack/echo/v4"
)

// Server exposes the relying-party HTTP surface. All security-relevant
// rejections are logged in full and surfaced to the browser as a generic
// failure only.
type Server struct {
	auth    *Authenticator
	store   session.Store
	cookies *session.CookieManager
}

func NewServer(auth *Authenticator, store session.Store, cookies *session.CookieManager) *Server {
	return &Server{
		auth:    auth,
		store:   store,
		cookies: cookies,
	}
}

func ErrorLogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			slog.Error("Error", "error", err, "path", c.Path(), "remote_addr", c.RealIP())
		}
		return err
	}
}

func (s *Server) MountRoutes(group *echo.Group) {
	group.Use(ErrorLogMiddleware)
	group.GET("/login", s.LoginEndpoint)
	group.GET("/authorization-code/callback", s.CallbackEndpoint)
	group.GET("/logout", s.LogoutEndpoint)
	group.GET("/logout/callback", s.LogoutCallbackEndpoint)
	group.GET("/userinfo", s.UserinfoEndpoint)
	group.GET("/protected", s.ProtectedEndpoint)
}

// currentSession resolves the browser session from the signed cookie.
// Returns nil for missing, tampered or expired sessions.
func (s *Server) currentSession(c echo.Context) *session.Session {
	id, err := s.cookies.SessionID(c.Request())
	if err != nil {
		return nil
	}
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil
	}
	return sess
}

func (s *Server) LoginEndpoint(c echo.Context) error {
	sess := s.currentSession(c)
	if sess == nil {
		sess = session.NewSession()
		if err := s.cookies.SetSessionID(c.Response(), sess.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to start login")
		}
	}

	authURL, err := s.auth.Initiate(sess)
	if err != nil {
		slog.Error("Unable to initiate login", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to start login")
	}

	slog.Info("Initiating login", "session_id", sess.ID)
	return c.Redirect(http.StatusFound, authURL)
}

func (s *Server) CallbackEndpoint(c echo.Context) error {
	sess := s.currentSession(c)
	if sess == nil {
		slog.Error("Callback without a browser session", "remote_addr", c.RealIP())
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	if errCode := c.QueryParam("error"); errCode != "" {
		// consume the attempt so the callback cannot be retried
		_, _ = s.store.TakeLoginAttempt(sess.ID)
		slog.Error("Provider returned an error", "error", errCode, "error_description", c.QueryParam("error_description"))
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		_, _ = s.store.TakeLoginAttempt(sess.ID)
		slog.Error("Callback with missing code or state", "remote_addr", c.RealIP())
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	if err := s.auth.CompleteCallback(c.Request().Context(), sess, code, state); err != nil {
		slog.Error("Authentication failed", "error", err, "session_id", sess.ID, "remote_addr", c.RealIP())
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	slog.Info("Login completed", "session_id", sess.ID)
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) LogoutEndpoint(c echo.Context) error {
	sess := s.currentSession(c)
	if sess == nil {
		return c.Redirect(http.StatusFound, "/")
	}

	endSessionURL, err := s.auth.Logout(sess)
	if err != nil {
		slog.Error("Logout failed", "error", err, "session_id", sess.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to log out")
	}

	s.cookies.Clear(c.Response())

	if endSessionURL == "" {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Redirect(http.StatusFound, endSessionURL)
}

// LogoutCallbackEndpoint is where the provider redirects after clearing
// its own session. There is no local state left to change.
func (s *Server) LogoutCallbackEndpoint(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) UserinfoEndpoint(c echo.Context) error {
	sess := s.currentSession(c)
	if sess == nil || !sess.Authenticated {
		return c.JSON(http.StatusOK, map[string]any{"isAuthenticated": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"isAuthenticated": true,
		"user":            sess.Claims,
		"userInfo":        sess.UserInfo,
	})
}

func (s *Server) ProtectedEndpoint(c echo.Context) error {
	sess := s.currentSession(c)
	if sess == nil || !sess.Authenticated {
		return c.Redirect(http.StatusFound, "/login")
	}

	name, _ := sess.Claims["name"].(string)
	if name == "" {
		name, _ = sess.Claims["preferred_username"].(string)
	}

	return c.HTML(http.StatusOK, fmt.Sprintf(
		`<h1>Welcome, %s!</h1><p>This is a protected page.</p><a href="/logout">Logout</a>`,
		html.EscapeString(name),
	))
}
