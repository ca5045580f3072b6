package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	sessionAccessToken = "access_token"
	sessionAdminEmail  = "admin_email"
	sessionOAuthState  = "oauth_state"

	githubEmailsURL = "https://api.github.com/user/emails"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// Auth guards the admin API. Browsers log in through GitHub and must own a
// verified email on the admin allowlist; scripts present the hook API key.
type Auth struct {
	oauth     *oauth2.Config
	admins    AdminChecker
	apiKey    string
	emailsURL string
	log       *logrus.Entry
}

func NewAuth(oauth *oauth2.Config, admins AdminChecker, apiKey string, logger *logrus.Logger) *Auth {
	return &Auth{
		oauth:     oauth,
		admins:    admins,
		apiKey:    apiKey,
		emailsURL: githubEmailsURL,
		log:       logger.WithField("component", "auth"),
	}
}

// providedAPIKey reads X-API-Key, falling back to a Bearer token.
func providedAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func (a *Auth) validAPIKey(c *gin.Context) bool {
	key := providedAPIKey(c)
	return a.apiKey != "" && key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1
}

// AuthRequired admits an admin session or a valid API key.
func (a *Auth) AuthRequired(c *gin.Context) {
	if a.validAPIKey(c) {
		c.Next()
		return
	}
	session := sessions.Default(c)
	if session.Get(sessionAccessToken) == nil || session.Get(sessionAdminEmail) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

// APIKeyRequired admits only callers presenting the hook API key.
func (a *Auth) APIKeyRequired(c *gin.Context) {
	if providedAPIKey(c) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "API key required",
			"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
		})
		return
	}
	if !a.validAPIKey(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}
	c.Next()
}

func (a *Auth) GithubLogin(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to start login")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

func (a *Auth) AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	expected, _ := session.Get(sessionOAuthState).(string)
	session.Delete(sessionOAuthState)
	if expected == "" || c.Query("state") != expected {
		_ = session.Save()
		c.String(http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	ctx := c.Request.Context()
	token, err := a.oauth.Exchange(ctx, c.Query("code"))
	if err != nil {
		a.log.WithError(err).Warn("OAuth exchange failed")
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	email, err := a.adminEmail(ctx, token)
	if err != nil {
		a.log.WithError(err).Warn("Admin lookup failed")
		c.String(http.StatusInternalServerError, "Failed to verify account")
		return
	}
	if email == "" {
		_ = session.Save()
		c.String(http.StatusForbidden, "This account is not allowed to administer the site")
		return
	}

	session.Set(sessionAccessToken, token.AccessToken)
	session.Set(sessionAdminEmail, email)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to save session")
		return
	}
	a.log.WithField("email", email).Info("Admin logged in")
	c.Redirect(http.StatusFound, "/admin")
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// adminEmail returns the first verified GitHub email on the allowlist, or
// "" when there is none.
func (a *Auth) adminEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.emailsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github emails: unexpected status %d", resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("github emails: %w", err)
	}
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		ok, err := a.admins.IsAdmin(ctx, e.Email)
		if err != nil {
			return "", err
		}
		if ok {
			return strings.ToLower(e.Email), nil
		}
	}
	return "", nil
}

func (a *Auth) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (a *Auth) Me(c *gin.Context) {
	email, _ := sessions.Default(c).Get(sessionAdminEmail).(string)
	c.JSON(http.StatusOK, gin.H{"email": email, "apiKey": email == "" && a.validAPIKey(c)})
}
