package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"quiz-monitor-service/internal/lti"
	"quiz-monitor-service/internal/service"
)

type LTIHandler struct {
	Auth        *lti.Authenticator
	Sessions    *service.SessionService
	FrontendURL string
}

func NewLTIHandler(auth *lti.Authenticator, sessions *service.SessionService, frontendURL string) *LTIHandler {
	return &LTIHandler{Auth: auth, Sessions: sessions, FrontendURL: frontendURL}
}

// HandleLaunch is the signed form-encoded entry point from the LMS. A valid
// launch mints a session and redirects to the client app with the token as
// a query parameter. Denials carry a generic message only.
func (h *LTIHandler) HandleLaunch(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Malformed launch request"})
		return
	}

	params := lti.FormParams(c.Request)
	launchURL := lti.LaunchURL(c.Request)

	ticket, err := h.Auth.Authenticate(c.Request.Method, launchURL, params)
	if err != nil {
		if errors.Is(err, lti.ErrNotConfigured) {
			log.Println("LTI launch rejected: consumer key/secret not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "LTI not configured"})
			return
		}
		log.Printf("Invalid LTI launch from consumer %q", params["oauth_consumer_key"])
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid LTI launch"})
		return
	}

	token, err := h.Sessions.Issue(c.Request.Context(), ticket)
	if err != nil {
		log.Printf("Error creating LTI session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error processing LTI launch"})
		return
	}

	log.Printf("LTI session created for user %s (%s)", ticket.UserName, ticket.UserID)
	c.Redirect(http.StatusFound, h.FrontendURL+"?token="+url.QueryEscape(token))
}

// ValidateToken lets the client re-identify itself after the launch
// redirect. Unknown and expired tokens are indistinguishable to the caller.
func (h *LTIHandler) ValidateToken(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Token required"})
		return
	}

	session, err := h.Sessions.Validate(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrSessionDenied) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid or expired token"})
			return
		}
		log.Printf("Error validating token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error validating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"data": gin.H{
			"userId":   session.UserID,
			"userName": session.UserName,
			"courseId": session.CourseID,
			"role":     session.Role,
		},
	})
}
