package lti

import (
	"errors"
	"net/http"
	"strings"

	"quiz-monitor-service/internal/models"
)

// ErrLaunchDenied covers every authentication failure: consumer mismatch,
// missing or invalid signature. Callers get no more detail than this, so a
// probing consumer learns nothing about which check failed.
var ErrLaunchDenied = errors.New("LTI launch denied")

// ErrNotConfigured means the shared secret is absent. Fatal to the request,
// never to the process.
var ErrNotConfigured = errors.New("LTI consumer key/secret not configured")

type Authenticator struct {
	ConsumerKey    string
	ConsumerSecret string
}

func NewAuthenticator(consumerKey, consumerSecret string) *Authenticator {
	return &Authenticator{ConsumerKey: consumerKey, ConsumerSecret: consumerSecret}
}

// Authenticate verifies a signed launch request and maps it to a ticket.
// launchURL must be the URL the platform signed, which behind a proxy is the
// client-visible one (see LaunchURL).
func (a *Authenticator) Authenticate(method, launchURL string, params map[string]string) (*models.LaunchTicket, error) {
	if a.ConsumerKey == "" || a.ConsumerSecret == "" {
		return nil, ErrNotConfigured
	}
	if params["oauth_consumer_key"] != a.ConsumerKey {
		return nil, ErrLaunchDenied
	}
	if !VerifySignature(method, launchURL, params, a.ConsumerSecret) {
		return nil, ErrLaunchDenied
	}
	return ticketFromParams(params), nil
}

// ticketFromParams maps verified launch fields onto a ticket. The numeric
// custom_canvas_user_id takes precedence over the opaque user_id subject:
// the Canvas submissions API reports the numeric id, and mixing the two
// would split one student's history across two identities.
func ticketFromParams(params map[string]string) *models.LaunchTicket {
	userID := params["custom_canvas_user_id"]
	if userID == "" {
		userID = params["user_id"]
	}
	courseID := params["custom_canvas_course_id"]
	if courseID == "" {
		courseID = params["context_id"]
	}
	return &models.LaunchTicket{
		UserID:         userID,
		UserName:       params["lis_person_name_full"],
		CourseID:       courseID,
		ContextID:      params["context_id"],
		ResourceLinkID: params["resource_link_id"],
		Role:           mapRole(params["roles"]),
	}
}

// mapRole collapses the (possibly multi-valued, urn-prefixed) roles list to
// the three roles this service distinguishes.
func mapRole(roles string) models.Role {
	switch {
	case strings.Contains(roles, "Administrator"):
		return models.RoleAdministrator
	case strings.Contains(roles, "Instructor"):
		return models.RoleInstructor
	default:
		return models.RoleLearner
	}
}

// LaunchURL reconstructs the URL the platform believes it posted to. Behind
// a reverse proxy the forwarded headers carry the client-visible scheme and
// host; the signature was computed over those, not the internal address.
func LaunchURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.Path
}

// FormParams flattens a parsed form into the single-valued map the
// signature math works over.
func FormParams(r *http.Request) map[string]string {
	params := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}
