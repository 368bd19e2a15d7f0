package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiz-monitor-service/internal/models"
)

const submissionsPerPage = 100

// Client is a read-only consumer of the Canvas REST API. All calls carry
// the configured bearer token and share a single request timeout.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ready reports whether the client has enough configuration to poll.
// Missing URL or token is the documented degraded mode: polling stays off.
func (c *Client) Ready() bool {
	return c.baseURL != "" && c.token != ""
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("canvas API %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetQuiz fetches quiz metadata for a (course, quiz) pair.
func (c *Client) GetQuiz(ctx context.Context, courseID, quizID string) (*models.CanvasQuiz, error) {
	var quiz models.CanvasQuiz
	path := fmt.Sprintf("/courses/%s/quizzes/%s", courseID, quizID)
	if err := c.get(ctx, path, nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizSubmissions fetches every submission page for a quiz, in the order
// Canvas returns them.
func (c *Client) GetQuizSubmissions(ctx context.Context, courseID, quizID string) ([]models.CanvasQuizSubmission, error) {
	path := fmt.Sprintf("/courses/%s/quizzes/%s/submissions", courseID, quizID)
	var all []models.CanvasQuizSubmission
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", fmt.Sprintf("%d", submissionsPerPage))
		query.Set("page", fmt.Sprintf("%d", page))

		var list models.CanvasQuizSubmissionList
		if err := c.get(ctx, path, query, &list); err != nil {
			return nil, err
		}
		all = append(all, list.QuizSubmissions...)
		if len(list.QuizSubmissions) < submissionsPerPage {
			return all, nil
		}
	}
}

// GetUserProfile resolves a Canvas user id to a display name.
func (c *Client) GetUserProfile(ctx context.Context, userID string) (*models.CanvasUser, error) {
	var user models.CanvasUser
	path := fmt.Sprintf("/users/%s/profile", userID)
	if err := c.get(ctx, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
