package publishers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const writeAsBaseURL = "https://write.as"

// WriteAsAdapter publishes anonymous posts to write.as. The API accepts
// markdown, so article HTML is converted before posting.
type WriteAsAdapter struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

type writeAsResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewWriteAsAdapter creates the write.as adapter.
func NewWriteAsAdapter(log logger.Logger) *WriteAsAdapter {
	return &WriteAsAdapter{
		baseURL: writeAsBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  log,
	}
}

func (a *WriteAsAdapter) Name() string { return "writeas" }

// Publish posts the article and returns its public URL.
func (a *WriteAsAdapter) Publish(ctx context.Context, campaign *domain.Campaign, article *content.Article) (string, error) {
	payload := map[string]string{
		"title": article.Title,
		"body":  htmlToMarkdown(article.Body),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: writeas: marshal payload: %v", domain.ErrPublishFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/posts", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: writeas: create request: %v", domain.ErrPublishFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: writeas: http request: %v", domain.ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	var result writeAsResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return "", fmt.Errorf("%w: writeas: decode response: %v", domain.ErrPublishFailed, decodeErr)
	}

	if resp.StatusCode >= http.StatusBadRequest || result.Code != http.StatusCreated {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: writeas: post creation failed: %s", domain.ErrPublishFailed, msg)
	}

	url := fmt.Sprintf("%s/%s", a.baseURL, result.Data.ID)
	a.logger.Info("published to write.as",
		logger.String("campaign_id", campaign.ID.String()),
		logger.String("url", url))
	return url, nil
}

var (
	h1Re       = regexp.MustCompile(`(?i)<h1[^>]*>(.*?)</h1>`)
	h2Re       = regexp.MustCompile(`(?i)<h2[^>]*>(.*?)</h2>`)
	h3Re       = regexp.MustCompile(`(?i)<h3[^>]*>(.*?)</h3>`)
	h4Re       = regexp.MustCompile(`(?i)<h4[^>]*>(.*?)</h4>`)
	pOpenRe    = regexp.MustCompile(`(?i)<p[^>]*>`)
	pCloseRe   = regexp.MustCompile(`(?i)</p>`)
	strongRe   = regexp.MustCompile(`(?i)<strong[^>]*>(.*?)</strong>`)
	boldRe     = regexp.MustCompile(`(?i)<b[^>]*>(.*?)</b>`)
	emRe       = regexp.MustCompile(`(?i)<em[^>]*>(.*?)</em>`)
	italicRe   = regexp.MustCompile(`(?i)<i[^>]*>(.*?)</i>`)
	linkRe     = regexp.MustCompile(`(?i)<a[^>]*href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
	listItemRe = regexp.MustCompile(`(?i)<li[^>]*>(.*?)</li>`)
	listRe     = regexp.MustCompile(`(?i)</?[uo]l[^>]*>`)
	newlinesRe = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// htmlToMarkdown converts the generated article HTML to markdown for
// platforms that do not accept HTML bodies.
func htmlToMarkdown(html string) string {
	md := html
	md = h1Re.ReplaceAllString(md, "# $1")
	md = h2Re.ReplaceAllString(md, "## $1")
	md = h3Re.ReplaceAllString(md, "### $1")
	md = h4Re.ReplaceAllString(md, "#### $1")
	md = pOpenRe.ReplaceAllString(md, "")
	md = pCloseRe.ReplaceAllString(md, "\n\n")
	md = linkRe.ReplaceAllString(md, "[$2]($1)")
	md = strongRe.ReplaceAllString(md, "**$1**")
	md = boldRe.ReplaceAllString(md, "**$1**")
	md = emRe.ReplaceAllString(md, "*$1*")
	md = italicRe.ReplaceAllString(md, "*$1*")
	md = listItemRe.ReplaceAllString(md, "• $1")
	md = listRe.ReplaceAllString(md, "")
	md = stripAllTags(md)
	md = newlinesRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}
