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

const (
	telegraphBaseURL   = "https://api.telegra.ph"
	telegraphShortName = "LinkBuilder"
	telegraphAuthor    = "Professional Content"
)

// TelegraphAdapter publishes to telegra.ph. Telegraph is accountless in
// practice: a throwaway account is created per publish and its token used
// once for the page.
type TelegraphAdapter struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

type telegraphAccountResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result struct {
		AccessToken string `json:"access_token"`
	} `json:"result"`
}

type telegraphPageResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result struct {
		URL string `json:"url"`
	} `json:"result"`
}

// telegraphNode is one element of Telegraph's DOM content format. A node
// is either a bare string or a tagged element, so children holds `any`.
type telegraphNode struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []any             `json:"children,omitempty"`
}

// NewTelegraphAdapter creates the telegra.ph adapter.
func NewTelegraphAdapter(log logger.Logger) *TelegraphAdapter {
	return &TelegraphAdapter{
		baseURL: telegraphBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  log,
	}
}

func (a *TelegraphAdapter) Name() string { return "telegraph" }

// Publish creates a Telegraph account and page, returning the page URL.
func (a *TelegraphAdapter) Publish(ctx context.Context, campaign *domain.Campaign, article *content.Article) (string, error) {
	token, err := a.createAccount(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: telegraph: %v", domain.ErrPublishFailed, err)
	}

	nodes := htmlToTelegraphNodes(article.Body)
	url, err := a.createPage(ctx, token, article.Title, nodes)
	if err != nil {
		return "", fmt.Errorf("%w: telegraph: %v", domain.ErrPublishFailed, err)
	}

	a.logger.Info("published to telegraph",
		logger.String("campaign_id", campaign.ID.String()),
		logger.String("url", url))
	return url, nil
}

func (a *TelegraphAdapter) createAccount(ctx context.Context) (string, error) {
	payload := map[string]string{
		"short_name":  telegraphShortName,
		"author_name": telegraphAuthor,
		"author_url":  "",
	}

	var resp telegraphAccountResponse
	if err := a.post(ctx, "/createAccount", payload, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("account creation failed: %s", resp.Error)
	}
	return resp.Result.AccessToken, nil
}

func (a *TelegraphAdapter) createPage(ctx context.Context, token, title string, nodes []telegraphNode) (string, error) {
	payload := map[string]any{
		"access_token":   token,
		"title":          title,
		"author_name":    telegraphAuthor,
		"content":        nodes,
		"return_content": false,
	}

	var resp telegraphPageResponse
	if err := a.post(ctx, "/createPage", payload, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("page creation failed: %s", resp.Error)
	}
	return resp.Result.URL, nil
}

func (a *TelegraphAdapter) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var inlineFormatRe = regexp.MustCompile(`(?i)(<a\s+href="([^"]+)"[^>]*>([^<]+)</a>|<strong>([^<]+)</strong>|<b>([^<]+)</b>)`)

// htmlToTelegraphNodes converts article HTML to Telegraph's DOM format.
// Telegraph pages may not use h1/h2, so headings shift down to h3/h4.
// List items flatten to bulleted paragraphs.
func htmlToTelegraphNodes(html string) []telegraphNode {
	var nodes []telegraphNode

	for _, line := range strings.Split(html, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "<h1>"):
			nodes = append(nodes, telegraphNode{
				Tag:      "h3",
				Children: []any{stripTag(trimmed, "h1")},
			})
		case strings.HasPrefix(trimmed, "<h2>"):
			nodes = append(nodes, telegraphNode{
				Tag:      "h4",
				Children: []any{stripTag(trimmed, "h2")},
			})
		case strings.HasPrefix(trimmed, "<h3>"):
			nodes = append(nodes, telegraphNode{
				Tag:      "h4",
				Children: []any{stripTag(trimmed, "h3")},
			})
		case strings.HasPrefix(trimmed, "<p>"):
			children := parseInlineContent(stripTag(trimmed, "p"))
			if len(children) > 0 {
				nodes = append(nodes, telegraphNode{Tag: "p", Children: children})
			}
		case strings.HasPrefix(trimmed, "<li>"):
			children := parseInlineContent(stripTag(trimmed, "li"))
			if len(children) > 0 {
				nodes = append(nodes, telegraphNode{
					Tag:      "p",
					Children: append([]any{"• "}, children...),
				})
			}
		case strings.HasPrefix(trimmed, "<ul>"), strings.HasPrefix(trimmed, "</ul>"),
			strings.HasPrefix(trimmed, "<ol>"), strings.HasPrefix(trimmed, "</ol>"):
			// List container tags carry no content of their own.
		default:
			text := strings.TrimSpace(stripAllTags(trimmed))
			if text != "" {
				nodes = append(nodes, telegraphNode{Tag: "p", Children: []any{text}})
			}
		}
	}

	return nodes
}

// parseInlineContent splits a text fragment into Telegraph children,
// turning <a> into link nodes and <strong>/<b> into bold nodes.
func parseInlineContent(text string) []any {
	var result []any
	current := 0

	for _, match := range inlineFormatRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := match[0], match[1]
		if start > current {
			before := text[current:start]
			if strings.TrimSpace(before) != "" {
				result = append(result, before)
			}
		}

		full := text[start:end]
		switch {
		case strings.HasPrefix(strings.ToLower(full), "<a"):
			href := text[match[4]:match[5]]
			label := text[match[6]:match[7]]
			result = append(result, telegraphNode{
				Tag:      "a",
				Attrs:    map[string]string{"href": href},
				Children: []any{label},
			})
		default:
			var bold string
			if match[8] >= 0 {
				bold = text[match[8]:match[9]]
			} else {
				bold = text[match[10]:match[11]]
			}
			result = append(result, telegraphNode{Tag: "b", Children: []any{bold}})
		}

		current = end
	}

	if current < len(text) {
		remaining := text[current:]
		if strings.TrimSpace(remaining) != "" {
			result = append(result, remaining)
		}
	}

	if len(result) == 0 && strings.TrimSpace(text) != "" {
		result = append(result, text)
	}
	return result
}

func stripTag(s, tag string) string {
	s = strings.ReplaceAll(s, "<"+tag+">", "")
	return strings.ReplaceAll(s, "</"+tag+">", "")
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripAllTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
