package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

func testCampaign(t *testing.T) *domain.Campaign {
	t.Helper()
	c, err := domain.NewCampaign(&domain.CampaignCreateRequest{
		Name:       "go hosting",
		Keyword:    "go hosting",
		AnchorText: "best go hosting",
		TargetURL:  "https://example.com/go-hosting",
	})
	require.NoError(t, err)
	return c
}

func testArticle() *content.Article {
	return &content.Article{
		Title: "go hosting: Professional Guide",
		Body: "<h1>Understanding go hosting</h1>\n" +
			"<p>Try <a href=\"https://example.com/go-hosting\">best go hosting</a> for <strong>reliable</strong> deploys.</p>\n" +
			"<ul>\n<li>Fast builds</li>\n</ul>\n",
	}
}

func TestTelegraphAdapter_Publish(t *testing.T) {
	var pageReq map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/createAccount":
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"access_token": "tok-123"},
			})
		case "/createPage":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&pageReq))
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"url": "https://telegra.ph/go-hosting-08-30"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := NewTelegraphAdapter(logger.NewNopLogger())
	adapter.baseURL = server.URL

	url, err := adapter.Publish(context.Background(), testCampaign(t), testArticle())
	require.NoError(t, err)
	assert.Equal(t, "https://telegra.ph/go-hosting-08-30", url)

	assert.Equal(t, "tok-123", pageReq["access_token"])
	assert.Equal(t, "go hosting: Professional Guide", pageReq["title"])
	assert.NotEmpty(t, pageReq["content"])
}

func TestTelegraphAdapter_AccountFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "FLOOD_WAIT"})
	}))
	defer server.Close()

	adapter := NewTelegraphAdapter(logger.NewNopLogger())
	adapter.baseURL = server.URL

	_, err := adapter.Publish(context.Background(), testCampaign(t), testArticle())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublishFailed)
	assert.Contains(t, err.Error(), "FLOOD_WAIT")
}

func TestHTMLToTelegraphNodes(t *testing.T) {
	nodes := htmlToTelegraphNodes(testArticle().Body)
	require.Len(t, nodes, 3)

	// Headings shift down: Telegraph rejects h1 and h2.
	assert.Equal(t, "h3", nodes[0].Tag)
	assert.Equal(t, []any{"Understanding go hosting"}, nodes[0].Children)

	assert.Equal(t, "p", nodes[1].Tag)
	var foundLink, foundBold bool
	for _, child := range nodes[1].Children {
		if node, ok := child.(telegraphNode); ok {
			switch node.Tag {
			case "a":
				foundLink = true
				assert.Equal(t, "https://example.com/go-hosting", node.Attrs["href"])
				assert.Equal(t, []any{"best go hosting"}, node.Children)
			case "b":
				foundBold = true
				assert.Equal(t, []any{"reliable"}, node.Children)
			}
		}
	}
	assert.True(t, foundLink, "expected a link node")
	assert.True(t, foundBold, "expected a bold node")

	// List items flatten to bulleted paragraphs.
	assert.Equal(t, "p", nodes[2].Tag)
	assert.Equal(t, "• ", nodes[2].Children[0])
}
