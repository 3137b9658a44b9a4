package content

import (
	"fmt"
	"math/rand"
	"strings"

	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const systemPrompt = "You are a professional content writer. Create high-quality, " +
	"informative blog posts with natural link placement. Format the output as HTML " +
	"with proper headings, paragraphs, and hyperlinks."

const defaultWordCount = 800

// Three prompt variations are rotated per generation so that published
// articles do not share an identical phrasing footprint.
var promptTemplates = []string{
	"Generate a blog post on %s including the %s hyperlinked to %s",
	"Write an article about %s with a hyperlinked %s linked to %s",
	"Produce a write up on %s that links %s to %s",
}

// chatClient is the slice of the OpenAI client the generator uses.
// Narrowed so tests can substitute a fake without an HTTP server.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator generates articles via chat completions, falling back to
// the template generator when the API call fails. Generation failures are
// logged but never surface as errors: a campaign step should not stall on
// a flaky completion endpoint.
type OpenAIGenerator struct {
	client    chatClient
	fallback  *TemplateGenerator
	model     string
	wordCount int
	logger    logger.Logger
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API. A
// non-positive wordCount falls back to 800.
func NewOpenAIGenerator(apiKey, model string, wordCount int, log logger.Logger) *OpenAIGenerator {
	if wordCount <= 0 {
		wordCount = defaultWordCount
	}
	return &OpenAIGenerator{
		client:    openai.NewClient(apiKey),
		fallback:  NewTemplateGenerator(),
		model:     model,
		wordCount: wordCount,
		logger:    log,
	}
}

// Generate produces an article for the campaign using a randomly selected
// prompt variation.
func (g *OpenAIGenerator) Generate(ctx context.Context, campaign *domain.Campaign) (*Article, error) {
	promptIndex := rand.Intn(len(promptTemplates))
	prompt := fmt.Sprintf(promptTemplates[promptIndex],
		campaign.Keyword, campaign.AnchorText, campaign.TargetURL)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("%s. Make the article at least %d words, "+
					"well-structured with headings, and naturally incorporate "+
					"the hyperlink. Format as HTML.", prompt, g.wordCount),
			},
		},
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		g.logger.Warn("content generation failed, using template fallback",
			logger.String("campaign_id", campaign.ID.String()),
			logger.Error(err))
		return g.fallback.Generate(ctx, campaign)
	}
	if len(resp.Choices) == 0 {
		g.logger.Warn("content generation returned no choices, using template fallback",
			logger.String("campaign_id", campaign.ID.String()))
		return g.fallback.Generate(ctx, campaign)
	}

	body := ensureAnchorLinked(resp.Choices[0].Message.Content,
		campaign.AnchorText, campaign.TargetURL)

	return &Article{
		Title:       fmt.Sprintf("%s: Professional Guide", campaign.Keyword),
		Body:        body,
		PromptIndex: promptIndex + 1,
	}, nil
}

// ensureAnchorLinked wraps the first occurrence of the anchor text in a
// hyperlink when the model did not emit one itself.
func ensureAnchorLinked(body, anchorText, targetURL string) string {
	if strings.Contains(body, `href="`+targetURL+`"`) {
		return body
	}
	idx := strings.Index(strings.ToLower(body), strings.ToLower(anchorText))
	if idx < 0 {
		// No anchor text in the body at all; append a closing paragraph
		// carrying the link so the article still serves its purpose.
		return body + fmt.Sprintf(
			"\n<p>Learn more at <a href=\"%s\" target=\"_blank\" rel=\"noopener noreferrer\">%s</a>.</p>",
			targetURL, anchorText)
	}
	original := body[idx : idx+len(anchorText)]
	link := fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
		targetURL, original)
	return body[:idx] + link + body[idx+len(anchorText):]
}
