package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// TemplateGenerator produces deterministic articles from a fixed HTML
// template. It serves as the generator when no API key is configured and
// as the fallback when the OpenAI call fails.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template-backed generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate renders the template for the campaign. It never fails.
func (g *TemplateGenerator) Generate(_ context.Context, campaign *domain.Campaign) (*Article, error) {
	link := fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
		campaign.TargetURL, campaign.AnchorText)

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Understanding %s: A Comprehensive Guide</h1>\n\n", campaign.Keyword)
	fmt.Fprintf(&b, "<p>In today's rapidly evolving landscape, understanding %s has become essential for professionals and businesses alike. This guide explores the key aspects, benefits, and practical applications of %s.</p>\n\n",
		campaign.Keyword, campaign.Keyword)
	fmt.Fprintf(&b, "<h2>What is %s?</h2>\n\n", campaign.Keyword)
	fmt.Fprintf(&b, "<p>%s represents a fundamental concept that impacts various aspects of modern business and technology. By mastering the principles of %s, organizations can achieve significant improvements in efficiency, performance, and overall success.</p>\n\n",
		campaign.Keyword, campaign.Keyword)
	fmt.Fprintf(&b, "<h2>Key Benefits of %s</h2>\n\n", campaign.Keyword)
	b.WriteString("<ul>\n<li>Enhanced operational efficiency</li>\n<li>Improved user experience and satisfaction</li>\n<li>Better decision-making through informed insights</li>\n<li>Competitive advantage in the marketplace</li>\n</ul>\n\n")
	fmt.Fprintf(&b, "<h2>Getting Started with %s</h2>\n\n", campaign.Keyword)
	fmt.Fprintf(&b, "<p>For those looking to deepen their expertise, %s offers practical resources and proven strategies for working with %s effectively.</p>\n\n",
		link, campaign.Keyword)
	fmt.Fprintf(&b, "<h2>Conclusion</h2>\n\n")
	fmt.Fprintf(&b, "<p>As %s continues to shape modern practice, staying informed about its developments is more important than ever. Start applying these principles today to see measurable results.</p>\n",
		campaign.Keyword)

	return &Article{
		Title: fmt.Sprintf("%s: Professional Guide", campaign.Keyword),
		Body:  b.String(),
	}, nil
}
