// Package summary generates short sales summaries for high-scoring leads.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/store"
	"github.com/sells-group/leadscout/pkg/anthropic"
)

const systemPrompt = `You are a sales analyst specializing in identifying automation opportunities for companies.
Generate concise, actionable insights based on the available data.
If the data is sparse, state the uncertainty explicitly.
Keep the whole answer under 120 words.
Respond with a single JSON object and nothing else.`

// CompanySummary is the structured summary for one lead. The field names
// match what the reporting surfaces store and render.
type CompanySummary struct {
	WhatTheyDo    string   `json:"whatTheyDo"`
	WhyAutomation string   `json:"whyAutomation"`
	TopUseCases   []string `json:"topUseCases"`
	PitchAngle    string   `json:"pitchAngle"`
	RiskNotes     []string `json:"riskNotes"`
}

// Generator produces lead summaries via the Anthropic API, falling back to
// a deterministic template when the model is unavailable or unparseable.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Generator.
func New(client anthropic.Client, model string, maxTokens int64) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{client: client, model: model, maxTokens: maxTokens}
}

// Summarize generates and formats a summary for one company. Never returns
// an error for model failures: those degrade to the fallback summary.
func (g *Generator) Summarize(ctx context.Context, c *model.Company, topReasons []string) (string, error) {
	s, err := g.Generate(ctx, c, topReasons)
	if err != nil {
		return "", err
	}
	return FormatText(s), nil
}

// Generate produces the structured summary for one company.
func (g *Generator) Generate(ctx context.Context, c *model.Company, topReasons []string) (*CompanySummary, error) {
	if g.client == nil {
		return Fallback(c), nil
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(c, topReasons)},
		},
	})
	if err != nil {
		zap.L().Warn("summary generation fell back to template",
			zap.String("orgnr", c.Orgnr), zap.Error(err))
		return Fallback(c), nil
	}
	resp.Usage.LogCost(g.model, "summary")

	var s CompanySummary
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &s); err != nil {
		zap.L().Warn("summary response was not valid JSON",
			zap.String("orgnr", c.Orgnr), zap.Error(err))
		return Fallback(c), nil
	}
	return &s, nil
}

func buildPrompt(c *model.Company, topReasons []string) string {
	parts := []string{
		"Company: " + c.Name,
		"Organization Number: " + c.Orgnr,
	}
	if c.OrganizationFormName != "" {
		parts = append(parts, "Legal Form: "+c.OrganizationFormName)
	}
	if c.IndustryDescription != "" {
		parts = append(parts, fmt.Sprintf("Industry: %s (%s)", c.IndustryDescription, c.IndustryCode))
	}
	if c.EmployeeCount > 0 {
		parts = append(parts, fmt.Sprintf("Employees: %d", c.EmployeeCount))
	}
	if c.Municipality != "" {
		loc := c.Municipality
		if c.County != "" {
			loc += ", " + c.County
		}
		parts = append(parts, "Location: "+loc)
	}
	if c.Website != "" {
		parts = append(parts, "Website: "+c.Website)
	}
	if len(topReasons) > 0 {
		parts = append(parts, "Lead score signals: "+strings.Join(topReasons, "; "))
	}

	parts = append(parts,
		"",
		"Based on this data, provide:",
		"1. whatTheyDo: short description of what this company likely does (max 2 sentences)",
		"2. whyAutomation: why they might need AI automation (1-2 sentences)",
		"3. topUseCases: array of 3 specific automation use cases we could sell",
		"4. pitchAngle: suggested first-contact approach (1 sentence)",
		"5. riskNotes: array of concerns or missing data (if any)",
	)
	return strings.Join(parts, "\n")
}

// Fallback builds a deterministic summary from the snapshot alone.
func Fallback(c *model.Company) *CompanySummary {
	whatTheyDo := c.Name + " is a registered business."
	if c.IndustryDescription != "" {
		whatTheyDo = fmt.Sprintf("%s operates in %s.", c.Name, c.IndustryDescription)
	}

	var risks []string
	if c.Phone == "" && c.Email == "" {
		risks = append(risks, "Limited contact information available")
	}
	if c.Website == "" {
		risks = append(risks, "No website - digital maturity unclear")
	}
	if c.EmployeeCount == 0 {
		risks = append(risks, "Employee count unknown - size and budget unclear")
	}
	if len(risks) == 0 {
		risks = []string{"Limited data available for detailed analysis"}
	}

	return &CompanySummary{
		WhatTheyDo:    whatTheyDo,
		WhyAutomation: "Manual processes in operations, customer service or administration could benefit from automation.",
		TopUseCases: []string{
			"Process automation and workflow optimization",
			"Customer communication and CRM automation",
			"Data entry and document processing",
		},
		PitchAngle: "Lead with operational efficiency and cost reduction through targeted automation.",
		RiskNotes:  risks,
	}
}

// FormatText renders a structured summary as the plain text stored on the
// company record.
func FormatText(s *CompanySummary) string {
	parts := []string{
		"What they do:\n" + s.WhatTheyDo,
		"",
		"Why automation:\n" + s.WhyAutomation,
		"",
		"Top use cases:",
	}
	for _, uc := range s.TopUseCases {
		parts = append(parts, "• "+uc)
	}
	parts = append(parts, "", "Pitch angle:\n"+s.PitchAngle)
	if len(s.RiskNotes) > 0 {
		parts = append(parts, "", "Risk notes:")
		for _, rn := range s.RiskNotes {
			parts = append(parts, "- "+rn)
		}
	}
	return strings.Join(parts, "\n")
}

// GenerateBatch summarizes companies concurrently and persists the results.
// Returns the number of summaries stored.
func (g *Generator) GenerateBatch(ctx context.Context, st store.Store, companies []model.Company, concurrency int) (int, error) {
	if concurrency <= 0 {
		concurrency = 5
	}

	var stored int
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	results := make([]bool, len(companies))
	for i := range companies {
		c := &companies[i]
		group.Go(func() error {
			text, err := g.Summarize(gctx, c, nil)
			if err != nil {
				zap.L().Warn("summary failed", zap.String("orgnr", c.Orgnr), zap.Error(err))
				return nil
			}
			if err := st.UpdateSummary(gctx, c.ID, text); err != nil {
				zap.L().Warn("summary store failed", zap.String("orgnr", c.Orgnr), zap.Error(err))
				return nil
			}
			results[i] = true
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, eris.Wrap(err, "summary: batch")
	}
	for _, ok := range results {
		if ok {
			stored++
		}
	}
	return stored, nil
}

// extractJSON pulls the first JSON object out of a model response that may
// be wrapped in prose or a code fence.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
