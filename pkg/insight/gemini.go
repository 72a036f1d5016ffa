// Package insight summarizes flattened codebases with Gemini.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/logging"
	"github.com/jadenpxrk/monofile/pkg/pipeline"
	"github.com/jadenpxrk/monofile/pkg/source"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	genai "google.golang.org/genai"
)

const (
	DefaultFastModel     = "gemini-3-flash-preview"
	DefaultSmartModel    = "gemini-3-pro-preview"
	DefaultFallbackModel = "gemini-3-flash-preview"

	DefaultMaxDocumentChars = 500000
	DefaultMaxTreePaths     = 150
	askDocumentChars        = 400000
)

var (
	ErrMissingAPIKey = errors.New("insight: Gemini API key is required")
	ErrEmptyResponse = errors.New("insight: empty response from model")
)

// fallbackConcept is used when the concept list cannot be parsed.
var fallbackConcept = pipeline.Concept{ID: "core", Name: "Core Logic", Description: "Fundamental system operations."}

// generator is the subset of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Gemini client. Empty models and limits take the defaults.
type Options struct {
	APIKey        string
	FastModel     string
	SmartModel    string
	FallbackModel string

	MaxDocumentChars int
	MaxTreePaths     int

	Logger *zap.Logger
}

// Gemini implements pipeline.Enricher.
type Gemini struct {
	gen    generator
	opts   Options
	logger *zap.Logger
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return newWithGenerator(cli.Models, opts), nil
}

func newWithGenerator(gen generator, opts Options) *Gemini {
	if opts.FastModel == "" {
		opts.FastModel = DefaultFastModel
	}
	if opts.SmartModel == "" {
		opts.SmartModel = DefaultSmartModel
	}
	if opts.FallbackModel == "" {
		opts.FallbackModel = DefaultFallbackModel
	}
	if opts.MaxDocumentChars <= 0 {
		opts.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if opts.MaxTreePaths <= 0 {
		opts.MaxTreePaths = DefaultMaxTreePaths
	}
	return &Gemini{gen: gen, opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Name identifies the client in logs.
func (g *Gemini) Name() string { return "Gemini:" + g.opts.FastModel }

// Enrich runs the summary, AI context and concept prompts concurrently. Any failure fails the
// whole call; a malformed concept list falls back to a single generic concept instead.
func (g *Gemini) Enrich(ctx context.Context, document string, set source.RecordSet) (pipeline.Insights, error) {
	input := g.contextInput(document, set)

	var summary, aiContext, conceptsRaw string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		summary, err = g.runTask(egCtx, promptSummary, input, nil)
		return err
	})
	eg.Go(func() (err error) {
		aiContext, err = g.runTask(egCtx, promptContext, input, nil)
		return err
	})
	eg.Go(func() (err error) {
		conceptsRaw, err = g.runTask(egCtx, promptConcepts, input, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   conceptSchema(),
		})
		return err
	})
	if err := eg.Wait(); err != nil {
		return pipeline.Insights{}, err
	}

	return pipeline.Insights{
		Summary:   summary,
		AIContext: aiContext,
		Concepts:  parseConcepts(conceptsRaw, g.logger),
	}, nil
}

// RecreateFeature asks the smart model for a blueprint to rebuild only the selected concepts.
func (g *Gemini) RecreateFeature(ctx context.Context, document string, selected []pipeline.Concept) (string, error) {
	names := make([]string, 0, len(selected))
	for _, c := range selected {
		names = append(names, c.Name)
	}
	prompt := strings.Replace(promptRecreator, "{{CONCEPTS}}", strings.Join(names, ", "), 1)
	contents := []*genai.Content{{Parts: []*genai.Part{
		{Text: prompt},
		{Text: "Context:\n" + truncate(document, g.opts.MaxDocumentChars)},
	}}}

	resp, err := g.gen.GenerateContent(ctx, g.opts.SmartModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("recreate feature: %w", err)
	}
	txt := responseText(resp)
	if txt == "" {
		return "Failed to generate blueprint.", nil
	}
	return txt, nil
}

// BridgedProject is another saved project whose summary is shared with Ask.
type BridgedProject struct {
	Name    string
	Summary string
}

// Ask answers a single question about a project's flattened source.
func (g *Gemini) Ask(ctx context.Context, project, document string, bridged []BridgedProject, question string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Project [%s] Source:\n%s\n\n", project, truncate(document, askDocumentChars))
	if len(bridged) > 0 {
		b.WriteString("--- KNOWLEDGE BRIDGE ---\n")
		for _, p := range bridged {
			fmt.Fprintf(&b, "PROJECT: %s\nSUMMARY: %s\n", p.Name, p.Summary)
		}
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemAsk + "\n\nContext:\n" + b.String()}}},
	}
	resp, err := g.gen.GenerateContent(ctx, g.opts.SmartModel, []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: question}}}}, cfg)
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	txt := responseText(resp)
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}

// runTask calls the fast model and retries once on the fallback model.
func (g *Gemini) runTask(ctx context.Context, prompt, input string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}, {Text: input}}}}
	g.logger.Debug("LLM request", zap.String("model", g.opts.FastModel), zap.Int("bytes", len(prompt)+len(input)))

	resp, err := g.gen.GenerateContent(ctx, g.opts.FastModel, contents, cfg)
	if err == nil {
		return responseText(resp), nil
	}
	g.logger.Warn("Primary model failed, trying fallback",
		zap.String("model", g.opts.FastModel), zap.String("fallback", g.opts.FallbackModel), zap.Error(err))

	resp, err = g.gen.GenerateContent(ctx, g.opts.FallbackModel, contents, cfg)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// contextInput is the shared prompt input: the first paths of the tree plus the truncated document.
func (g *Gemini) contextInput(document string, set source.RecordSet) string {
	n := min(len(set), g.opts.MaxTreePaths)
	paths := make([]string, 0, n)
	for _, rec := range set[:n] {
		paths = append(paths, rec.Path)
	}
	return "Structure:\n" + strings.Join(paths, "\n") + "\n\nContent:\n" + truncate(document, g.opts.MaxDocumentChars)
}

func conceptSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":          {Type: genai.TypeString},
				"name":        {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"id", "name", "description"},
		},
	}
}

func parseConcepts(raw string, logger *zap.Logger) []pipeline.Concept {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "[]"
	}
	var concepts []pipeline.Concept
	if err := json.Unmarshal([]byte(raw), &concepts); err != nil {
		logger.Warn("Concept list is not valid JSON, using fallback", zap.Error(err))
		return []pipeline.Concept{fallbackConcept}
	}
	return concepts
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
