// Package tokenize counts LLM tokens with tiktoken or a HuggingFace tokenizer.json.
package tokenize

import (
	"fmt"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/logging"

	tiktoken "github.com/pkoukk/tiktoken-go"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"go.uber.org/zap"
)

const (
	KindTiktoken    = "tiktoken"
	KindHuggingFace = "huggingface"

	DefaultTiktokenModel = "gpt-4o"
	DefaultHFModel       = "gpt2"
)

// Counter counts tokens in a text.
type Counter interface {
	CountTokens(text string) int
	Close()
}

// Options selects and configures a Counter.
type Options struct {
	Kind   string // tiktoken (default) or huggingface
	Model  string // model name; defaults per kind
	File   string // local tokenizer.json, huggingface only
	Logger *zap.Logger
}

// New builds the Counter described by opts.
func New(opts Options) (Counter, error) {
	logger := logging.OrNop(opts.Logger)
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" {
		kind = KindTiktoken
	}
	logger.Debug("Initializing tokenizer", zap.String("kind", kind), zap.String("model", opts.Model), zap.String("file", opts.File))

	switch kind {
	case KindTiktoken:
		return loadTiktoken(opts.Model, logger)
	case KindHuggingFace:
		return loadHuggingFace(opts.Model, opts.File, logger)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", opts.Kind)
	}
}

type tiktokenCounter struct {
	ttk *tiktoken.Tiktoken
}

func (c *tiktokenCounter) CountTokens(text string) int {
	if c.ttk == nil || text == "" {
		return 0
	}
	return len(c.ttk.EncodeOrdinary(text))
}

func (c *tiktokenCounter) Close() {}

type hfCounter struct {
	htk    *hf.Tokenizer
	logger *zap.Logger
}

func (c *hfCounter) CountTokens(text string) int {
	if c.htk == nil || text == "" {
		return 0
	}
	en, err := c.htk.EncodeSingle(text)
	if err != nil {
		c.logger.Warn("HuggingFace tokenizer failed to encode text", zap.Error(err))
		return 0
	}
	return len(en.Tokens)
}

func (c *hfCounter) Close() {}

func loadTiktoken(model string, logger *zap.Logger) (Counter, error) {
	if model == "" {
		model = DefaultTiktokenModel
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("Tiktoken model not found, falling back to default",
			zap.String("model", model), zap.String("fallback", DefaultTiktokenModel), zap.Error(err))
		tke, err = tiktoken.EncodingForModel(DefaultTiktokenModel)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding for default model '%s': %w", DefaultTiktokenModel, err)
		}
	}
	return &tiktokenCounter{ttk: tke}, nil
}

func loadHuggingFace(model, file string, logger *zap.Logger) (Counter, error) {
	if file != "" {
		logger.Info("Loading HuggingFace tokenizer from file", zap.String("file", file))
		htk, err := pretrained.FromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", file, err)
		}
		return &hfCounter{htk: htk, logger: logger}, nil
	}

	if model == "" {
		model = DefaultHFModel
	}
	logger.Info("Loading HuggingFace tokenizer, this may download files", zap.String("model", model))
	configFile, err := hf.CachedPath(model, "tokenizer.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
	}
	htk, err := pretrained.FromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pretrained tokenizer for model %s (from %s): %w", model, configFile, err)
	}
	return &hfCounter{htk: htk, logger: logger}, nil
}

// Func adapts a plain function to Counter, mostly for tests.
type Func func(text string) int

func (f Func) CountTokens(text string) int { return f(text) }
func (f Func) Close()                      {}
