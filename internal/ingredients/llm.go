package ingredients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
)

// Generator produces a completion for a system and user prompt.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You extract ingredients from recipe text.
Return ONLY a JSON array. Each element has the keys "quantity" (number or null),
"unit" (string, empty when there is none) and "name" (string).
Convert fractions to decimals. Do not add ingredients that are not in the text.`

// LLMParser parses ingredients with a language model.
type LLMParser struct {
	gen      Generator
	fallback Parser
	logger   *slog.Logger
}

// NewLLMParser creates an LLM-backed parser that falls back to the heuristic
// parser on any model failure.
func NewLLMParser(gen Generator, logger *slog.Logger) *LLMParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMParser{gen: gen, fallback: HeuristicParser{}, logger: logger}
}

type llmIngredient struct {
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Name     string   `json:"name"`
}

// Parse implements Parser.
func (p *LLMParser) Parse(ctx context.Context, text string) ([]models.ParsedIngredient, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	answer, err := p.gen.GenerateWithSystem(ctx, systemPrompt, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		level := slog.LevelWarn
		if errors.Is(err, ErrFatalAPI) {
			level = slog.LevelError
		}
		p.logger.Log(ctx, level, "ingredient model failed, using heuristic parser", "error", err)
		return p.fallback.Parse(ctx, text)
	}

	parsed, err := decodeAnswer(answer)
	if err != nil {
		p.logger.Warn("undecodable ingredient answer, using heuristic parser", "error", err)
		return p.fallback.Parse(ctx, text)
	}
	return parsed, nil
}

// decodeAnswer extracts the JSON array from a model answer, tolerating code
// fences and surrounding prose.
func decodeAnswer(answer string) ([]models.ParsedIngredient, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in answer")
	}

	var items []llmIngredient
	if err := json.Unmarshal([]byte(answer[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	out := make([]models.ParsedIngredient, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		out = append(out, models.ParsedIngredient{
			Quantity: it.Quantity,
			Unit:     strings.TrimSpace(it.Unit),
			Name:     name,
		})
	}
	return out, nil
}

// New returns the parser selected by cfg.LLMProvider: the heuristic parser
// for "none" or an empty provider, otherwise an LLM parser. mc may be nil.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, mc *metrics.Collector) (Parser, error) {
	if cfg.LLMProvider == "" || cfg.LLMProvider == config.ProviderNone {
		return timed(HeuristicParser{}, mc), nil
	}
	model, err := NewModel(ctx, cfg, mc)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("ingredient parser ready", "provider", cfg.LLMProvider, "model", model.Model())
	return timed(NewLLMParser(model, logger), mc), nil
}

type timedParser struct {
	Parser
	metrics *metrics.Collector
}

func (t timedParser) Parse(ctx context.Context, text string) ([]models.ParsedIngredient, error) {
	start := time.Now()
	defer func() { t.metrics.RecordTiming(metrics.OpIngredientParse, time.Since(start)) }()
	return t.Parser.Parse(ctx, text)
}

func timed(p Parser, mc *metrics.Collector) Parser {
	if mc == nil {
		return p
	}
	return timedParser{Parser: p, metrics: mc}
}
