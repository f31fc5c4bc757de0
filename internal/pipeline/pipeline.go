// Package pipeline wires the compiler stages into a single Process call:
// gate, translate, cache, classify, extract, generate, validate, execute,
// record, explain. Process never returns an error; every failure is folded
// into the NLResponse with a taxonomy code so callers have exactly one
// result shape to handle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/viapip/pothos-todo-sub004/internal/cache"
	"github.com/viapip/pothos-todo-sub004/internal/classify"
	"github.com/viapip/pothos-todo-sub004/internal/engine"
	"github.com/viapip/pothos-todo-sub004/internal/explain"
	"github.com/viapip/pothos-todo-sub004/internal/extract"
	"github.com/viapip/pothos-todo-sub004/internal/generate"
	"github.com/viapip/pothos-todo-sub004/internal/history"
	"github.com/viapip/pothos-todo-sub004/internal/nlq"
	"github.com/viapip/pothos-todo-sub004/internal/observability"
	"github.com/viapip/pothos-todo-sub004/internal/schema"
	"github.com/viapip/pothos-todo-sub004/internal/similarity"
	"github.com/viapip/pothos-todo-sub004/internal/translate"
)

type Config struct {
	MinQueryLength   int
	MaxQueryLength   int
	CacheThreshold   float64
	DefaultRowLimit  int
	ExecutionTimeout time.Duration
}

// Dependencies are the pipeline collaborators. Translator and Embedder are
// optional; everything else is required.
type Dependencies struct {
	Engine     engine.Engine
	History    history.Store
	Patterns   *history.PatternTracker
	Translator translate.Translator
	Embedder   similarity.Embedder
}

type Pipeline struct {
	logger     *slog.Logger
	cfg        Config
	classifier *classify.Classifier
	extractor  *extract.Extractor
	generator  *generate.Generator
	explainer  *explain.Explainer
	cache      *cache.QueryCache
	engine     engine.Engine
	history    history.Store
	patterns   *history.PatternTracker
	translator translate.Translator
	embedder   similarity.Embedder
}

func New(logger *slog.Logger, cfg Config, deps Dependencies) *Pipeline {
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 5
	}
	if cfg.MaxQueryLength <= cfg.MinQueryLength {
		cfg.MaxQueryLength = 500
	}
	if cfg.DefaultRowLimit <= 0 {
		cfg.DefaultRowLimit = 10
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 5 * time.Second
	}
	return &Pipeline{
		logger:     logger,
		cfg:        cfg,
		classifier: classify.New(),
		extractor:  extract.New(),
		generator:  generate.New(),
		explainer:  explain.New(),
		cache:      cache.NewQueryCache(cfg.CacheThreshold),
		engine:     deps.Engine,
		history:    deps.History,
		patterns:   deps.Patterns,
		translator: deps.Translator,
		embedder:   deps.Embedder,
	}
}

// CacheLen reports the number of memoized parses.
func (p *Pipeline) CacheLen() int { return p.cache.Len() }

// Process runs one utterance through the full pipeline.
func (p *Pipeline) Process(ctx context.Context, text, userID string, sctx nlq.SessionContext) nlq.NLResponse {
	start := time.Now()
	original := strings.TrimSpace(text)

	if utf8.RuneCountInString(original) < p.cfg.MinQueryLength {
		return p.fail(ctx, original, nlq.CodeInputTooShort,
			fmt.Sprintf("query must be at least %d characters", p.cfg.MinQueryLength), start)
	}
	if utf8.RuneCountInString(original) > p.cfg.MaxQueryLength {
		return p.fail(ctx, original, nlq.CodeInputTooLong,
			fmt.Sprintf("query must be at most %d characters", p.cfg.MaxQueryLength), start)
	}

	working := p.translateIfNeeded(ctx, original, sctx)

	key := cache.Key(working, sctx)
	parsed, hit := p.cache.Lookup(key)
	observability.ObserveCacheLookup(hit)

	if !hit {
		var failure nlq.NLResponse
		parsed, failure = p.compile(ctx, working, original, sctx, start)
		if failure.ErrorCode != "" {
			return failure
		}
		p.cache.Store(key, parsed)
	}

	result, err := p.execute(ctx, parsed, sctx)
	if err != nil {
		return p.fail(ctx, original, nlq.CodeExecutionFailed, err.Error(), start)
	}

	// A canceled request still returns its result, but it no longer counts
	// toward history or pattern frequency.
	if ctx.Err() == nil {
		p.record(ctx, original, working, userID, parsed)
	}

	explanation, suggestions, followUps := p.explainer.Explain(parsed, result)
	observability.ObserveNLRequest("success", parsed.Intent.Confidence)

	return nlq.NLResponse{
		Success:       true,
		Data:          responseData(parsed.Shape, result),
		Explanation:   explanation,
		Program:       parsed.Program,
		Variables:     parsed.Variables,
		Confidence:    parsed.Intent.Confidence,
		Suggestions:   suggestions,
		FollowUps:     followUps,
		ExecutionTime: time.Since(start),
		CacheHit:      hit,
	}
}

// Suggest ranks the user's recent queries against the given prefix. With no
// embedder configured the ranking degrades to recency order.
func (p *Pipeline) Suggest(ctx context.Context, text, userID string, k int) ([]string, error) {
	if k <= 0 {
		k = 5
	}
	entries, err := p.history.Recent(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		normalized := cache.Normalize(entry.Text)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		candidates = append(candidates, entry.Text)
	}
	return similarity.Rank(ctx, p.embedder, text, candidates, k), nil
}

// PatternSnapshot exposes the frequency table for the API and the archiver.
func (p *Pipeline) PatternSnapshot() []history.PatternCount {
	return p.patterns.Snapshot()
}

func (p *Pipeline) compile(ctx context.Context, working, original string, sctx nlq.SessionContext, start time.Time) (nlq.ParsedQuery, nlq.NLResponse) {
	stageStart := time.Now()
	intent := p.classifier.Classify(working, sctx)
	observability.ObserveStage("classify", time.Since(stageStart))

	stageStart = time.Now()
	entities, filters, operations := p.extractor.Extract(working, sctx)
	if intent.Kind == nlq.KindMutation {
		// "count" inside a mutation utterance ("create a todo to count
		// sheep") describes the todo, not the result shape.
		operations = withoutAggregates(operations)
	}
	observability.ObserveStage("extract", time.Since(stageStart))

	stageStart = time.Now()
	program, variables, err := p.generator.Generate(intent, entities, filters, operations, sctx)
	observability.ObserveStage("generate", time.Since(stageStart))
	if err != nil {
		return nlq.ParsedQuery{}, p.fail(ctx, original, nlq.CodeOf(err), err.Error(), start)
	}

	parsed := nlq.ParsedQuery{
		Intent:     intent,
		Entities:   entities,
		Filters:    filters,
		Operations: operations,
		Shape:      generate.ResultShapeFor(intent, operations),
		Program:    program,
		Variables:  variables,
	}

	stageStart = time.Now()
	if err := schema.ValidatePlan(parsed); err != nil {
		observability.ObserveStage("validate", time.Since(stageStart))
		return nlq.ParsedQuery{}, p.fail(ctx, original, nlq.CodeOf(err), err.Error(), start)
	}
	if err := schema.Validate(program, variables); err != nil {
		observability.ObserveStage("validate", time.Since(stageStart))
		return nlq.ParsedQuery{}, p.fail(ctx, original, nlq.CodeOf(err), err.Error(), start)
	}
	observability.ObserveStage("validate", time.Since(stageStart))

	return parsed, nlq.NLResponse{}
}

func (p *Pipeline) execute(ctx context.Context, parsed nlq.ParsedQuery, sctx nlq.SessionContext) (engine.Result, error) {
	rowLimit := sctx.Preferences.DefaultLimit
	if rowLimit <= 0 {
		rowLimit = p.cfg.DefaultRowLimit
	}

	execCtx, cancel := context.WithTimeout(ctx, p.cfg.ExecutionTimeout)
	defer cancel()

	stageStart := time.Now()
	result, err := p.engine.Execute(execCtx, engine.Request{
		Program:    parsed.Program,
		Variables:  parsed.Variables,
		Action:     parsed.Intent.Action,
		Shape:      parsed.Shape,
		Filters:    parsed.Filters,
		Operations: parsed.Operations,
		RowLimit:   rowLimit,
	})
	observability.ObserveStage("execute", time.Since(stageStart))
	if err != nil {
		return engine.Result{}, fmt.Errorf("execute query: %w", err)
	}
	return result, nil
}

func (p *Pipeline) translateIfNeeded(ctx context.Context, text string, sctx nlq.SessionContext) string {
	language := strings.ToLower(strings.TrimSpace(sctx.Preferences.Language))
	if p.translator == nil || language == "" || language == "en" || strings.HasPrefix(language, "en-") {
		return text
	}

	stageStart := time.Now()
	translated, err := p.translator.Translate(ctx, text, language)
	observability.ObserveStage("translate", time.Since(stageStart))
	if err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "translation failed, using original text",
				slog.String("language", language),
				slog.String("error", err.Error()),
			)
		}
		return text
	}
	return translated
}

func (p *Pipeline) record(ctx context.Context, original, working, userID string, parsed nlq.ParsedQuery) {
	entry := history.Entry{
		UserID: userID,
		Text:   original,
		Parsed: parsed,
		At:     time.Now().UTC(),
	}
	if err := p.history.Record(ctx, entry); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "history record failed", slog.String("error", err.Error()))
	}
	p.patterns.Track(cache.Normalize(working))
	observability.SetPatternsTracked(p.patterns.Size())
}

func (p *Pipeline) fail(ctx context.Context, text string, code nlq.ErrorCode, message string, start time.Time) nlq.NLResponse {
	observability.ObserveNLRequest("failure", 0)
	observability.IncrementFailure(string(code))
	if p.logger != nil {
		p.logger.InfoContext(ctx, "pipeline request failed",
			slog.String("code", string(code)),
			slog.String("error", message),
		)
	}
	return nlq.NLResponse{
		Success:       false,
		ErrorCode:     string(code),
		Error:         message,
		Suggestions:   explain.SuggestForError(text, code),
		ExecutionTime: time.Since(start),
	}
}

func responseData(shape nlq.ResultShape, result engine.Result) any {
	switch shape {
	case nlq.ShapeCount:
		return map[string]any{"count": result.Count}
	case nlq.ShapeSingle:
		if result.Created != nil {
			return result.Created
		}
		if len(result.Rows) > 0 {
			return rowMap(result.Columns, result.Rows[0])
		}
		return nil
	default:
		items := make([]map[string]any, 0, len(result.Rows))
		for _, row := range result.Rows {
			items = append(items, rowMap(result.Columns, row))
		}
		return map[string]any{
			"items":      items,
			"totalCount": len(items),
		}
	}
}

func withoutAggregates(operations []nlq.Operation) []nlq.Operation {
	kept := operations[:0]
	for _, op := range operations {
		if op.Kind == nlq.OpAggregate {
			continue
		}
		kept = append(kept, op)
	}
	return kept
}

func rowMap(columns []string, row []any) map[string]any {
	out := make(map[string]any, len(columns))
	for i, column := range columns {
		if i < len(row) {
			out[column] = row[i]
		}
	}
	return out
}
