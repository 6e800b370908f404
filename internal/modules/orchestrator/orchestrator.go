package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/database/repositories"
	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/internal/modules/fundamental"
	"github.com/yuhaojin/stocklens/internal/modules/sentiment"
	"github.com/yuhaojin/stocklens/internal/modules/technical"
	"github.com/yuhaojin/stocklens/internal/providers"
	"github.com/yuhaojin/stocklens/internal/synthesis"
)

const (
	weightFundamental = 0.35
	weightTechnical   = 0.35
	weightSentiment   = 0.30

	// Score substituted for a pillar that failed, so one bad pillar
	// pulls the composite toward neutral instead of sinking it.
	defaultPillarScore = 50.0

	defaultLookbackDays = 500
)

// Result is the full outcome of one analysis run.
type Result struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Market   string `json:"market"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`

	FundamentalScore float64        `json:"fundamental_score"`
	TechnicalScore   float64        `json:"technical_score"`
	SentimentScore   float64        `json:"sentiment_score"`
	CompositeScore   float64        `json:"composite_score"`
	Verdict          domain.Verdict `json:"verdict"`
	FailedPillars    []string       `json:"failed_pillars,omitempty"`

	Fundamental *fundamental.Score   `json:"fundamental_detail,omitempty"`
	Technical   *technical.Score     `json:"technical_detail,omitempty"`
	Sentiment   *sentiment.Score     `json:"sentiment_detail,omitempty"`
	Synthesis   *synthesis.Narrative `json:"ai_synthesis,omitempty"`
	ChartData   *technical.ChartData `json:"chart_data,omitempty"`
}

// SynthesizerFactory builds a synthesizer for a named AI provider, so a
// request can override the configured default.
type SynthesizerFactory func(ctx context.Context, providerName string) (*synthesis.Synthesizer, error)

// Orchestrator runs the three pillars in parallel, composites their
// scores, optionally attaches the AI narrative, and persists the run.
type Orchestrator struct {
	data         *providers.Manager
	fundamental  *fundamental.Service
	technical    *technical.Service
	sentiment    *sentiment.Service
	synthesizer  *synthesis.Synthesizer
	synthFactory SynthesizerFactory
	repo         *repositories.AnalysisRepository
	log          zerolog.Logger
}

// Config wires the orchestrator's collaborators. Synthesizer,
// SynthesizerFactory, and Repo may be nil; those stages are optional.
type Config struct {
	Data               *providers.Manager
	Fundamental        *fundamental.Service
	Technical          *technical.Service
	Sentiment          *sentiment.Service
	Synthesizer        *synthesis.Synthesizer
	SynthesizerFactory SynthesizerFactory
	Repo               *repositories.AnalysisRepository
	Log                zerolog.Logger
}

// New creates an orchestrator
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		data:         cfg.Data,
		fundamental:  cfg.Fundamental,
		technical:    cfg.Technical,
		sentiment:    cfg.Sentiment,
		synthesizer:  cfg.Synthesizer,
		synthFactory: cfg.SynthesizerFactory,
		repo:         cfg.Repo,
		log:          cfg.Log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run fetches the stock snapshot and analyzes it. A non-empty
// aiProvider selects that provider for the narrative; an empty string
// uses the configured default. An unknown provider falls back to the
// default with a warning rather than failing the analysis.
func (o *Orchestrator) Run(ctx context.Context, code, aiProvider string) (*Result, error) {
	o.log.Info().Str("code", code).Msg("Starting full analysis")

	stock, err := o.data.FetchStockData(ctx, code, defaultLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data for %s: %w", code, err)
	}

	synth := o.synthesizer
	if aiProvider != "" && o.synthFactory != nil {
		override, err := o.synthFactory(ctx, aiProvider)
		if err != nil {
			o.log.Warn().Err(err).Str("ai_provider", aiProvider).Msg("Falling back to default AI provider")
		} else {
			synth = override
		}
	}

	return o.analyze(ctx, stock, synth), nil
}

// Analyze scores a pre-fetched snapshot with the default synthesizer.
func (o *Orchestrator) Analyze(ctx context.Context, stock *domain.StockData) *Result {
	return o.analyze(ctx, stock, o.synthesizer)
}

// analyze runs the pillars and composites. Pillar failures (errors or
// panics) are absorbed: the failed pillar contributes the neutral
// default and is listed in FailedPillars.
func (o *Orchestrator) analyze(ctx context.Context, stock *domain.StockData, synth *synthesis.Synthesizer) *Result {
	var (
		wg       sync.WaitGroup
		fundRes  *fundamental.Score
		techRes  *technical.Score
		sentRes  *sentiment.Score
		fundErr  error
		techErr  error
		sentErr  error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer o.recoverPillar("fundamental", stock.Code, &fundErr)
		fundRes, fundErr = o.fundamental.Analyze(ctx, stock)
	}()
	go func() {
		defer wg.Done()
		defer o.recoverPillar("technical", stock.Code, &techErr)
		techRes, techErr = o.technical.Analyze(ctx, stock)
	}()
	go func() {
		defer wg.Done()
		defer o.recoverPillar("sentiment", stock.Code, &sentErr)
		sentRes, sentErr = o.sentiment.Analyze(ctx, stock)
	}()
	wg.Wait()

	result := &Result{
		Code:     stock.Code,
		Name:     stock.Name,
		Market:   stock.Market,
		Sector:   stock.Sector,
		Industry: stock.Industry,
	}

	result.FundamentalScore = pillarScore(fundRes != nil && fundErr == nil, func() float64 { return fundRes.Total })
	result.TechnicalScore = pillarScore(techRes != nil && techErr == nil, func() float64 { return techRes.Total })
	result.SentimentScore = pillarScore(sentRes != nil && sentErr == nil, func() float64 { return sentRes.Total })

	if fundErr != nil {
		o.log.Error().Err(fundErr).Str("code", stock.Code).Msg("Fundamental analysis failed")
		result.FailedPillars = append(result.FailedPillars, "fundamental")
	} else {
		result.Fundamental = fundRes
	}
	if techErr != nil {
		o.log.Error().Err(techErr).Str("code", stock.Code).Msg("Technical analysis failed")
		result.FailedPillars = append(result.FailedPillars, "technical")
	} else {
		result.Technical = techRes
		if techRes != nil {
			result.ChartData = techRes.ChartData
		}
	}
	if sentErr != nil {
		o.log.Error().Err(sentErr).Str("code", stock.Code).Msg("Sentiment analysis failed")
		result.FailedPillars = append(result.FailedPillars, "sentiment")
	} else {
		result.Sentiment = sentRes
	}

	composite := result.FundamentalScore*weightFundamental +
		result.TechnicalScore*weightTechnical +
		result.SentimentScore*weightSentiment
	result.CompositeScore = math.Round(composite*100) / 100
	result.Verdict = VerdictFromComposite(composite)

	o.log.Info().
		Str("code", stock.Code).
		Float64("fundamental", result.FundamentalScore).
		Float64("technical", result.TechnicalScore).
		Float64("sentiment", result.SentimentScore).
		Float64("composite", result.CompositeScore).
		Str("verdict", string(result.Verdict)).
		Msg("Pillar scores computed")

	if synth != nil {
		narrative := synth.Synthesize(ctx, synthesis.Input{
			Stock:          stock,
			Fundamental:    fundRes,
			Technical:      techRes,
			Sentiment:      sentRes,
			CompositeScore: composite,
		})
		result.Synthesis = narrative
		// The model may only move the verdict to another canonical label
		if narrative != nil && narrative.Verdict.Valid() {
			result.Verdict = narrative.Verdict
		}
	}

	o.persist(ctx, result)

	return result
}

// VerdictFromComposite maps a composite score to the verdict ladder.
func VerdictFromComposite(score float64) domain.Verdict {
	switch {
	case score > 80:
		return domain.VerdictStrongBuy
	case score >= 65:
		return domain.VerdictBuy
	case score >= 45:
		return domain.VerdictHold
	case score >= 30:
		return domain.VerdictSell
	default:
		return domain.VerdictStrongSell
	}
}

func (o *Orchestrator) recoverPillar(pillar, code string, errOut *error) {
	if r := recover(); r != nil {
		o.log.Error().
			Str("pillar", pillar).
			Str("code", code).
			Interface("panic", r).
			Msg("Pillar panicked")
		*errOut = fmt.Errorf("%s pillar panicked: %v", pillar, r)
	}
}

func pillarScore(ok bool, total func() float64) float64 {
	if !ok {
		return defaultPillarScore
	}
	v := total()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return defaultPillarScore
	}
	return v
}

// persist writes the run to history. Failures are logged, never fatal.
func (o *Orchestrator) persist(ctx context.Context, result *Result) {
	if o.repo == nil {
		return
	}

	details, err := json.Marshal(result)
	if err != nil {
		o.log.Error().Err(err).Str("code", result.Code).Msg("Failed to encode analysis details")
		details = []byte("{}")
	}

	rec := &repositories.AnalysisRecord{
		ID:               uuid.NewString(),
		Code:             result.Code,
		Name:             result.Name,
		Market:           result.Market,
		CompositeScore:   result.CompositeScore,
		Verdict:          string(result.Verdict),
		FundamentalScore: &result.FundamentalScore,
		TechnicalScore:   &result.TechnicalScore,
		SentimentScore:   &result.SentimentScore,
		Details:          string(details),
	}

	if err := o.repo.Save(ctx, rec); err != nil {
		o.log.Error().Err(err).Str("code", result.Code).Msg("Failed to save analysis")
		return
	}
	o.log.Info().Str("code", result.Code).Str("id", rec.ID).Msg("Analysis saved")
}
