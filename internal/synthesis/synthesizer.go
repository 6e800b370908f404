package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/internal/modules/fundamental"
	"github.com/yuhaojin/stocklens/internal/modules/sentiment"
	"github.com/yuhaojin/stocklens/internal/modules/technical"
	"github.com/yuhaojin/stocklens/internal/modules/technical/analyzers"
)

const systemPrompt = "You are a senior equity analyst. All numerical scores and metrics below " +
	"have been pre-computed quantitatively. Your job is to INTERPRET these " +
	"numbers, NOT recalculate them. Provide actionable analysis."

const responseFormatInstruction = `
Respond ONLY with valid JSON (no markdown, no commentary outside the JSON).
Use this exact schema:

{
  "verdict": "strong_buy" | "buy" | "hold" | "sell" | "strong_sell",
  "confidence": <float 0-1>,
  "summary": "<2-3 sentence executive summary>",
  "fundamental_interpretation": "<paragraph interpreting the fundamental data>",
  "technical_interpretation": "<paragraph interpreting the technical data>",
  "sentiment_interpretation": "<paragraph interpreting the sentiment data>",
  "risks": ["<risk 1>", "<risk 2>", "<risk 3>", ...],
  "catalysts": ["<catalyst 1>", "<catalyst 2>", "<catalyst 3>", ...],
  "price_targets": {
    "support": <float or null>,
    "resistance": <float or null>,
    "fair_value_range": [<low>, <high>] or null
  },
  "position_advice": "<paragraph with entry/exit suggestions>",
  "time_horizon": "short_term" | "medium_term" | "long_term"
}
`

// Metrics listed in the prompt, in display order.
var promptMetricKeys = []string{
	"pe", "pb", "ps", "peg", "roe", "roa", "gross_margin", "net_margin",
	"operating_margin", "revenue_growth_yoy", "profit_growth_yoy",
	"debt_to_equity", "current_ratio", "fcf_yield", "dividend_yield",
}

// PriceTargets carries model-suggested levels. A nil pointer or nil slice
// means the model declined to give one.
type PriceTargets struct {
	Support        *float64  `json:"support"`
	Resistance     *float64  `json:"resistance"`
	FairValueRange []float64 `json:"fair_value_range"`
}

// Narrative is the structured interpretation returned by the model.
type Narrative struct {
	Verdict                   domain.Verdict `json:"verdict"`
	Confidence                float64        `json:"confidence"`
	Summary                   string         `json:"summary"`
	FundamentalInterpretation string         `json:"fundamental_interpretation"`
	TechnicalInterpretation   string         `json:"technical_interpretation"`
	SentimentInterpretation   string         `json:"sentiment_interpretation"`
	Risks                     []string       `json:"risks"`
	Catalysts                 []string       `json:"catalysts"`
	PriceTargets              PriceTargets   `json:"price_targets"`
	PositionAdvice            string         `json:"position_advice"`
	TimeHorizon               string         `json:"time_horizon"`
	RawResponse               string         `json:"_raw_response,omitempty"`
	Error                     string         `json:"_error,omitempty"`
}

// Input bundles everything the synthesizer needs for one stock.
type Input struct {
	Stock          *domain.StockData
	Fundamental    *fundamental.Score
	Technical      *technical.Score
	Sentiment      *sentiment.Score
	CompositeScore float64
}

// Synthesizer asks an LLM provider to interpret pre-computed pillar scores.
// Calls run through a circuit breaker so a flapping provider fails fast
// instead of stalling every analysis.
type Synthesizer struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

// NewSynthesizer creates a synthesizer around the given provider.
func NewSynthesizer(provider Provider, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai-synthesis",
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		log: log.With().Str("component", "synthesis").Logger(),
	}
}

// Synthesize builds the prompt, calls the model, and parses the reply.
// It never returns an error: any failure produces a fallback Narrative
// with Error set, so the orchestrator can always attach something.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) *Narrative {
	prompt := s.buildPrompt(in)

	raw, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Generate(ctx, prompt, systemPrompt)
	})
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("AI synthesis failed")
		return failureNarrative(err)
	}

	narrative := s.parseResponse(raw.(string))
	s.log.Info().
		Str("verdict", string(narrative.Verdict)).
		Float64("confidence", narrative.Confidence).
		Msg("AI synthesis complete")
	return narrative
}

func (s *Synthesizer) buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("=== STOCK ANALYSIS DATA ===\n\n")

	b.WriteString("--- Stock Info ---\n")
	fmt.Fprintf(&b, "Stock Code: %s\n", orNA(in.Stock.Code))
	fmt.Fprintf(&b, "Stock Name: %s\n", orNA(in.Stock.Name))
	fmt.Fprintf(&b, "Market: %s\n", orNA(in.Stock.Market))
	fmt.Fprintf(&b, "Sector: %s\n\n", orNA(in.Stock.Sector))

	b.WriteString("--- Fundamental Analysis ---\n")
	if f := in.Fundamental; f != nil {
		fmt.Fprintf(&b, "Fundamental Score (total): %.1f/100\n", f.Total)
		fmt.Fprintf(&b, "  Valuation: %.1f/25\n", f.ValuationScore)
		fmt.Fprintf(&b, "  Profitability: %.1f/25\n", f.ProfitabilityScore)
		fmt.Fprintf(&b, "  Growth: %.1f/25\n", f.GrowthScore)
		fmt.Fprintf(&b, "  Financial Health: %.1f/25\n", f.HealthScore)
	} else {
		b.WriteString("Fundamental Score (total): N/A/100\n")
	}
	b.WriteString("\n")

	b.WriteString("Key Financial Metrics:\n")
	var metricLines int
	if in.Fundamental != nil && in.Fundamental.Metrics != nil {
		for _, key := range promptMetricKeys {
			if v := in.Fundamental.Metrics.Field(key); v != nil {
				fmt.Fprintf(&b, "  - %s: %g\n", key, *v)
				metricLines++
			}
		}
	}
	if metricLines == 0 {
		b.WriteString("  (no detailed metrics available)\n")
	}
	b.WriteString("\n")

	b.WriteString("--- Technical Analysis ---\n")
	if t := in.Technical; t != nil {
		fmt.Fprintf(&b, "Technical Score (total): %.1f/100\n", t.Total)
		fmt.Fprintf(&b, "  Trend: %.1f/30\n", t.TrendScore)
		fmt.Fprintf(&b, "  Momentum: %.1f/20\n", t.MomentumScore)
		fmt.Fprintf(&b, "  Volume: %.1f/20\n", t.VolumeScore)
		fmt.Fprintf(&b, "  Structure: %.1f/15\n", t.StructureScore)
		fmt.Fprintf(&b, "  Pattern: %.1f/15\n", t.PatternScore)
		writeIndicators(&b, t.Indicators)
		if len(t.Patterns) > 0 {
			names := make([]string, 0, len(t.Patterns))
			for _, p := range t.Patterns {
				names = append(names, fmt.Sprintf("%s (%s, %s)", p.Pattern, p.Type, p.Date))
			}
			fmt.Fprintf(&b, "Patterns Detected: %s\n", strings.Join(names, "; "))
		}
		writeLevels(&b, t.SupportResistance)
	} else {
		b.WriteString("Technical Score (total): N/A/100\n")
	}
	b.WriteString("\n")

	b.WriteString("--- Sentiment Analysis ---\n")
	if sent := in.Sentiment; sent != nil {
		fmt.Fprintf(&b, "Sentiment Score (total): %.1f/100\n", sent.Total)
		fmt.Fprintf(&b, "  News Sentiment: %.1f/40\n", sent.NewsSentimentScore)
		fmt.Fprintf(&b, "  Event Impact: %.1f/30\n", sent.EventImpactScore)
		fmt.Fprintf(&b, "  Market Attention: %.1f/15\n", sent.MarketAttentionScore)
		fmt.Fprintf(&b, "  Source Quality: %.1f/15\n", sent.SourceQualityScore)
		if len(sent.CategorySummary) > 0 {
			summary, err := json.Marshal(sent.CategorySummary)
			if err == nil {
				fmt.Fprintf(&b, "News Categories: %s\n", summary)
			}
		}
		fmt.Fprintf(&b, "Article Count: %d\n", len(sent.Articles))
	} else {
		b.WriteString("Sentiment Score (total): N/A/100\n")
	}
	b.WriteString("\n")

	b.WriteString("--- Composite Score ---\n")
	fmt.Fprintf(&b, "%.2f/100\n\n", in.CompositeScore)

	b.WriteString("=== INSTRUCTIONS ===\n")
	b.WriteString("Based on all the pre-computed scores and data above, provide your " +
		"expert interpretation and actionable investment analysis.\n\n")
	b.WriteString(responseFormatInstruction)

	return b.String()
}

func writeIndicators(b *strings.Builder, rpt *analyzers.IndicatorReport) {
	if rpt == nil {
		return
	}

	var lines []string
	if rpt.MACD.Signal != "" {
		lines = append(lines, fmt.Sprintf("macd_signal: %s", rpt.MACD.Signal))
	}
	if rpt.RSI.Value != nil {
		lines = append(lines, fmt.Sprintf("rsi: %.2f (%s)", *rpt.RSI.Value, rpt.RSI.Zone))
	}
	if rpt.KDJ.Signal != "" {
		lines = append(lines, fmt.Sprintf("kdj_signal: %s", rpt.KDJ.Signal))
	}
	if rpt.Bollinger.PercentB != nil {
		lines = append(lines, fmt.Sprintf("bollinger_percent_b: %.4f", *rpt.Bollinger.PercentB))
	}
	for _, cross := range rpt.MA.Crossovers {
		lines = append(lines, fmt.Sprintf("ma_crossover: %s (%s/%s on %s)", cross.Type, cross.Fast, cross.Slow, cross.Date))
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString("Indicators:\n")
	for _, line := range lines {
		fmt.Fprintf(b, "  - %s\n", line)
	}
}

func writeLevels(b *strings.Builder, rpt *analyzers.LevelReport) {
	if rpt == nil || len(rpt.Levels) == 0 {
		return
	}
	levels := rpt.Levels
	if len(levels) > 6 {
		levels = levels[:6]
	}
	parts := make([]string, 0, len(levels))
	for _, lvl := range levels {
		parts = append(parts, fmt.Sprintf("%.2f (%s, strength %d)", lvl.Level, lvl.Role, lvl.Strength))
	}
	fmt.Fprintf(b, "S/R Levels: %s\n", strings.Join(parts, "; "))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var (
	fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	fencedRe     = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
	braceRe      = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseResponse parses the model reply as JSON, stripping markdown fences
// or surrounding commentary when needed. An unparseable reply produces a
// neutral fallback carrying the raw text.
func (s *Synthesizer) parseResponse(raw string) *Narrative {
	if n := tryParse(raw); n != nil {
		return n
	}

	for _, re := range []*regexp.Regexp{fencedJSONRe, fencedRe} {
		if m := re.FindStringSubmatch(raw); m != nil {
			if n := tryParse(m[1]); n != nil {
				return n
			}
		}
	}

	if m := braceRe.FindString(raw); m != "" {
		if n := tryParse(m); n != nil {
			return n
		}
	}

	s.log.Warn().Msg("Failed to parse AI response as JSON, using fallback")

	summary := raw
	if len(summary) > 1000 {
		summary = summary[:1000]
	}
	return &Narrative{
		Verdict:                   domain.VerdictHold,
		Confidence:                0.5,
		Summary:                   summary,
		FundamentalInterpretation: "AI response could not be parsed as structured JSON.",
		TechnicalInterpretation:   "AI response could not be parsed as structured JSON.",
		SentimentInterpretation:   "AI response could not be parsed as structured JSON.",
		Risks:                     []string{"Unable to parse structured risk factors from AI response"},
		Catalysts:                 []string{"Unable to parse structured catalysts from AI response"},
		PositionAdvice:            "Review raw AI output for details.",
		TimeHorizon:               "medium_term",
		RawResponse:               raw,
	}
}

func tryParse(text string) *Narrative {
	var n Narrative
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &n); err != nil {
		return nil
	}
	if n.Verdict != "" && !n.Verdict.Valid() {
		n.Verdict = ""
	}
	return &n
}

func failureNarrative(err error) *Narrative {
	return &Narrative{
		Verdict:                   domain.VerdictHold,
		Confidence:                0,
		Summary:                   fmt.Sprintf("AI synthesis unavailable: %v", err),
		FundamentalInterpretation: "AI synthesis failed.",
		TechnicalInterpretation:   "AI synthesis failed.",
		SentimentInterpretation:   "AI synthesis failed.",
		Risks:                     []string{"AI synthesis was unavailable for this analysis"},
		Catalysts:                 []string{},
		PositionAdvice:            "Manual review recommended due to AI synthesis failure.",
		TimeHorizon:               "medium_term",
		Error:                     err.Error(),
	}
}
