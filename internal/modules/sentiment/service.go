package sentiment

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// High-impact categories that drive the event impact sub-score.
var highImpactCategories = []string{CategoryEarnings, CategoryInsider, CategoryPolicy}

// TimelineEntry is one article on the date-ordered sentiment timeline
type TimelineEntry struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Date     string  `json:"date"`
	Score    float64 `json:"score"`
	Color    string  `json:"color"` // green, red, gray
	Category string  `json:"category"`
}

// CategorySummary aggregates one article category
type CategorySummary struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	Impact   string  `json:"impact"` // high, medium, low
}

// Score is the composite sentiment result (total 0-100)
type Score struct {
	Total                float64                    `json:"total"`
	NewsSentimentScore   float64                    `json:"news_sentiment_score"`   // 0-40
	EventImpactScore     float64                    `json:"event_impact_score"`     // 0-30
	MarketAttentionScore float64                    `json:"market_attention_score"` // 0-15
	SourceQualityScore   float64                    `json:"source_quality_score"`   // 0-15
	Breakdown            map[string]any             `json:"breakdown"`
	Articles             []ScoredArticle            `json:"articles"`
	Timeline             []TimelineEntry            `json:"timeline"`
	CategorySummary      map[string]CategorySummary `json:"category_summary"`
}

// Service scores the news flow attached to a stock snapshot.
type Service struct {
	scorer *Scorer
	log    zerolog.Logger
}

// NewService creates a new sentiment analysis service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		scorer: NewScorer(),
		log:    log.With().Str("component", "sentiment").Logger(),
	}
}

// Analyze runs sentiment analysis over the stock's news articles. An
// empty news list yields the documented neutral score.
func (s *Service) Analyze(ctx context.Context, stock *domain.StockData) (*Score, error) {
	if len(stock.News) == 0 {
		return &Score{
			Total:                50.0,
			NewsSentimentScore:   20.0,
			EventImpactScore:     15.0,
			MarketAttentionScore: 7.5,
			SourceQualityScore:   7.5,
			Breakdown: map[string]any{
				"note": "No news articles available, returning neutral score",
			},
			Articles:        []ScoredArticle{},
			Timeline:        []TimelineEntry{},
			CategorySummary: map[string]CategorySummary{},
		}, nil
	}

	scored := s.scorer.ScoreBatch(stock.News)
	aggregate := s.scorer.ComputeAggregate(scored)

	newsSentiment := calcNewsSentiment(aggregate.OverallScore)
	eventImpact := calcEventImpact(scored, aggregate.CategoryScores)
	marketAttention := calcMarketAttention(aggregate.ArticleCount, aggregate.OverallScore)
	sourceQuality := calcSourceQuality(scored)

	total := formulas.Round2(newsSentiment + eventImpact + marketAttention + sourceQuality)
	total = math.Max(0, math.Min(100, total))

	s.log.Debug().
		Str("code", stock.Code).
		Int("articles", len(scored)).
		Float64("total", total).
		Msg("Sentiment analysis complete")

	return &Score{
		Total:                total,
		NewsSentimentScore:   formulas.Round2(newsSentiment),
		EventImpactScore:     formulas.Round2(eventImpact),
		MarketAttentionScore: formulas.Round2(marketAttention),
		SourceQualityScore:   formulas.Round2(sourceQuality),
		Breakdown: map[string]any{
			"overall_sentiment": aggregate.OverallScore,
			"distribution":      aggregate.Distribution,
			"category_scores":   aggregate.CategoryScores,
		},
		Articles:        scored,
		Timeline:        buildTimeline(scored),
		CategorySummary: buildCategorySummary(scored),
	}, nil
}

// calcNewsSentiment maps the overall score [-1, 1] onto [0, 40]
// piecewise, centered at 20 for neutral news flow.
func calcNewsSentiment(overall float64) float64 {
	switch {
	case overall >= 0.5:
		return 35.0 + (overall-0.5)/0.5*5.0
	case overall >= 0.2:
		return 25.0 + (overall-0.2)/0.3*10.0
	case overall >= -0.2:
		return 15.0 + (overall+0.2)/0.4*10.0
	case overall >= -0.5:
		return 5.0 + (overall+0.5)/0.3*10.0
	default:
		return math.Max(0.0, 5.0+(overall+0.5)/0.5*5.0)
	}
}

// calcEventImpact scores 0-30 from the strongest high-impact category
// signal, falling back to average article magnitude.
func calcEventImpact(scored []ScoredArticle, categoryScores map[string]float64) float64 {
	maxAbsHigh := 0.0
	hasHighImpact := false
	for _, cat := range highImpactCategories {
		if score, ok := categoryScores[cat]; ok {
			hasHighImpact = true
			if abs := math.Abs(score); abs > maxAbsHigh {
				maxAbsHigh = abs
			}
		}
	}

	switch {
	case hasHighImpact && maxAbsHigh >= 0.3:
		return 25.0 + math.Min(maxAbsHigh, 1.0)*5.0
	case hasHighImpact && maxAbsHigh >= 0.1:
		return 15.0 + (maxAbsHigh/0.3)*10.0
	case hasHighImpact:
		return 10.0 + maxAbsHigh/0.1*5.0
	default:
		if len(scored) > 0 {
			sumAbs := 0.0
			for _, a := range scored {
				sumAbs += math.Abs(a.Score)
			}
			avgAbs := sumAbs / float64(len(scored))
			return 10.0 + math.Min(avgAbs, 0.5)*10.0
		}
		return 10.0
	}
}

// calcMarketAttention scores 0-15 from article volume, with a bonus
// for heavy positive coverage.
func calcMarketAttention(articleCount int, overall float64) float64 {
	var base float64
	switch {
	case articleCount > 15:
		base = 12.0
	case articleCount >= 8:
		base = 8.0 + float64(articleCount-8)/7.0*2.0
	default:
		base = 5.0 + math.Max(0, float64(articleCount-1))/7.0*2.0
	}

	if articleCount > 15 && overall > 0.2 {
		base = math.Min(15.0, base+2.0)
	}
	return math.Min(15.0, base)
}

// calcSourceQuality scores 0-15 from the average source quality tier.
func calcSourceQuality(scored []ScoredArticle) float64 {
	if len(scored) == 0 {
		return 5.0
	}
	sum := 0.0
	for _, a := range scored {
		sum += a.SourceQuality
	}
	avg := sum / float64(len(scored))

	switch {
	case avg >= 0.9:
		return 13.0 + (avg-0.9)/0.1*2.0
	case avg >= 0.6:
		return 8.0 + (avg-0.6)/0.3*5.0
	default:
		return 5.0 + (avg/0.6)*3.0
	}
}

func buildTimeline(scored []ScoredArticle) []TimelineEntry {
	timeline := make([]TimelineEntry, 0, len(scored))
	for _, a := range scored {
		color := "gray"
		if a.Score > 0.1 {
			color = "green"
		} else if a.Score < -0.1 {
			color = "red"
		}
		timeline = append(timeline, TimelineEntry{
			Title:    a.Title,
			URL:      a.URL,
			Date:     a.PublishedAt,
			Score:    a.Score,
			Color:    color,
			Category: a.Category,
		})
	}
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Date > timeline[j].Date })
	return timeline
}

func buildCategorySummary(scored []ScoredArticle) map[string]CategorySummary {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range scored {
		sums[a.Category] += a.Score
		counts[a.Category]++
	}

	summary := make(map[string]CategorySummary, len(sums))
	for cat, sum := range sums {
		avg := sum / float64(counts[cat])
		impact := "low"
		if abs := math.Abs(avg); abs >= 0.3 {
			impact = "high"
		} else if abs >= 0.1 {
			impact = "medium"
		}
		summary[cat] = CategorySummary{
			Count:    counts[cat],
			AvgScore: formulas.Round4(avg),
			Impact:   impact,
		}
	}
	return summary
}
