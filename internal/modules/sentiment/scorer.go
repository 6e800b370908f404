package sentiment

import (
	"math"
	"sort"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// ScoredArticle is one news article with its sentiment score attached
type ScoredArticle struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	PublishedAt     string   `json:"published_date"`
	Source          string   `json:"source"`
	Score           float64  `json:"score"` // -1 to 1
	Category        string   `json:"category"`
	SourceQuality   float64  `json:"source_quality"`
	PositiveMatches []string `json:"positive_matches"`
	NegativeMatches []string `json:"negative_matches"`
}

// Distribution counts articles by sentiment bucket
type Distribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Aggregate holds cross-article sentiment metrics
type Aggregate struct {
	OverallScore   float64            `json:"overall_score"`
	CategoryScores map[string]float64 `json:"category_scores"`
	Distribution   Distribution       `json:"distribution"`
	ArticleCount   int                `json:"article_count"`
}

// Scorer scores news articles with keyword-based lexicon analysis.
type Scorer struct{}

// NewScorer creates a new sentiment scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreArticle scores a single article in [-1, 1]. The title counts
// double relative to the content.
func (s *Scorer) ScoreArticle(article domain.NewsArticle) ScoredArticle {
	combined := article.Title + " " + article.Title + " " + article.Content

	positive := dedupeSorted(append(
		countKeywordMatches(combined, positiveEN),
		countKeywordMatches(combined, positiveCN)...))
	negative := dedupeSorted(append(
		countKeywordMatches(combined, negativeEN),
		countKeywordMatches(combined, negativeCN)...))

	score := float64(len(positive)-len(negative)) / float64(len(positive)+len(negative)+1)

	return ScoredArticle{
		Title:           article.Title,
		URL:             article.URL,
		PublishedAt:     article.PublishedAt,
		Source:          article.Source,
		Score:           formulas.Round4(score),
		Category:        classifyCategory(combined),
		SourceQuality:   assessSourceQuality(article.URL),
		PositiveMatches: positive,
		NegativeMatches: negative,
	}
}

// ScoreBatch scores every article and returns them sorted by absolute
// score descending, most impactful first.
func (s *Scorer) ScoreBatch(articles []domain.NewsArticle) []ScoredArticle {
	scored := make([]ScoredArticle, 0, len(articles))
	for _, a := range articles {
		scored = append(scored, s.ScoreArticle(a))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return math.Abs(scored[i].Score) > math.Abs(scored[j].Score)
	})
	return scored
}

// ComputeAggregate derives the overall weighted score, per-category
// averages, and the sentiment distribution.
func (s *Scorer) ComputeAggregate(scored []ScoredArticle) Aggregate {
	if len(scored) == 0 {
		return Aggregate{CategoryScores: map[string]float64{}}
	}

	totalWeight, weightedSum := 0.0, 0.0
	for _, a := range scored {
		weightedSum += a.Score * a.SourceQuality
		totalWeight += a.SourceQuality
	}
	overall := 0.0
	if totalWeight > 0 {
		overall = weightedSum / totalWeight
	}

	categorySums := make(map[string]float64)
	categoryCounts := make(map[string]int)
	var dist Distribution
	for _, a := range scored {
		categorySums[a.Category] += a.Score
		categoryCounts[a.Category]++

		switch {
		case a.Score > 0.1:
			dist.Positive++
		case a.Score < -0.1:
			dist.Negative++
		default:
			dist.Neutral++
		}
	}

	categoryScores := make(map[string]float64, len(categorySums))
	for cat, sum := range categorySums {
		categoryScores[cat] = formulas.Round4(sum / float64(categoryCounts[cat]))
	}

	return Aggregate{
		OverallScore:   formulas.Round4(overall),
		CategoryScores: categoryScores,
		Distribution:   dist,
		ArticleCount:   len(scored),
	}
}

func dedupeSorted(matches []string) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
