package types

import (
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// NewsItem is an already scored article; sentiment comes from an upstream analyzer
type NewsItem struct {
	Title          string    `json:"title" yaml:"title"`
	Content        string    `json:"content" yaml:"content"`
	Source         string    `json:"source,omitempty" yaml:"source,omitempty"`
	Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
	SentimentScore float64   `json:"sentiment_score" yaml:"sentiment_score"`
	Confidence     float64   `json:"confidence" yaml:"confidence"`
	PublishedAt    time.Time `json:"published_at" yaml:"published_at"`
}

// Validate range-checks the sentiment and confidence scores
func (n NewsItem) Validate() error {
	if err := errors.RangeCheck("news", "sentiment_score", n.SentimentScore, -1, 1); err != nil {
		return err
	}
	return errors.RangeCheck("news", "confidence", n.Confidence, 0, 1)
}

// Text returns title and content joined for keyword matching
func (n NewsItem) Text() string {
	return n.Title + " " + n.Content
}
