package domain

import (
	"math"
	"time"
)

// InteractionRecord is one answered question. Records are append-only.
type InteractionRecord struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	Answer       string        `json:"answer"`
	Links        []Link        `json:"links"`
	HasImage     bool          `json:"has_image"`
	ResponseTime time.Duration `json:"response_time"`
	CreatedAt    time.Time     `json:"created_at"`
}

// InteractionStats aggregates the interaction log
type InteractionStats struct {
	TotalQuestions      int64   `json:"total_questions"`
	AverageResponseTime float64 `json:"average_response_time"` // seconds
	QuestionsWithImages int64   `json:"questions_with_images"`
}

// NewInteractionStats builds stats from raw totals.
// The average is reported in seconds rounded to two decimals.
func NewInteractionStats(total, withImages int64, totalSeconds float64) *InteractionStats {
	stats := &InteractionStats{
		TotalQuestions:      total,
		QuestionsWithImages: withImages,
	}
	if total > 0 {
		stats.AverageResponseTime = RoundSeconds(totalSeconds / float64(total))
	}
	return stats
}

// RoundSeconds rounds to two decimal places
func RoundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
