package pipeline

import (
	"log/slog"

	"github.com/geongi-im/news-tracker/internal/ai"
)

// ShouldPersist decides whether a classification outcome clears the score
// threshold. Every rejection is logged with enough context to diagnose
// without replaying the model call.
func ShouldPersist(resp ai.Response, threshold int, log *slog.Logger, title string) bool {
	if log == nil {
		log = slog.Default()
	}

	switch resp.Kind {
	case ai.KindParsed:
		score, err := resp.TotalScore()
		if err != nil {
			log.Warn("model response violates score contract",
				"title", titlePrefix(title), "error", err, "data", resp.Data)
			return false
		}
		return score >= threshold
	case ai.KindRawOnly:
		log.Warn("model returned unstructured text",
			"title", titlePrefix(title), "raw", resp.Raw)
		return false
	default:
		log.Warn("classification failed",
			"title", titlePrefix(title), "raw", resp.Raw, "error", resp.ErrDetail)
		return false
	}
}

func titlePrefix(title string) string {
	runes := []rune(title)
	if len(runes) <= 30 {
		return title
	}
	return string(runes[:30]) + "..."
}
