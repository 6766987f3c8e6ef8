package llm

import (
	"encoding/json"
	"testing"
)

// validPayload returns a complete backend answer. Mutate the map to build
// broken variants.
func validPayload(t *testing.T, overall int) map[string]any {
	t.Helper()
	crit := func(title, status string, score int) map[string]any {
		return map[string]any{
			"score":       score,
			"title":       title,
			"description": title + " 說明",
			"status":      status,
		}
	}
	return map[string]any{
		"overallScore": overall,
		"bloomsLevel":  "分析 (Analyze)",
		"summary":      "整體而言題目具備情境，但部分選項設計需修正。",
		"strengths":    []string{"情境貼近生活"},
		"weaknesses":   []string{"第 5 題選項長度不一"},
		"suggestions":  []string{"統一選項長度"},
		"questionImprovements": []map[string]any{
			{"questionId": "第 5 題", "issue": "選項 C 明顯較長", "suggestion": "調整選項長度使其相近"},
		},
		"criteriaBreakdown": map[string]any{
			"realContext":       crit("真實情境", "good", 80),
			"problemSolving":    crit("問題解決", "excellent", 90),
			"interdisciplinary": crit("跨領域", "warning", 55),
			"technicalQuality":  crit("一般命題原則", "warning", 60),
			"editorialQuality":  crit("文句與格式檢核", "critical", 30),
			"contentReview":     crit("內容審查", "good", 85),
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
