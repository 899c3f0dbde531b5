package models

import "time"

// SystemMetrics is the JSON summary of the in-process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	BulkActions              uint64    `json:"bulk_actions"`
	BulkFailures             uint64    `json:"bulk_failures"`
	DraftSaves               uint64    `json:"draft_saves"`
	DraftSaveFailures        uint64    `json:"draft_save_failures"`
	ApplicationsSubmitted    uint64    `json:"applications_submitted"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
