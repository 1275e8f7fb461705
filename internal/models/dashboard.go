package models

import "time"

// DashboardStats aggregates the counters shown on the dashboard.
type DashboardStats struct {
	ActiveStudents int     `db:"active_students" json:"active_students"`
	ActiveTeachers int     `db:"active_teachers" json:"active_teachers"`
	Classes        int     `db:"classes" json:"classes"`
	Courses        int     `db:"courses" json:"courses"`
	AverageGrade   float64 `db:"average_grade" json:"average_grade"`
}

// SystemMetrics is a point-in-time snapshot of process metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	LoginSuccesses           uint64    `json:"login_successes"`
	LoginFailures            uint64    `json:"login_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
