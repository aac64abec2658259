package storage

import "time"

// ResumeAnalyzedEvent 简历分析完成事件，发布到 events_exchange
type ResumeAnalyzedEvent struct {
	EventType          string    `json:"event_type"`
	AnalysisID         string    `json:"analysis_id"`
	FileMD5            string    `json:"file_md5"`
	SourceFilename     string    `json:"source_filename"`
	ObjectKey          string    `json:"object_key,omitempty"` // 未归档时为空
	OverallScore       int       `json:"overall_score"`
	Skills             []string  `json:"skills"`
	GapCount           int       `json:"gap_count"`
	VulnerabilityCount int       `json:"vulnerability_count"`
	AnalyzedAt         time.Time `json:"analyzed_at"`
}
