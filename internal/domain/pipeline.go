package domain

import "time"

type BucketStat struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type SourceStat struct {
	Source          string     `json:"source"`
	TotalPostings   int        `json:"total_postings"`
	LastRetrievedAt *time.Time `json:"last_retrieved_at"`
}

type PipelineStatus struct {
	TotalPostings   int          `json:"total_postings"`
	PostingsToday   int          `json:"postings_today"`
	SkillRows       int          `json:"skill_rows"`
	Sources         []SourceStat `json:"sources"`
	Roles           []BucketStat `json:"roles"`
	Levels          []BucketStat `json:"levels"`
	DatabaseHealthy bool         `json:"database_healthy"`
	RedisHealthy    bool         `json:"redis_healthy"`
	ServerTime      time.Time    `json:"server_time"`
}
