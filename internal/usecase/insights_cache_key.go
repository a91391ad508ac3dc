package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"skillpulse/internal/domain/posting"
	"skillpulse/internal/infrastructure/cache"
)

type insightsCacheKeyInput struct {
	Location   string `json:"location"`
	Role       string `json:"role"`
	Level      string `json:"level"`
	Days       int    `json:"days"`
	MaxResults int    `json:"max_results"`
	Top        int    `json:"top"`
}

func normalizeKeyValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// InsightsCacheKey hashes the query so equivalent requests share an entry.
// Location is case-folded because the store matches it case-insensitively.
func InsightsCacheKey(q posting.IngestionQuery, top int) string {
	in := insightsCacheKeyInput{
		Location:   normalizeKeyValue(q.Location()),
		Role:       string(q.RoleBucket()),
		Level:      string(q.LevelBucket()),
		Days:       q.Days(),
		MaxResults: q.MaxResults(),
		Top:        top,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return cache.InsightsKeyPrefix + hex.EncodeToString(sum[:])
}
