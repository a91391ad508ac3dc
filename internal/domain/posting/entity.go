package posting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

type JobPosting struct {
	ID             string
	Source         string
	URL            string
	Title          string
	Company        string
	Location       *string
	DatePosted     *string
	RetrievedAt    time.Time
	RoleBucket     RoleBucket
	LevelBucket    LevelBucket
	DescriptionRaw string
	// Raw is the upstream record exactly as received.
	Raw json.RawMessage
}

// MakeID returns the first 32 hex chars of sha256("<source>:<url>").
func MakeID(source, url string) string {
	h := sha256.Sum256([]byte(source + ":" + url))
	return hex.EncodeToString(h[:])[:32]
}

type SkillCount struct {
	PostingID string
	Skill     string
	Count     int
}
