package generations

import "time"

// Generation is the history row kept for every rendered résumé. The artifact
// itself is temporary; ExpiredAt is set once it has been deleted.
type Generation struct {
	ID            string
	UserID        string
	AnalysisID    string
	CompanyName   string
	JobTitle      string
	StorageKey    string
	FileName      string
	RenderPath    string
	ATSBefore     int
	ATSAfter      int
	KeywordsAdded []string
	CreatedAt     time.Time
	ExpiredAt     *time.Time
}

// Session is the cache entry that makes a generation downloadable. Its
// expiry deletes the stored artifact.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	AnalysisID string    `json:"analysis_id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	CreatedAt  time.Time `json:"created_at"`
}
