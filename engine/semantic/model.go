package semantic

import "github.com/google/uuid"

// IndexRecord is one migrated vector headed for the Qdrant index.
type IndexRecord struct {
	DocumentID string
	SourceType string
	SourceID   string
	SiteID     string
	TeamID     string
	Content    string
	Model      string
	Quality    float64
	Embedding  []float64
}

// Hit is a single similarity search result.
type Hit struct {
	ID         string            `json:"id"`
	Score      float32           `json:"score"`
	DocumentID string            `json:"documentId"`
	SourceType string            `json:"sourceType"`
	Content    string            `json:"content"`
	Meta       map[string]string `json:"meta"`
}

// pointIDNamespace scopes deterministic point IDs.
var pointIDNamespace = uuid.NameSpaceOID

// PointID derives a stable UUID from a documentId, so re-indexing the
// same document overwrites its point instead of duplicating it.
func PointID(documentID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(documentID)).String()
}
