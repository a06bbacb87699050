package migrate

import (
	"context"
	"fmt"

	"github.com/CryptiqueAI/cryptique-mvp/engine/embed"
	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

// ValidationReport is the read-only post-migration check result.
type ValidationReport struct {
	TotalVectorDocuments int64          `json:"total_vector_documents"`
	SampleSize           int            `json:"sample_size"`
	ValidEmbeddings      int            `json:"valid_embeddings"`
	ValidMetadata        int            `json:"valid_metadata"`
	ValidContent         int            `json:"valid_content"`
	AverageQuality       float64        `json:"average_quality"`
	QualityDistribution  map[string]int `json:"quality_distribution"`
	DuplicateDocumentIDs int            `json:"duplicate_document_ids"`
	Issues               []string       `json:"issues,omitempty"`
}

// ValidateMigration samples up to sampleSize migrated documents and
// checks embedding dimensions, metadata presence, quality-score
// distribution, and documentId uniqueness. Never mutates state.
func (m *Migrator) ValidateMigration(ctx context.Context, sampleSize int) (ValidationReport, error) {
	vectors := m.store.Collection(VectorCollection)

	report := ValidationReport{
		QualityDistribution: map[string]int{
			embed.QualityExcellent: 0,
			embed.QualityGood:      0,
			embed.QualityFair:      0,
			embed.QualityPoor:      0,
		},
	}

	total, err := vectors.Count(ctx, repo.Filter{})
	if err != nil {
		return report, fmt.Errorf("migrate: count vector documents: %w", err)
	}
	report.TotalVectorDocuments = total

	sample, err := vectors.Find(ctx, repo.Filter{}, repo.FindOpts{Limit: sampleSize})
	if err != nil {
		return report, fmt.Errorf("migrate: sample vector documents: %w", err)
	}
	report.SampleSize = len(sample)

	expectedDims := 0
	if spec, err := provider.SpecFor(m.cfg.Model); err == nil {
		expectedDims = spec.Dimensions
	}

	var qualitySum float64
	var scored int
	for _, doc := range sample {
		if vec := docEmbedding(doc); vec > 0 {
			if vec == expectedDims {
				report.ValidEmbeddings++
			} else {
				report.Issues = append(report.Issues,
					fmt.Sprintf("invalid embedding dimension %d for %s", vec, doc.String("documentId")))
			}
		}
		meta := doc.Map("metadata")
		if meta != nil {
			report.ValidMetadata++
		}
		if doc.String("content") != "" {
			report.ValidContent++
		}
		if meta != nil {
			if q, ok := metaQuality(meta); ok {
				qualitySum += q
				scored++
				report.QualityDistribution[embed.QualityLevel(q)]++
			}
		}
	}
	if scored > 0 {
		report.AverageQuality = qualitySum / float64(scored)
	}

	groups, err := vectors.GroupCount(ctx, "documentId")
	if err != nil {
		return report, fmt.Errorf("migrate: duplicate check: %w", err)
	}
	for _, n := range groups {
		if n > 1 {
			report.DuplicateDocumentIDs++
		}
	}

	return report, nil
}

// docEmbedding returns the stored embedding's length, 0 if absent.
func docEmbedding(doc repo.Doc) int {
	switch v := doc["embedding"].(type) {
	case []float64:
		return len(v)
	case []any:
		return len(v)
	}
	return 0
}

func metaQuality(meta map[string]any) (float64, bool) {
	switch v := meta["qualityScore"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
