package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
	"github.com/CryptiqueAI/cryptique-mvp/engine/embed"
	"github.com/CryptiqueAI/cryptique-mvp/engine/extract"
	"github.com/CryptiqueAI/cryptique-mvp/engine/semantic"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/fn"
	"github.com/CryptiqueAI/cryptique-mvp/pkg/repo"
)

// record carries one document through the per-record stages.
type record struct {
	source     domain.SourceType
	doc        repo.Doc
	sourceID   string
	documentID string
	content    string
	result     embed.Result
}

// recordOut is the terminal pipeline value.
type recordOut struct {
	documentID string
	index      semantic.IndexRecord
}

// recordPipeline composes the per-record stages: validate, duplicate
// check, content extraction, embedding, and the vector document write.
func (m *Migrator) recordPipeline(source domain.SourceType) fn.Stage[repo.Doc, recordOut] {
	prepare := fn.Then(m.validateStage(source), m.dedupStage())
	produce := fn.Then(extractStage(),
		fn.TracedStage("migrate.embed", m.embedStage()))
	return fn.Then(fn.Then(prepare, produce), m.storeStage())
}

func (m *Migrator) validateStage(source domain.SourceType) fn.Stage[repo.Doc, record] {
	return func(_ context.Context, doc repo.Doc) fn.Result[record] {
		id := doc.String("_id")
		if id == "" {
			return fn.Err[record](domain.NewValidationError("_id", "", domain.ErrMissingID))
		}
		if m.cfg.ValidateData {
			if err := domain.Validate(source, doc); err != nil {
				return fn.Err[record](err)
			}
		}
		return fn.Ok(record{
			source:     source,
			doc:        doc,
			sourceID:   id,
			documentID: fmt.Sprintf("%s_%s", source.DataType(), id),
		})
	}
}

// dedupStage skips records whose documentId already exists, making
// re-runs and checkpoint resumes idempotent.
func (m *Migrator) dedupStage() fn.Stage[record, record] {
	vectors := m.store.Collection(VectorCollection)
	return func(ctx context.Context, r record) fn.Result[record] {
		_, err := vectors.FindOne(ctx, repo.Filter{"documentId": r.documentID})
		if err == nil {
			return fn.Errf[record]("%w: %s", errDuplicate, r.documentID)
		}
		return fn.Ok(r)
	}
}

func extractStage() fn.Stage[record, record] {
	return func(_ context.Context, r record) fn.Result[record] {
		content, err := extract.Content(r.source, r.doc)
		if err != nil {
			return fn.Err[record](err)
		}
		r.content = content
		return fn.Ok(r)
	}
}

func (m *Migrator) embedStage() fn.Stage[record, record] {
	return func(ctx context.Context, r record) fn.Result[record] {
		ec := &embed.Context{
			DataType:   r.source.DataType(),
			SourceType: r.source.DataType(),
			Importance: r.source.Importance(),
		}
		if r.source == domain.SourceTransactions {
			ec.ContractID = r.doc.String("contractId")
		} else {
			ec.SiteID = r.doc.String("siteId")
		}

		res := m.gen.Generate(ctx, r.content, m.cfg.Model, ec, true)
		if !res.Success {
			return fn.Errf[record]("embed %s: %s", r.documentID, res.Error)
		}
		if m.cfg.OptimizeEmbeddings {
			if opt, err := embed.Optimize([][]float64{res.Vector}, embed.OptimizeNormalize); err == nil {
				res.Vector = opt[0]
			}
		}
		r.result = res
		return fn.Ok(r)
	}
}

func (m *Migrator) storeStage() fn.Stage[record, recordOut] {
	vectors := m.store.Collection(VectorCollection)
	return func(ctx context.Context, r record) fn.Result[recordOut] {
		now := time.Now().UTC().Format(time.RFC3339)
		meta := map[string]any{
			"dataType":           r.source.DataType(),
			"embeddingModel":     string(r.result.ModelUsed),
			"qualityScore":       r.result.QualityScore,
			"processingTime":     r.result.ProcessingTime.Seconds(),
			"migrationTimestamp": now,
		}
		if m.cfg.BackupOriginal {
			meta["originalRecord"] = map[string]any(r.doc)
		}
		doc := repo.Doc{
			"documentId": r.documentID,
			"sourceType": r.source.DataType(),
			"sourceId":   r.sourceID,
			"siteId":     r.doc.String("siteId"),
			"teamId":     r.doc.String("teamId"),
			"embedding":  r.result.Vector,
			"content":    r.content,
			"metadata":   meta,
			"status":     "active",
			"createdAt":  now,
			"updatedAt":  now,
		}
		if _, err := vectors.InsertOne(ctx, doc); err != nil {
			return fn.Errf[recordOut]("store %s: %w", r.documentID, err)
		}
		return fn.Ok(recordOut{
			documentID: r.documentID,
			index: semantic.IndexRecord{
				DocumentID: r.documentID,
				SourceType: r.source.DataType(),
				SourceID:   r.sourceID,
				SiteID:     r.doc.String("siteId"),
				TeamID:     r.doc.String("teamId"),
				Content:    r.content,
				Model:      string(r.result.ModelUsed),
				Quality:    r.result.QualityScore,
				Embedding:  r.result.Vector,
			},
		})
	}
}
