package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tessera-search/tessera/internal/core/domain"
)

// NormalizeEncoding converts a model's heterogeneous encoding result into a
// uniform list of storage records, injecting provenance metadata.
//
// The sub-item count is the common length of whichever of the result's
// parallel fields are non-empty; disagreement is fatal for this item
// (domain.ErrInconsistentEncoding, nothing is written). When the model
// produced no documents the item is indexed under its document identifier;
// when it assigned no ids, one random unique id is synthesised per sub-item.
//
// Provenance keys (source_type, source_id, document_id) are written last and
// overwrite same-named model metadata. This tie-break is deliberate:
// provenance is authoritative and must survive careless models.
func NormalizeEncoding(
	result domain.EncodingResult,
	source string,
	documentID string,
	sourceKind domain.SourceKind,
) ([]domain.StorageRecord, error) {
	n, err := subItemCount(result, documentID)
	if err != nil {
		return nil, err
	}

	documents := result.Documents
	if len(documents) == 0 {
		documents = []string{documentID}
	}

	ids := result.IDs
	if len(ids) == 0 {
		ids = make([]string, n)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}

	records := make([]domain.StorageRecord, n)
	for i := 0; i < n; i++ {
		metadata := make(map[string]any)
		if i < len(result.Metadata) {
			for k, v := range result.Metadata[i] {
				metadata[k] = v
			}
		}
		metadata[domain.MetaSourceType] = sourceKind.String()
		metadata[domain.MetaSourceID] = source
		metadata[domain.MetaDocumentID] = documentID

		records[i] = domain.StorageRecord{
			ID:       ids[i],
			Document: documents[i],
			Metadata: metadata,
		}
		if i < len(result.Embeddings) {
			records[i].Embedding = result.Embeddings[i]
		}
	}
	return records, nil
}

// subItemCount determines the common length of the non-empty parallel fields.
func subItemCount(result domain.EncodingResult, documentID string) (int, error) {
	lengths := make(map[string]int)
	if len(result.Embeddings) > 0 {
		lengths["embeddings"] = len(result.Embeddings)
	}
	if len(result.Documents) > 0 {
		lengths["documents"] = len(result.Documents)
	}
	if len(result.IDs) > 0 {
		lengths["ids"] = len(result.IDs)
	}
	if len(result.Metadata) > 0 {
		lengths["metadata"] = len(result.Metadata)
	}

	if len(lengths) == 0 {
		return 0, fmt.Errorf("%w: model produced neither embeddings nor documents for %q",
			domain.ErrInconsistentEncoding, documentID)
	}

	n := -1
	for field, l := range lengths {
		if n == -1 {
			n = l
			continue
		}
		if l != n {
			return 0, fmt.Errorf("%w: field %s has %d sub-items, expected %d (document %q)",
				domain.ErrInconsistentEncoding, field, l, n, documentID)
		}
	}

	// With no documents supplied, the single fallback document can only
	// pair with a single sub-item.
	if len(result.Documents) == 0 && n != 1 {
		return 0, fmt.Errorf("%w: %d sub-items but no documents to pair them with (document %q)",
			domain.ErrInconsistentEncoding, n, documentID)
	}
	return n, nil
}
