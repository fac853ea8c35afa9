package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"mime"
	"os"
	"path/filepath"
	"strings"

	// Registered image formats for decode validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.Ingestor = (*IngestOrchestrator)(nil)

// IngestOrchestrator coordinates ingestion: it resolves a source string,
// streams its raw items, classifies each item's media kind, fans out across
// the registered embedding models with per-collection deduplication, and
// writes normalised records to the vector store.
type IngestOrchestrator struct {
	resolver *SourceResolver
	registry *ModelRegistry
	store    driven.VectorStore

	// onItem, when set, is called once per enumerated item. Used by the
	// CLI for progress reporting.
	onItem func(documentID string)
}

// NewIngestOrchestrator creates a new ingest orchestrator.
func NewIngestOrchestrator(
	resolver *SourceResolver,
	registry *ModelRegistry,
	store driven.VectorStore,
) *IngestOrchestrator {
	return &IngestOrchestrator{
		resolver: resolver,
		registry: registry,
		store:    store,
	}
}

// OnItem registers a callback invoked for every enumerated item.
func (o *IngestOrchestrator) OnItem(fn func(documentID string)) {
	o.onItem = fn
}

// Ingest indexes everything reachable from the source string.
//
// Per-(item, model) failures - unreadable media, inconsistent encodings,
// store write faults - are logged with the item identifier and skipped; the
// run continues. Only source resolution and enumeration failures abort the
// call. Re-running Ingest with unchanged data produces zero additional
// writes: items already present in a model's collection are skipped.
func (o *IngestOrchestrator) Ingest(ctx context.Context, source string) (*driving.IngestStats, error) {
	adapter, sourceKind, err := o.resolver.Resolve(source)
	if err != nil {
		return nil, err
	}

	logger.Info("Ingesting %s source %s", sourceKind, source)

	// Existing-document-id sets, materialised lazily once per collection
	// encountered in this run. Discarded when the call returns so a later
	// run sees fresh store state.
	existing := make(map[string]map[string]bool)

	stats := &driving.IngestStats{}
	items, errs := adapter.Enumerate(ctx, source)

	for items != nil || errs != nil {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return stats, fmt.Errorf("enumerate %s: %w", source, err)
			}

		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			if o.onItem != nil {
				o.onItem(item.DocumentID)
			}
			o.ingestItem(ctx, source, sourceKind, item, existing, stats)
			if item.Transient && item.Path != "" {
				if err := os.Remove(item.Path); err != nil {
					logger.Debug("Failed to remove download %s: %v", item.Path, err)
				}
			}
		}
	}

	logger.Info("Ingest complete: %d written, %d skipped, %d failed",
		stats.Processed, stats.Skipped, stats.Failed)
	return stats, nil
}

// ingestItem runs the per-item pipeline: classify, fan out across models,
// dedup, load, encode, normalise, write.
func (o *IngestOrchestrator) ingestItem(
	ctx context.Context,
	source string,
	sourceKind domain.SourceKind,
	item domain.RawItem,
	existing map[string]map[string]bool,
	stats *driving.IngestStats,
) {
	mediaKind := domain.ClassifyMedia(item.DocumentID)
	if mediaKind == domain.MediaUnknown && item.Path != "" {
		// Platform items carry an opaque document id; the downloaded
		// file's extension still says what the content is.
		mediaKind = domain.ClassifyMedia(item.Path)
	}
	if mediaKind == domain.MediaUnknown {
		logger.Debug("Skipping %s: unknown media kind", item.DocumentID)
		stats.Skipped++
		return
	}

	models := o.registry.ModelsFor(mediaKind)
	if len(models) == 0 {
		logger.Debug("Skipping %s: no models configured for %s", item.DocumentID, mediaKind)
		stats.Skipped++
		return
	}

	// Media is loaded at most once per item and shared across models.
	var media *domain.Media

	for i, model := range models {
		collection := model.CollectionName(mediaKind)

		ids, err := o.existingIDs(ctx, collection, existing)
		if err != nil {
			logger.Warn("Failed to list existing documents in %s: %v", collection, err)
			stats.Failed++
			continue
		}
		if ids[item.DocumentID] {
			logger.Debug("%s already indexed in %s, skipping", item.DocumentID, collection)
			stats.Skipped++
			continue
		}

		if media == nil {
			loaded, err := loadMedia(mediaKind, item)
			if err != nil {
				logger.Warn("Failed to load %s: %v", item.DocumentID, err)
				// Every remaining (item, model) unit is lost with it.
				stats.Failed += len(models) - i
				return
			}
			media = &loaded
		}

		result, err := model.EncodeMedia(ctx, *media, sourceKind)
		if err != nil {
			logger.Warn("Model %s failed on %s: %v", model.Name(), item.DocumentID, err)
			stats.Failed++
			continue
		}

		records, err := NormalizeEncoding(result, source, item.DocumentID, sourceKind)
		if err != nil {
			logger.Warn("Dropping %s from %s: %v", item.DocumentID, model.Name(), err)
			stats.Failed++
			continue
		}

		if err := o.store.Add(ctx, collection, records); err != nil {
			logger.Warn("Failed to write %s to %s: %v", item.DocumentID, collection, err)
			stats.Failed++
			continue
		}

		ids[item.DocumentID] = true
		stats.Processed++
		logger.Debug("Indexed %s into %s (%d records)", item.DocumentID, collection, len(records))
	}
}

// existingIDs returns the memoised existing-document-id set for a
// collection, fetching it from the store on first use.
func (o *IngestOrchestrator) existingIDs(
	ctx context.Context,
	collection string,
	existing map[string]map[string]bool,
) (map[string]bool, error) {
	if ids, ok := existing[collection]; ok {
		return ids, nil
	}
	listed, err := o.store.ListDocumentIDs(ctx, collection)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(listed))
	for _, id := range listed {
		ids[id] = true
	}
	existing[collection] = ids
	return ids, nil
}

// loadMedia materialises a raw item into the form embedding models consume.
// Images are read into memory and validated; audio and video pass through as
// local file paths. All failures map to domain.ErrMediaLoad.
func loadMedia(kind domain.MediaKind, item domain.RawItem) (domain.Media, error) {
	media := domain.Media{
		Kind:     kind,
		Path:     item.Path,
		Bytes:    item.Bytes,
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(item.DocumentID))),
	}

	switch kind {
	case domain.MediaImage:
		if len(media.Bytes) == 0 {
			data, err := os.ReadFile(item.Path)
			if err != nil {
				return domain.Media{}, fmt.Errorf("%w: %v", domain.ErrMediaLoad, err)
			}
			media.Bytes = data
		}
		if _, _, err := image.DecodeConfig(bytes.NewReader(media.Bytes)); err != nil {
			return domain.Media{}, fmt.Errorf("%w: not a decodable image: %v", domain.ErrMediaLoad, err)
		}

	case domain.MediaAudio, domain.MediaVideo:
		if media.Path == "" {
			return domain.Media{}, fmt.Errorf("%w: no local file for %s item", domain.ErrMediaLoad, kind)
		}
		if _, err := os.Stat(media.Path); err != nil {
			return domain.Media{}, fmt.Errorf("%w: %v", domain.ErrMediaLoad, err)
		}

	case domain.MediaText:
		if len(media.Bytes) == 0 && media.Path != "" {
			data, err := os.ReadFile(media.Path)
			if err != nil {
				return domain.Media{}, fmt.Errorf("%w: %v", domain.ErrMediaLoad, err)
			}
			media.Bytes = data
		}
	}

	return media, nil
}
