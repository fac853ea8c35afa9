package services

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// s3Pattern matches scheme-prefixed object storage URIs of the form
// s3://bucket[/key/path].
var s3Pattern = regexp.MustCompile(`^s3://[A-Za-z0-9\-\./]+$`)

// youtubePlatform is the recognised streaming platform token.
const youtubePlatform = "youtube"

// SourceResolver classifies source strings into source kinds and dispatches
// to the matching source adapter. Classification runs in a fixed priority
// order so that pattern matches always win over filesystem lookups: an
// s3:// URI resolves to S3 even if a directory of that literal name exists.
type SourceResolver struct {
	adapters map[domain.SourceKind]driven.SourceAdapter
}

// NewSourceResolver creates a resolver over the given adapters.
// Later adapters for the same kind replace earlier ones.
func NewSourceResolver(adapters ...driven.SourceAdapter) *SourceResolver {
	m := make(map[domain.SourceKind]driven.SourceAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Kind()] = a
	}
	return &SourceResolver{adapters: m}
}

// Classify determines the source kind for a source string.
// Returns domain.ErrUnrecognizedSource when nothing matches.
func (r *SourceResolver) Classify(source string) (domain.SourceKind, error) {
	switch {
	case isS3Source(source):
		return domain.SourceS3, nil
	case isYouTubeSource(source):
		return domain.SourceYouTube, nil
	case isLocalSource(source):
		return domain.SourceLocal, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnrecognizedSource, source)
	}
}

// Resolve classifies a source string and returns the adapter for its kind.
func (r *SourceResolver) Resolve(source string) (driven.SourceAdapter, domain.SourceKind, error) {
	kind, err := r.Classify(source)
	if err != nil {
		return nil, "", err
	}
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, "", fmt.Errorf("%w: no adapter configured for %s source %q",
			domain.ErrUnrecognizedSource, kind, source)
	}
	return adapter, kind, nil
}

func isS3Source(source string) bool {
	return s3Pattern.MatchString(source)
}

func isYouTubeSource(source string) bool {
	platform, channel, ok := strings.Cut(source, ":")
	return ok && platform == youtubePlatform && channel != "" && !strings.Contains(channel, ":")
}

func isLocalSource(source string) bool {
	_, err := os.Stat(source)
	return err == nil
}
