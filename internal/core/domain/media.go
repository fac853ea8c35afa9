package domain

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MediaKind is the coarse content-type classification of an item.
// It determines which embedding models and store collections apply.
type MediaKind string

const (
	// MediaImage covers still images (jpeg, png, webp, ...).
	MediaImage MediaKind = "image"

	// MediaAudio covers audio files (mp3, wav, flac, ...).
	MediaAudio MediaKind = "audio"

	// MediaVideo covers video files (mp4, webm, ...).
	MediaVideo MediaKind = "video"

	// MediaText covers plain text content.
	MediaText MediaKind = "text"

	// MediaUnknown is returned when no classification applies.
	MediaUnknown MediaKind = "unknown"
)

// String returns the kind name.
func (k MediaKind) String() string {
	return string(k)
}

// AllMediaKinds lists every classifiable kind in canonical order.
var AllMediaKinds = []MediaKind{MediaImage, MediaAudio, MediaVideo, MediaText}

// ParseMediaKind converts a user-supplied kind name to a MediaKind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch kind := MediaKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case MediaImage, MediaAudio, MediaVideo, MediaText:
		return kind, nil
	default:
		return MediaUnknown, fmt.Errorf("%w: unknown media kind %q", ErrInvalidInput, s)
	}
}

// knownExtensions pins the classification of common media extensions.
// The mime package consults the host's mime.types files, so without this
// table classification would vary between machines (.txt and .mp3 are not
// in Go's builtin table at all).
var knownExtensions = map[string]MediaKind{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage,
	".gif": MediaImage, ".webp": MediaImage, ".bmp": MediaImage,

	".mp3": MediaAudio, ".wav": MediaAudio, ".flac": MediaAudio,
	".m4a": MediaAudio, ".ogg": MediaAudio, ".aac": MediaAudio,

	".mp4": MediaVideo, ".webm": MediaVideo, ".mov": MediaVideo,
	".mkv": MediaVideo, ".avi": MediaVideo,

	".txt": MediaText,
}

// ClassifyMedia maps a file path or object key to a MediaKind from the
// extension, consulting a fixed table first and the extension's MIME type
// second. It never fails: anything without a recognised top-level MIME type
// (image, audio, video, text) classifies as MediaUnknown.
func ClassifyMedia(pathOrKey string) MediaKind {
	ext := strings.ToLower(filepath.Ext(pathOrKey))
	if ext == "" {
		return MediaUnknown
	}
	if kind, ok := knownExtensions[ext]; ok {
		return kind
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return MediaUnknown
	}
	top, _, _ := strings.Cut(mimeType, "/")
	switch top {
	case "image":
		return MediaImage
	case "audio":
		return MediaAudio
	case "video":
		return MediaVideo
	case "text":
		return MediaText
	default:
		return MediaUnknown
	}
}

// Media is a loaded media item ready to hand to an embedding model.
// Exactly one of Bytes or Path is normally set: images are loaded into
// memory, audio and video are referenced by a local file path.
type Media struct {
	// Kind is the media classification of the item.
	Kind MediaKind

	// Path is a local filesystem path to the media, when applicable.
	Path string

	// Bytes is the raw content, when loaded into memory.
	Bytes []byte

	// MIMEType is the content type guessed from the item identifier.
	MIMEType string
}
