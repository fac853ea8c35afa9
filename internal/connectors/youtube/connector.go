// Package youtube provides a source adapter for YouTube channels.
//
// The source string names a channel ("youtube:<channel-id-or-handle>").
// Video metadata comes from the YouTube Data API; the audio track of each
// video is fetched with an external yt-dlp binary so transcription models
// can consume it as a local file.
package youtube

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.SourceAdapter = (*Connector)(nil)

// Default configuration values.
const (
	DefaultDownloader = "yt-dlp"
	DefaultFormat     = "bestaudio[ext=m4a]"

	// The Data API quota is generous for list calls, but stay polite.
	requestsPerSecond = 5
	burstSize         = 5

	pageSize = 50
)

// sourcePrefix introduces youtube source strings.
const sourcePrefix = "youtube:"

// DownloadFunc fetches a video's audio into destDir and returns the local
// file path.
type DownloadFunc func(ctx context.Context, videoID, destDir string) (string, error)

// Config holds configuration for the YouTube connector.
type Config struct {
	// APIKey is the YouTube Data API key (required).
	APIKey string

	// Downloader is the yt-dlp binary to invoke (default: yt-dlp on PATH).
	Downloader string

	// Format is the yt-dlp format selector (default: bestaudio[ext=m4a]).
	Format string
}

// Connector enumerates the uploads of a YouTube channel.
type Connector struct {
	svc      *youtubeapi.Service
	limiter  *rate.Limiter
	download DownloadFunc
}

// New creates a connector backed by the YouTube Data API.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube: API key is required")
	}
	if cfg.Downloader == "" {
		cfg.Downloader = DefaultDownloader
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}

	svc, err := youtubeapi.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Connector{
		svc:      svc,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		download: ytdlpDownloader(cfg.Downloader, cfg.Format),
	}, nil
}

// NewWithService creates a connector over an existing API service and
// download function. Intended for tests.
func NewWithService(svc *youtubeapi.Service, download DownloadFunc) *Connector {
	return &Connector{
		svc:      svc,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		download: download,
	}
}

// Kind returns the source kind this connector serves.
func (c *Connector) Kind() domain.SourceKind {
	return domain.SourceYouTube
}

// Enumerate resolves the channel's uploads playlist and streams one item
// per video. The document id is "youtube:<video-id>" so re-ingesting a
// channel skips videos already indexed; the local path points at the
// downloaded audio, marked transient so the consumer removes it after
// processing. Download failures for individual videos are logged and
// skipped.
func (c *Connector) Enumerate(ctx context.Context, source string) (<-chan domain.RawItem, <-chan error) {
	items := make(chan domain.RawItem)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		channel, ok := strings.CutPrefix(source, sourcePrefix)
		if !ok || channel == "" {
			errs <- fmt.Errorf("%w: %q is not a youtube source", domain.ErrUnrecognizedSource, source)
			return
		}

		uploads, err := c.uploadsPlaylist(ctx, channel)
		if err != nil {
			errs <- err
			return
		}

		pageToken := ""
		for {
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}

			resp, err := c.svc.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(uploads).
				MaxResults(pageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			if err != nil {
				errs <- fmt.Errorf("list uploads of %s: %w", channel, err)
				return
			}

			for _, entry := range resp.Items {
				videoID := entry.ContentDetails.VideoId
				if videoID == "" {
					continue
				}

				localPath, err := c.download(ctx, videoID, os.TempDir())
				if err != nil {
					logger.Warn("Failed to fetch audio of %s: %v", videoID, err)
					continue
				}

				select {
				case <-ctx.Done():
					os.Remove(localPath) // never delivered, nobody else will
					return
				case items <- domain.RawItem{
					DocumentID: sourcePrefix + videoID,
					Path:       localPath,
					Transient:  true,
				}:
				}
			}

			pageToken = resp.NextPageToken
			if pageToken == "" {
				return
			}
		}
	}()

	return items, errs
}

// uploadsPlaylist resolves a channel id or handle to its uploads playlist.
func (c *Connector) uploadsPlaylist(ctx context.Context, channel string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	call := c.svc.Channels.List([]string{"contentDetails"}).Context(ctx)
	if strings.HasPrefix(channel, "UC") {
		call = call.Id(channel)
	} else {
		call = call.ForHandle(channel)
	}

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("look up channel %s: %w", channel, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: channel %q", domain.ErrNotFound, channel)
	}

	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("channel %s has no uploads playlist", channel)
	}
	return uploads, nil
}

// ytdlpDownloader shells out to yt-dlp for the audio track.
func ytdlpDownloader(binary, format string) DownloadFunc {
	return func(ctx context.Context, videoID, destDir string) (string, error) {
		outPath := filepath.Join(destDir, videoID+".m4a")

		cmd := exec.CommandContext(ctx, binary,
			"-f", format,
			"--no-playlist",
			"-o", outPath,
			"https://www.youtube.com/watch?v="+videoID,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(output)))
		}
		return outPath, nil
	}
}
