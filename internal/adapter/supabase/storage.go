package supabase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var posterExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// UploadPoster stores an event poster in the poster bucket, links it from the
// event's poster_url column, and returns the public URL. An existing object
// for the same event is replaced.
func (c *Client) UploadPoster(ctx context.Context, eventID, filename string, r io.Reader) (string, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return "", fmt.Errorf("invalid event id %q: %w", eventID, err)
	}
	ext := strings.ToLower(path.Ext(filename))
	if !posterExts[ext] {
		return "", fmt.Errorf("unsupported poster type %q", ext)
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object := eventID + ext
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + c.bucket + "/" + object,
		raw:    r,
		headers: map[string]string{
			"Content-Type": contentType,
			"x-upsert":     "true",
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("upload poster: %w", err)
	}

	publicURL := c.PublicURL(object)
	if err := c.patchEvent(ctx, eventID, map[string]any{"poster_url": publicURL}); err != nil {
		return "", fmt.Errorf("link poster: %w", err)
	}
	c.logger.Info("poster uploaded", "event_id", eventID, "url", publicURL)
	return publicURL, nil
}

// PublicURL returns the public object URL for a file in the poster bucket.
func (c *Client) PublicURL(object string) string {
	return c.baseURL + "/storage/v1/object/public/" + c.bucket + "/" + object
}
