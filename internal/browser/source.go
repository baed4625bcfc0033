package browser

import (
	"context"

	"comfyui-data-manager/internal/preview"
)

// connSource binds the backend to one connection for previews.
type connSource struct {
	api    Backend
	connID string
}

func (s connSource) PreviewURL(path string) string {
	return s.api.PreviewURL(path, s.connID)
}

func (s connSource) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	return s.api.FetchBytes(ctx, path, s.connID)
}

// source returns the preview source for the active connection.
func (c *Controller) source() preview.Source {
	return connSource{api: c.api, connID: c.conns.ActiveID()}
}
