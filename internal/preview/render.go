package preview

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
)

// Class names the window manager reflows on fullscreen.
const (
	CodeClass         = "dm-code"
	TableWrapperClass = "dm-table-wrapper"
	TableScaleClass   = "dm-table-scale"
)

// Mode selects between the inline panel and a floating window.
type Mode int

const (
	Panel Mode = iota
	Floating
)

// Target is where a preview is rendered. Toolbar is optional; when it is
// nil, category controls that need a home are placed in Content.
type Target struct {
	Content *html.Node
	Toolbar *html.Node
	Mode    Mode

	// Loaded runs on the loop after fetched content has been placed.
	Loaded func()
}

// Source fetches file content for one connection.
type Source interface {
	PreviewURL(path string) string
	FetchBytes(ctx context.Context, path string) ([]byte, error)
}

// Poster schedules work on the goroutine that owns the document.
type Poster interface {
	Post(fn func()) bool
}

// Limits bounds how much content is rendered.
type Limits struct {
	PanelMaxChars    int
	FloatingMaxChars int
	TableMaxRows     int
}

// DefaultLimits match the configuration defaults.
var DefaultLimits = Limits{PanelMaxChars: 50000, FloatingMaxChars: 200000, TableMaxRows: 1000}

// Renderer writes previews into dom containers. Render must be called on
// the loop; fetching and parsing happen on worker goroutines.
type Renderer struct {
	doc    *dom.Document
	loop   Poster
	tr     *i18n.Localizer
	limits Limits
	log    *zap.Logger
}

// New creates a Renderer.
func New(doc *dom.Document, loop Poster, tr *i18n.Localizer, limits Limits) *Renderer {
	if limits.PanelMaxChars <= 0 {
		limits.PanelMaxChars = DefaultLimits.PanelMaxChars
	}
	if limits.FloatingMaxChars <= 0 {
		limits.FloatingMaxChars = DefaultLimits.FloatingMaxChars
	}
	if limits.TableMaxRows <= 0 {
		limits.TableMaxRows = DefaultLimits.TableMaxRows
	}
	return &Renderer{doc: doc, loop: loop, tr: tr, limits: limits, log: logging.Named("preview")}
}

func (r *Renderer) maxChars(m Mode) int {
	if m == Floating {
		return r.limits.FloatingMaxChars
	}
	return r.limits.PanelMaxChars
}

// Render replaces the content of t with a preview of path. The returned
// channel is closed once the content is in place, or once the result has
// been dropped because ctx ended or the container left the document.
func (r *Renderer) Render(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	r.doc.Clear(t.Content)
	if t.Toolbar != nil {
		r.doc.Clear(t.Toolbar)
	}

	switch Detect(path) {
	case Image:
		r.renderImage(src, path, t)
	case Video, Audio:
		r.renderMedia(src, path, t)
	case Code:
		return r.renderCode(ctx, src, path, t)
	case Document:
		return r.renderDocument(ctx, src, path, t)
	case Spreadsheet:
		return r.renderSpreadsheet(ctx, src, path, t)
	default:
		r.renderUnsupported(path, t)
	}
	return closed()
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// load runs work off the loop, then applies its result on the loop.
// Failures replace the content with an inline error.
func (r *Renderer) load(ctx context.Context, path string, t Target, work func(context.Context) (func(), error)) <-chan struct{} {
	done := make(chan struct{})
	r.doc.Append(t.Content, r.doc.El("div", dom.Class("dm-preview-loading"), dom.Text(r.tr.T("loading"))))

	go func() {
		start := time.Now()
		apply, err := work(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.log.Warn("preview failed", logging.String("path", path), logging.Err(err))
		} else if err == nil {
			r.log.Debug("preview loaded", logging.String("path", path), logging.Duration("took", time.Since(start)))
		}
		posted := r.loop.Post(func() {
			defer close(done)
			if ctx.Err() != nil || !r.doc.Attached(t.Content) {
				return
			}
			r.doc.Clear(t.Content)
			if err != nil {
				r.showError(t, err)
				return
			}
			apply()
			if t.Loaded != nil {
				t.Loaded()
			}
		})
		if !posted {
			close(done)
		}
	}()
	return done
}

func (r *Renderer) showError(t Target, err error) {
	msg := apperrors.UserMessage(err)
	r.doc.Append(t.Content, r.errorNode(r.tr.T("preview_failed", i18n.D{"Error": msg})))
}

func (r *Renderer) errorNode(msg string) *html.Node {
	return r.doc.El("div", dom.Class("dm-preview-error"),
		dom.Children(
			r.doc.El("span", dom.Class("dm-preview-error-icon"), dom.Text("⚠️")),
			r.doc.El("span", dom.Class("dm-preview-error-text"), dom.Text(msg)),
		))
}

func (r *Renderer) notice(msg string) *html.Node {
	return r.doc.El("div", dom.Class("dm-preview-notice"), dom.Text(msg))
}

func (r *Renderer) button(label, title string, onClick dom.Handler) *html.Node {
	b := r.doc.El("button", dom.Class("dm-btn", "dm-btn-small"), dom.Attr("title", title), dom.Text(label))
	r.doc.On(b, "click", onClick)
	return b
}

// controls returns the node category controls are added to.
func (r *Renderer) controls(t Target) *html.Node {
	if t.Toolbar != nil {
		return t.Toolbar
	}
	bar := r.doc.El("div", dom.Class("dm-preview-controls"))
	r.doc.Append(t.Content, bar)
	return bar
}

func (r *Renderer) renderUnsupported(path string, t Target) {
	cfg := ConfigFor(Unsupported)
	r.doc.Append(t.Content, r.doc.El("div", dom.Class("dm-preview-unsupported"),
		dom.Children(
			r.doc.El("div", dom.Class("dm-preview-unsupported-icon"), dom.Style("color", cfg.Color), dom.Text(cfg.Icon)),
			r.doc.El("div", dom.Class("dm-preview-file-name"), dom.Text(baseName(path))),
			r.doc.El("div", dom.Class("dm-preview-message"), dom.Text(r.tr.T("preview_unsupported"))),
		)))
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}
