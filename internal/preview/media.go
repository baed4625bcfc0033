package preview

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
)

const (
	minZoom  = 0.25
	maxZoom  = 5.0
	zoomStep = 0.25
)

func clampZoom(z float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, z))
}

func scaleValue(z float64) string {
	return "scale(" + strconv.FormatFloat(z, 'f', -1, 64) + ")"
}

func (r *Renderer) renderImage(src Source, path string, t Target) {
	img := r.doc.El("img",
		dom.Class("dm-preview-image"),
		dom.Attr("src", src.PreviewURL(path)),
		dom.Attr("alt", baseName(path)),
		dom.Attr("draggable", "false"),
	)
	box := r.doc.El("div", dom.Class("dm-preview-image-box"), dom.Children(img))
	r.doc.Append(t.Content, box)

	// the browser reports load failures through the element's error event
	r.doc.On(img, "error", func(dom.Event) {
		if img.Parent == nil {
			return
		}
		r.doc.Remove(img)
		r.doc.Append(box, r.errorNode(r.tr.T("image_failed")))
	})

	zoom := 1.0
	apply := func(z float64) {
		zoom = clampZoom(z)
		dom.SetStyle(img, "transform", scaleValue(zoom))
	}
	bar := r.controls(t)
	r.doc.Append(bar, r.button("−", r.tr.T("zoom_out"), func(dom.Event) { apply(zoom - zoomStep) }))
	r.doc.Append(bar, r.button("⟲", r.tr.T("zoom_reset"), func(dom.Event) { apply(1) }))
	r.doc.Append(bar, r.button("+", r.tr.T("zoom_in"), func(dom.Event) { apply(zoom + zoomStep) }))
}

// formatTime renders seconds as m:ss or h:mm:ss.
func formatTime(sec float64) string {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		sec = 0
	}
	s := int(sec)
	h, m := s/3600, (s%3600)/60
	s %= 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// mediaPlayer is the state behind one custom control bar.
type mediaPlayer struct {
	r       *Renderer
	el      *html.Node
	playBtn *html.Node
	muteBtn *html.Node
	clock   *html.Node
	paused  bool
	muted   bool
	failed  bool
}

func (r *Renderer) renderMedia(src Source, path string, t Target) {
	tag := "video"
	if Detect(path) == Audio {
		tag = "audio"
	}
	el := r.doc.El(tag,
		dom.Class("dm-preview-media", "dm-preview-"+tag),
		dom.Attr("src", src.PreviewURL(path)),
		dom.Attr("preload", "metadata"),
	)
	if tag == "audio" {
		icon := ConfigFor(Audio)
		r.doc.Append(t.Content, r.doc.El("div", dom.Class("dm-preview-audio-art"),
			dom.Style("color", icon.Color), dom.Text(icon.Icon)))
	}
	r.doc.Append(t.Content, el)

	p := &mediaPlayer{r: r, el: el, paused: true}
	p.playBtn = r.button("▶", r.tr.T("play"), func(dom.Event) { p.togglePlay() })
	p.muteBtn = r.button("🔊", r.tr.T("mute"), func(dom.Event) { p.toggleMute() })
	p.clock = r.doc.El("span", dom.Class("dm-media-time"), dom.Text(formatTime(0)+" / "+formatTime(0)))

	bar := r.controls(t)
	dom.AddClass(bar, "dm-media-controls")
	r.doc.Append(bar, p.playBtn)
	r.doc.Append(bar, p.clock)
	r.doc.Append(bar, p.muteBtn)
	if tag == "video" {
		r.doc.Append(bar, r.button("⛶", r.tr.T("fullscreen"), func(dom.Event) {
			r.doc.Exec(el, "requestFullscreen", "")
		}))
	}

	r.doc.On(el, "timeupdate", p.updateClock)
	r.doc.On(el, "loadedmetadata", p.updateClock)
	r.doc.On(el, "play", func(dom.Event) { p.setPaused(false) })
	r.doc.On(el, "pause", func(dom.Event) { p.setPaused(true) })
	r.doc.On(el, "ended", func(dom.Event) { p.setPaused(true) })
	r.doc.On(el, "error", func(dom.Event) {
		if !p.failed {
			p.failed = true
			r.doc.Append(t.Content, r.errorNode(r.tr.T("media_failed")))
		}
	})
}

func (p *mediaPlayer) togglePlay() {
	if p.paused {
		p.r.doc.Exec(p.el, "play", "")
	} else {
		p.r.doc.Exec(p.el, "pause", "")
	}
	p.setPaused(!p.paused)
}

func (p *mediaPlayer) setPaused(paused bool) {
	p.paused = paused
	if paused {
		p.r.doc.SetText(p.playBtn, "▶")
		dom.SetAttr(p.playBtn, "title", p.r.tr.T("play"))
	} else {
		p.r.doc.SetText(p.playBtn, "⏸")
		dom.SetAttr(p.playBtn, "title", p.r.tr.T("pause"))
	}
}

func (p *mediaPlayer) toggleMute() {
	p.muted = !p.muted
	p.r.doc.Exec(p.el, "mute", strconv.FormatBool(p.muted))
	if p.muted {
		p.r.doc.SetText(p.muteBtn, "🔇")
		dom.SetAttr(p.muteBtn, "title", p.r.tr.T("unmute"))
	} else {
		p.r.doc.SetText(p.muteBtn, "🔊")
		dom.SetAttr(p.muteBtn, "title", p.r.tr.T("mute"))
	}
}

func (p *mediaPlayer) updateClock(ev dom.Event) {
	p.r.doc.SetText(p.clock, formatTime(ev.CurrentTime)+" / "+formatTime(ev.Duration))
}
