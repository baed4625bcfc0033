package theme

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"comfyui-data-manager/internal/dom"
)

func TestFromVars(t *testing.T) {
	s := FromVars(map[string]string{"--comfy-menu-bg": " #f0f0f0 ", "--input-text": "#111"})
	if s.Background != "#f0f0f0" || s.Text != "#111" {
		t.Errorf("Unexpected snapshot %+v", s)
	}
	if s.Dark {
		t.Error("Expected light theme for #f0f0f0")
	}
	if s.Border != Default.Border {
		t.Errorf("Expected default border, got %s", s.Border)
	}

	s = FromVars(map[string]string{"--comfy-menu-bg": "rgb(20, 20, 20)"})
	if !s.Dark {
		t.Error("Expected dark theme for rgb(20, 20, 20)")
	}
	if !FromVars(nil).Dark {
		t.Error("Expected default theme to be dark")
	}
}

func TestApply(t *testing.T) {
	doc := dom.NewDocument()
	n := doc.El("div")
	FromVars(map[string]string{"--comfy-menu-bg": "#fff"}).Apply(n)
	if dom.GetStyle(n, "--dm-bg") != "#fff" {
		t.Errorf("Expected --dm-bg #fff, got %s", dom.GetStyle(n, "--dm-bg"))
	}
	if dom.GetAttr(n, "data-dm-theme") != "light" {
		t.Errorf("Expected light, got %s", dom.GetAttr(n, "data-dm-theme"))
	}
}

func TestPoll(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	Poll(ctx, 10*time.Millisecond, func() { n.Add(1) })
	if n.Load() < 2 {
		t.Errorf("Expected several polls, got %d", n.Load())
	}
}
