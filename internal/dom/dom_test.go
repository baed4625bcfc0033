package dom

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRenderEscapesText(t *testing.T) {
	d := NewDocument()
	d.Append(d.Root(), d.El("span", Class("name"), Text(`<script>alert("x")</script>`)))

	f, err := d.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(f.HTML, "<script>") {
		t.Errorf("Expected text to be escaped, got %s", f.HTML)
	}
	if !strings.Contains(f.HTML, "&lt;script&gt;") {
		t.Errorf("Expected escaped script tag, got %s", f.HTML)
	}
}

func TestHandlersAndRemove(t *testing.T) {
	d := NewDocument()
	parent := d.El("div")
	btn := d.El("button", Text("go"))
	d.Append(parent, btn)
	d.Append(d.Root(), parent)

	clicks := 0
	d.On(btn, "click", func(Event) { clicks++ })
	d.On(btn, "click", func(Event) { clicks++ })
	if GetAttr(btn, OnAttr) != "click" {
		t.Errorf("Expected on attribute 'click', got '%s'", GetAttr(btn, OnAttr))
	}

	if !d.Click(btn) || clicks != 2 {
		t.Errorf("Expected 2 handler calls, got %d", clicks)
	}

	d.Remove(parent)
	if d.Find(ID(btn)) != nil {
		t.Error("Expected removed element to be forgotten")
	}
	if d.Click(btn) {
		t.Error("Expected no handler after removal")
	}
	if d.Attached(btn) {
		t.Error("Expected button to be detached")
	}
}

func TestOff(t *testing.T) {
	d := NewDocument()
	n := d.El("div")
	d.On(n, "click", func(Event) {})
	d.On(n, "dblclick", func(Event) {})
	d.Off(n, "click")
	if GetAttr(n, OnAttr) != "dblclick" {
		t.Errorf("Expected 'dblclick', got '%s'", GetAttr(n, OnAttr))
	}
	if d.Click(n) {
		t.Error("Expected click handler to be gone")
	}
}

func TestKeyListeners(t *testing.T) {
	d := NewDocument()
	var got []string
	remove := d.AddKeyListener(func(ev Event) { got = append(got, "a:"+ev.Key) })
	d.AddKeyListener(func(ev Event) { got = append(got, "b:"+ev.Key) })

	d.Dispatch(Event{Type: "keydown", Key: "Escape"})
	if strings.Join(got, ",") != "a:Escape,b:Escape" {
		t.Errorf("Unexpected dispatch order: %v", got)
	}

	remove()
	remove()
	if d.KeyListeners() != 1 {
		t.Errorf("Expected 1 listener, got %d", d.KeyListeners())
	}
}

func TestStyleEditing(t *testing.T) {
	d := NewDocument()
	n := d.El("div", Style("left", "10px"), Style("top", "20px"))
	if s, _ := StyleText(n); s != "left: 10px; top: 20px;" {
		t.Errorf("Unexpected style '%s'", s)
	}

	SetStyle(n, "left", "30px")
	SetStyle(n, "width", "100px")
	if s, _ := StyleText(n); s != "left: 30px; top: 20px; width: 100px;" {
		t.Errorf("Unexpected style after edit '%s'", s)
	}
	if GetStyle(n, "top") != "20px" {
		t.Errorf("Expected top 20px, got '%s'", GetStyle(n, "top"))
	}

	SetStyle(n, "left", "")
	SetStyle(n, "top", "")
	SetStyle(n, "width", "")
	if _, ok := StyleText(n); ok {
		t.Error("Expected style attribute to be removed when empty")
	}
}

func TestStyleSnapshotRestore(t *testing.T) {
	d := NewDocument()
	n := d.El("div")
	SetAttr(n, "style", "left:5px;top: 6px ;")
	raw, ok := StyleText(n)

	SetStyle(n, "left", "0")
	SetStyle(n, "width", "100vw")
	SetStyleText(n, raw, ok)

	if s, _ := StyleText(n); s != "left:5px;top: 6px ;" {
		t.Errorf("Expected verbatim restore, got '%s'", s)
	}

	bare := d.El("div")
	raw, ok = StyleText(bare)
	SetStyle(bare, "top", "1px")
	SetStyleText(bare, raw, ok)
	if HasAttr(bare, "style") {
		t.Error("Expected style attribute to be absent again")
	}
}

func TestSetHTMLAndFocus(t *testing.T) {
	d := NewDocument()
	box := d.El("div")
	d.Append(d.Root(), box)
	if err := d.SetHTML(box, `<p>one</p><p>two</p>`); err != nil {
		t.Fatal(err)
	}
	if len(ByTag(box, "p")) != 2 || TextContent(box) != "onetwo" {
		t.Errorf("Unexpected fragment content: %s", OuterHTML(box))
	}

	d.Focus(box)
	if d.Focused() != ID(box) {
		t.Error("Expected box to be focused")
	}
	f, _ := d.Render()
	if len(f.Commands) != 1 || f.Commands[0].Name != "focus" || f.Commands[0].Target != ID(box) {
		t.Errorf("Unexpected commands: %+v", f.Commands)
	}
	f, _ = d.Render()
	if len(f.Commands) != 0 {
		t.Error("Expected command queue to be drained")
	}
}

func TestClasses(t *testing.T) {
	d := NewDocument()
	n := d.El("div", Class("a", "b"))
	AddClass(n, "a")
	ToggleClass(n, "c", true)
	RemoveClass(n, "b")
	if GetAttr(n, "class") != "a c" {
		t.Errorf("Expected 'a c', got '%s'", GetAttr(n, "class"))
	}
	Hide(n)
	if !Hidden(n) {
		t.Error("Expected hidden")
	}
	Show(n)
	if Hidden(n) {
		t.Error("Expected shown")
	}
}

func TestLoopSerializesWork(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idle := make(chan struct{}, 100)
	l.Idle = func() { idle <- struct{}{} }
	go l.Run(ctx)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Call(func() { counter++ })
		}()
	}
	wg.Wait()

	var got int
	l.Call(func() { got = counter })
	if got != 50 {
		t.Errorf("Expected 50, got %d", got)
	}

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Error("Expected idle hook to run")
	}
}

func TestLoopPostFromLoop(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan string, 1)
	l.Post(func() {
		l.Post(func() { done <- "nested" })
	})
	select {
	case v := <-done:
		if v != "nested" {
			t.Errorf("Unexpected value %s", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Nested post never ran")
	}
}

func TestLoopStops(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished
	if l.Post(func() {}) {
		t.Error("Expected Post to fail after stop")
	}
	if l.Call(func() {}) {
		t.Error("Expected Call to fail after stop")
	}
}
