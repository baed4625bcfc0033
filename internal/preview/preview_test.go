package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	"comfyui-data-manager/internal/i18n"
)

type fakeSource struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int
	err   error
}

func (s *fakeSource) PreviewURL(path string) string {
	return "/dm/preview?path=" + path
}

func (s *fakeSource) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.files[path]
	if !ok {
		return nil, errors.New("File not found")
	}
	return b, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type harness struct {
	doc  *dom.Document
	loop *dom.Loop
	r    *Renderer
}

func newHarness(t *testing.T, limits Limits) *harness {
	t.Helper()
	doc := dom.NewDocument()
	loop := dom.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return &harness{doc: doc, loop: loop, r: New(doc, loop, i18n.New("en"), limits)}
}

// render builds a target attached to the document and waits for the
// preview to settle.
func (h *harness) render(t *testing.T, src Source, path string, mode Mode, withToolbar bool) Target {
	t.Helper()
	var target Target
	var done <-chan struct{}
	h.loop.Call(func() {
		target = Target{Content: h.doc.El("div"), Mode: mode}
		h.doc.Append(h.doc.Root(), target.Content)
		if withToolbar {
			target.Toolbar = h.doc.El("div")
			h.doc.Append(h.doc.Root(), target.Toolbar)
		}
		done = h.r.Render(context.Background(), src, path, target)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for preview")
	}
	return target
}

func (h *harness) html(n *html.Node) string {
	var out string
	h.loop.Call(func() { out = dom.OuterHTML(n) })
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		cat  Category
		kind Kind
	}{
		{"out/cat.PNG", Image, KindNone},
		{"clip.mp4", Video, KindNone},
		{"song.flac", Audio, KindNone},
		{"workflow.json", Code, KindNone},
		{"C:\\data\\notes.md", Document, KindMarkdown},
		{"paper.pdf", Document, KindPDF},
		{"report.docx", Document, KindDocx},
		{"old.doc", Document, KindDoc},
		{"table.csv", Spreadsheet, KindCSV},
		{"book.xlsx", Spreadsheet, KindXLSX},
		{"book.xls", Spreadsheet, KindXLS},
		{"model.safetensors", Unsupported, KindNone},
		{"Makefile", Unsupported, KindNone},
	}
	for _, tt := range tests {
		if got := Detect(tt.path); got != tt.cat {
			t.Errorf("Detect(%q): expected %s, got %s", tt.path, tt.cat, got)
		}
		if got := KindOf(tt.path); got != tt.kind {
			t.Errorf("KindOf(%q): expected %q, got %q", tt.path, tt.kind, got)
		}
	}

	if ConfigFor(Category("bogus")) != ConfigFor(Unsupported) {
		t.Error("Expected unknown categories to use the unsupported config")
	}
	if SupportsFullscreen(Audio) || SupportsFullscreen(Unsupported) || !SupportsFullscreen(Spreadsheet) {
		t.Error("Unexpected fullscreen support table")
	}
}

func TestCompleteLength(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"ascii", []byte("Hello World"), 11},
		{"chinese", []byte("中文"), 6},
		{"incomplete only", []byte{0xE4, 0xB8}, 0},
		{"incomplete at end", append([]byte("Test"), 0xE4, 0xB8), 4},
		{"emoji cut", append([]byte("ok"), 0xF0, 0x9F, 0x98), 2},
		{"stray continuation bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80}, 5},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		if got := completeLength(tt.in); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestClip(t *testing.T) {
	text, cut := clip([]byte("Hello世界"), 6)
	if text != "Hello世" || !cut {
		t.Errorf("Expected 'Hello世' and cut, got '%s' %v", text, cut)
	}
	text, cut = clip([]byte("short"), 10)
	if text != "short" || cut {
		t.Errorf("Expected 'short' uncut, got '%s' %v", text, cut)
	}
	text, cut = clip(append([]byte("ab"), 0xE4), 0)
	if text != "ab" || cut {
		t.Errorf("Expected partial rune dropped, got %q %v", text, cut)
	}
}

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV("a,b\n1,2")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "a" || rows[0][1] != "b" || rows[1][0] != "1" || rows[1][1] != "2" {
		t.Errorf("Expected [[a b] [1 2]], got %v", rows)
	}

	rows, err = ParseCSV("\"x,y\",z\r\n\"say \"\"hi\"\"\",2\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "x,y" || rows[0][1] != "z" {
		t.Errorf("Expected [x,y z], got %v", rows[0])
	}
	if rows[1][0] != `say "hi"` {
		t.Errorf("Expected doubled quotes unescaped, got %q", rows[1][0])
	}

	rows, _ = ParseCSV("a,b,c\n1\n")
	if len(rows) != 2 || len(rows[1]) != 1 {
		t.Errorf("Expected ragged rows to be kept, got %v", rows)
	}
}

func TestHighlight(t *testing.T) {
	out, err := highlight("json", `{"a": 1}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<span") || strings.Contains(out, "<pre") {
		t.Errorf("Expected class spans without a surrounding pre, got %s", out)
	}

	out, err = highlight("cfg", "# note\nname = \"x<y\" 42")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "x&lt;y") {
		t.Errorf("Expected escaped string literal, got %s", out)
	}
	if !strings.Contains(out, "42") || !strings.Contains(out, "# note") {
		t.Errorf("Expected comment and number in output, got %s", out)
	}
	if HighlightCSS() == "" {
		t.Error("Expected highlight stylesheet")
	}
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestConvertDocx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Title &amp; more</w:t></w:r></w:p>`+
			`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r><w:r><w:t xml:space="preserve"> plain &lt;x&gt;</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	out, err := convertDocx(data)
	if err != nil {
		t.Fatalf("convertDocx failed: %v", err)
	}
	for _, want := range []string{
		"<h2>Title &amp; more</h2>",
		"<p><strong>bold</strong> plain &lt;x&gt;</p>",
		"<table><tr><td><p>cell</p></td></tr></table>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %s", want, out)
		}
	}

	if _, err := convertDocx([]byte("not a zip")); err == nil {
		t.Error("Expected error for non-archive input")
	}
}

func TestRenderCodeTruncates(t *testing.T) {
	h := newHarness(t, Limits{PanelMaxChars: 5, FloatingMaxChars: 100})
	src := &fakeSource{files: map[string][]byte{"main.py": []byte("print('hello')\n")}}

	target := h.render(t, src, "main.py", Panel, false)
	out := h.html(target.Content)
	if !strings.Contains(out, "File truncated: showing the first 5 characters") {
		t.Errorf("Expected truncation notice, got %s", out)
	}
	if !strings.Contains(out, `class="dm-code"`) {
		t.Errorf("Expected code block, got %s", out)
	}
	if strings.Contains(out, "hello") {
		t.Errorf("Expected content to be cut, got %s", out)
	}

	target = h.render(t, src, "main.py", Floating, true)
	out = h.html(target.Content)
	if strings.Contains(out, "truncated") {
		t.Errorf("Expected no truncation at the floating limit, got %s", out)
	}
	if tb := h.html(target.Toolbar); !strings.Contains(tb, "Larger text") {
		t.Errorf("Expected font stepper in toolbar, got %s", tb)
	}
}

func TestRenderFetchErrorIsInline(t *testing.T) {
	h := newHarness(t, Limits{})
	src := &fakeSource{err: errors.New("backend unreachable")}

	target := h.render(t, src, "notes.txt", Floating, true)
	out := h.html(target.Content)
	if !strings.Contains(out, "dm-preview-error") || !strings.Contains(out, "backend unreachable") {
		t.Errorf("Expected inline error, got %s", out)
	}
}

func TestRenderWithoutFetch(t *testing.T) {
	h := newHarness(t, Limits{})
	src := &fakeSource{}

	out := h.html(h.render(t, src, "weights.bin", Panel, false).Content)
	if !strings.Contains(out, "Preview not supported") || !strings.Contains(out, "weights.bin") {
		t.Errorf("Expected unsupported message, got %s", out)
	}
	out = h.html(h.render(t, src, "old.doc", Panel, false).Content)
	if !strings.Contains(out, "convert the file to .docx") {
		t.Errorf("Expected .doc message, got %s", out)
	}
	if n := src.callCount(); n != 0 {
		t.Errorf("Expected no fetches, got %d", n)
	}
}

func TestRenderSpreadsheetCapsRows(t *testing.T) {
	h := newHarness(t, Limits{TableMaxRows: 2})
	src := &fakeSource{files: map[string][]byte{"t.csv": []byte("h1,h2\n1,2\n3,4\n")}}

	target := h.render(t, src, "t.csv", Floating, true)
	out := h.html(target.Content)
	if !strings.Contains(out, "Showing the first 2 of 3 rows") {
		t.Errorf("Expected row notice, got %s", out)
	}
	if !strings.Contains(out, "<th") || strings.Contains(out, ">3<") {
		t.Errorf("Expected header row and capped body, got %s", out)
	}
	if !strings.Contains(out, TableWrapperClass) || !strings.Contains(out, TableScaleClass) {
		t.Errorf("Expected table containers, got %s", out)
	}
}

func TestRenderLegacyWorkbook(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "table.xls"))
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, Limits{TableMaxRows: 5})
	src := &fakeSource{files: map[string][]byte{"table.xls": data}}

	target := h.render(t, src, "table.xls", Floating, true)
	out := h.html(target.Content)
	if strings.Contains(out, "dm-preview-error") {
		t.Fatalf("Expected workbook to parse, got %s", out)
	}
	if !strings.Contains(out, "Showing the first 5 of 12 rows") {
		t.Errorf("Expected row notice, got %s", out)
	}
	for _, want := range []string{">Code<", ">Description<", ">code4<", ">description4<"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected cell %s, got %s", want, out)
		}
	}
	if strings.Contains(out, ">code5<") {
		t.Errorf("Expected rows past the cap to be dropped, got %s", out)
	}
}

func TestRenderBrokenWorkbookIsInline(t *testing.T) {
	h := newHarness(t, Limits{TableMaxRows: 5})
	src := &fakeSource{files: map[string][]byte{"bad.xls": []byte("not a workbook")}}

	out := h.html(h.render(t, src, "bad.xls", Floating, true).Content)
	if !strings.Contains(out, "dm-preview-error") || !strings.Contains(out, "Failed to parse spreadsheet") {
		t.Errorf("Expected inline parse error, got %s", out)
	}
}

func TestControlsWithoutToolbar(t *testing.T) {
	h := newHarness(t, Limits{TableMaxRows: 10, PanelMaxChars: 100})
	src := &fakeSource{files: map[string][]byte{
		"t.csv":   []byte("h1,h2\n1,2\n"),
		"main.py": []byte("print('hi')\n"),
	}}

	out := h.html(h.render(t, src, "t.csv", Panel, false).Content)
	for _, want := range []string{"dm-preview-controls", "Zoom in", "Zoom out", "Fit width"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in inline table preview, got %s", want, out)
		}
	}
	out = h.html(h.render(t, src, "main.py", Panel, false).Content)
	if !strings.Contains(out, "dm-preview-controls") || !strings.Contains(out, "Larger text") {
		t.Errorf("Expected inline font stepper, got %s", out)
	}
}

func TestImageErrorEvent(t *testing.T) {
	h := newHarness(t, Limits{})
	target := h.render(t, &fakeSource{}, "cat.png", Floating, true)

	h.loop.Call(func() {
		img := dom.ByTag(target.Content, "img")[0]
		h.doc.Dispatch(dom.Event{Target: dom.ID(img), Type: "error"})
	})
	out := h.html(target.Content)
	if strings.Contains(out, "<img") || !strings.Contains(out, "Failed to load image") {
		t.Errorf("Expected image replaced by error, got %s", out)
	}
}

func TestMediaControls(t *testing.T) {
	h := newHarness(t, Limits{})
	target := h.render(t, &fakeSource{}, "clip.mp4", Panel, false)

	h.loop.Call(func() {
		video := dom.ByTag(target.Content, "video")[0]
		h.doc.Dispatch(dom.Event{Target: dom.ID(video), Type: "timeupdate", CurrentTime: 65, Duration: 3725})

		clock := dom.FirstByClass(target.Content, "dm-media-time")
		if got := dom.TextContent(clock); got != "1:05 / 1:02:05" {
			t.Errorf("Expected '1:05 / 1:02:05', got '%s'", got)
		}

		bar := dom.FirstByClass(target.Content, "dm-media-controls")
		buttons := dom.ByTag(bar, "button")
		h.doc.Click(buttons[0])
		h.doc.Click(buttons[1])
		h.doc.Click(buttons[2])

		var names []string
		for _, c := range h.doc.Pending() {
			if c.Target == dom.ID(video) {
				names = append(names, c.Name+":"+c.Arg)
			}
		}
		want := "play:,mute:true,requestFullscreen:"
		if got := strings.Join(names, ","); got != want {
			t.Errorf("Expected commands %s, got %s", want, got)
		}
	})
}

func TestDetachedTargetDropsResult(t *testing.T) {
	h := newHarness(t, Limits{})
	src := &fakeSource{files: map[string][]byte{"a.txt": []byte("late")}}

	var target Target
	var done <-chan struct{}
	h.loop.Call(func() {
		target = Target{Content: h.doc.El("div")}
		h.doc.Append(h.doc.Root(), target.Content)
		done = h.r.Render(context.Background(), src, "a.txt", target)
		h.doc.Remove(target.Content)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out")
	}
	if out := h.html(target.Content); strings.Contains(out, "late") {
		t.Errorf("Expected result dropped for detached container, got %s", out)
	}
}
