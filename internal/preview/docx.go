package preview

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"path"
	"strings"
)

const maxDocxImage = 10 << 20

// docxConverter turns word/document.xml into simple HTML: headings,
// paragraphs, bold/italic/underline runs, line breaks, tables and
// embedded images.
type docxConverter struct {
	files map[string]*zip.File
	rels  map[string]string
	out   []*strings.Builder

	para    *docxParagraph
	inPPr   bool
	inRPr   bool
	run     runFormat
	inTable int
}

type docxParagraph struct {
	style string
	list  bool
	body  strings.Builder
}

type runFormat struct {
	bold, italic, underline bool
}

func convertDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a docx archive: %w", err)
	}
	c := &docxConverter{files: make(map[string]*zip.File), rels: make(map[string]string)}
	for _, f := range zr.File {
		c.files[f.Name] = f
	}
	doc, ok := c.files["word/document.xml"]
	if !ok {
		return "", errors.New("word/document.xml is missing")
	}
	if err := c.loadRels(); err != nil {
		return "", err
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	c.out = []*strings.Builder{{}}
	if err := c.walk(xml.NewDecoder(rc)); err != nil {
		return "", err
	}
	return c.out[0].String(), nil
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func (c *docxConverter) loadRels() error {
	f, ok := c.files["word/_rels/document.xml.rels"]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	var rels relationships
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return fmt.Errorf("invalid relationships: %w", err)
	}
	for _, r := range rels.Items {
		c.rels[r.ID] = r.Target
	}
	return nil
}

func (c *docxConverter) w() *strings.Builder {
	if c.para != nil {
		return &c.para.body
	}
	return c.out[len(c.out)-1]
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// on reports whether a toggle property such as <w:b/> is enabled.
func on(se xml.StartElement) bool {
	switch attr(se, "val") {
	case "0", "false", "none":
		return false
	}
	return true
}

func (c *docxConverter) walk(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if err := c.start(d, el); err != nil {
				return err
			}
		case xml.EndElement:
			c.end(el)
		}
	}
}

func (c *docxConverter) start(d *xml.Decoder, se xml.StartElement) error {
	switch se.Name.Local {
	case "p":
		if c.para != nil {
			c.flushParagraph()
		}
		c.para = &docxParagraph{}
	case "pPr":
		c.inPPr = true
	case "pStyle":
		if c.para != nil && c.inPPr {
			c.para.style = attr(se, "val")
		}
	case "numPr":
		if c.para != nil && c.inPPr {
			c.para.list = true
		}
	case "r":
		c.run = runFormat{}
	case "rPr":
		c.inRPr = true
	case "b":
		if c.inRPr {
			c.run.bold = on(se)
		}
	case "i":
		if c.inRPr {
			c.run.italic = on(se)
		}
	case "u":
		if c.inRPr {
			c.run.underline = on(se)
		}
	case "t":
		var text string
		if err := d.DecodeElement(&text, &se); err != nil {
			return err
		}
		c.writeRun(html.EscapeString(text))
	case "tab":
		if !c.inPPr {
			c.w().WriteString("&emsp;")
		}
	case "br":
		c.w().WriteString("<br>")
	case "blip":
		c.writeImage(attr(se, "embed"))
	case "tbl":
		c.inTable++
		c.w().WriteString("<table>")
	case "tr":
		c.w().WriteString("<tr>")
	case "tc":
		c.w().WriteString("<td>")
	}
	return nil
}

func (c *docxConverter) end(ee xml.EndElement) {
	switch ee.Name.Local {
	case "p":
		c.flushParagraph()
	case "pPr":
		c.inPPr = false
	case "rPr":
		c.inRPr = false
	case "tbl":
		c.inTable--
		c.w().WriteString("</table>")
	case "tr":
		c.w().WriteString("</tr>")
	case "tc":
		c.w().WriteString("</td>")
	}
}

func (c *docxConverter) writeRun(text string) {
	if c.run.underline {
		text = "<u>" + text + "</u>"
	}
	if c.run.italic {
		text = "<em>" + text + "</em>"
	}
	if c.run.bold {
		text = "<strong>" + text + "</strong>"
	}
	c.w().WriteString(text)
}

func headingTag(style string) string {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return "h1"
	}
	if strings.HasPrefix(s, "heading") && len(s) == len("heading")+1 {
		if n := s[len(s)-1]; n >= '1' && n <= '6' {
			return "h" + string(n)
		}
	}
	return "p"
}

func (c *docxConverter) flushParagraph() {
	p := c.para
	c.para = nil
	if p == nil {
		return
	}
	out := c.w()
	tag := headingTag(p.style)
	body := p.body.String()
	if p.list {
		body = "• " + body
	}
	if body == "" && c.inTable == 0 {
		body = "<br>"
	}
	out.WriteString("<" + tag + ">" + body + "</" + tag + ">")
}

func (c *docxConverter) writeImage(relID string) {
	target, ok := c.rels[relID]
	if !ok {
		return
	}
	name := path.Clean(path.Join("word", target))
	f, ok := c.files[name]
	if !ok || f.UncompressedSize64 > maxDocxImage {
		return
	}
	rc, err := f.Open()
	if err != nil {
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxDocxImage))
	if err != nil {
		return
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return
	}
	c.w().WriteString(`<img src="data:` + mime + ";base64," + base64.StdEncoding.EncodeToString(data) + `">`)
}
