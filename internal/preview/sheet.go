package preview

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
)

// ParseCSV splits text into rows of cells. Quoted fields may hold commas,
// line breaks and doubled quotes; both \n and \r\n end a row. Rows may
// have different lengths.
func ParseCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

// parseXLSX reads every row of the first sheet.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

const xlsMaxCols = 256

// parseXLS reads every row of the first sheet of a BIFF workbook. The
// reader panics on some malformed files, so that is turned into an error.
func parseXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("malformed workbook: %v", p)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		rows = append(rows, xlsRow(sheet, i))
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

// xlsRow returns the cells of row i, or nil when the sheet has no such row.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := sheet.Row(i)
	// LastCol is one past the last used column. Rows without a ROW record
	// report 0, so scan the whole BIFF8 width and trim.
	width := row.LastCol()
	if width == 0 {
		width = xlsMaxCols
	}
	for j := 0; j < width; j++ {
		cells = append(cells, row.Col(j))
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func (r *Renderer) renderSpreadsheet(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	kind := KindOf(path)
	maxRows := r.limits.TableMaxRows
	return r.load(ctx, path, t, func(ctx context.Context) (func(), error) {
		data, err := src.FetchBytes(ctx, path)
		if err != nil {
			return nil, err
		}
		var rows [][]string
		switch kind {
		case KindCSV:
			text, _ := clip(data, 0)
			rows, err = ParseCSV(text)
		case KindXLS:
			rows, err = parseXLS(data)
		default:
			rows, err = parseXLSX(data)
		}
		if err != nil {
			return nil, apperrors.NewContentError("spreadsheet", path, fmt.Sprintf("Failed to parse spreadsheet: %v", err), err)
		}
		return func() { r.showTable(t, rows, maxRows) }, nil
	})
}

func (r *Renderer) showTable(t Target, rows [][]string, maxRows int) {
	if len(rows) == 0 {
		r.doc.Append(t.Content, r.notice(r.tr.T("sheet_empty")))
		return
	}
	total := len(rows)
	if total > maxRows {
		rows = rows[:maxRows]
		r.doc.Append(t.Content, r.notice(r.tr.T("truncated_rows", i18n.D{"Count": maxRows, "Total": total})))
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	table := r.doc.El("table", dom.Class("dm-preview-table"))
	for i, row := range rows {
		cell := "td"
		if i == 0 {
			cell = "th"
		}
		tr := r.doc.El("tr")
		for j := 0; j < width; j++ {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			tr.AppendChild(r.doc.El(cell, dom.Text(v)))
		}
		table.AppendChild(tr)
	}

	scale := r.doc.El("div", dom.Class(TableScaleClass),
		dom.Style("transform", scaleValue(1)),
		dom.Style("transform-origin", "top center"),
		dom.Children(table))
	wrapper := r.doc.El("div", dom.Class(TableWrapperClass),
		dom.Style("max-height", "60vh"),
		dom.Style("overflow", "auto"),
		dom.Children(scale))
	r.doc.Append(t.Content, wrapper)
	r.tableZoom(t, scale, table)
}

// tableZoom scales the rendered table; fit switches it to full width.
func (r *Renderer) tableZoom(t Target, scale, table *html.Node) {
	zoom := 1.0
	set := func(z float64) {
		zoom = clampZoom(z)
		dom.SetStyle(table, "width", "")
		dom.SetStyle(scale, "transform", scaleValue(zoom))
	}
	bar := r.controls(t)
	r.doc.Append(bar, r.button("−", r.tr.T("zoom_out"), func(dom.Event) { set(zoom - zoomStep) }))
	r.doc.Append(bar, r.button("+", r.tr.T("zoom_in"), func(dom.Event) { set(zoom + zoomStep) }))
	r.doc.Append(bar, r.button("↔", r.tr.T("zoom_fit"), func(dom.Event) {
		zoom = 1
		dom.SetStyle(scale, "transform", scaleValue(1))
		dom.SetStyle(table, "width", "100%")
	}))
}
