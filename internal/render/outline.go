package render

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Outline is a text summary of a rendered declaration.
type Outline struct {
	Title      string     `json:"title"`
	Headings   []string   `json:"headings"`
	Product    string     `json:"product"`
	Substances [][]string `json:"substances"`
	DualUse    []string   `json:"dual_use"`
	Batches    [][]string `json:"batches"`
	HasLogo    bool       `json:"has_logo"`
}

func ParseOutline(html []byte) (Outline, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Outline{}, err
	}

	o := Outline{
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		Headings:   []string{},
		Product:    strings.TrimSpace(doc.Find(".product-name").First().Text()),
		Substances: tableRows(doc.Find("table.substances tbody tr")),
		DualUse:    []string{},
		Batches:    tableRows(doc.Find("table.batches tbody tr")),
		HasLogo:    doc.Find("img.logo").Length() > 0,
	}
	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		o.Headings = append(o.Headings, strings.TrimSpace(s.Text()))
	})
	doc.Find("ul.dual-use li").Each(func(_ int, s *goquery.Selection) {
		o.DualUse = append(o.DualUse, strings.TrimSpace(s.Text()))
	})
	return o, nil
}

func tableRows(rows *goquery.Selection) [][]string {
	out := [][]string{}
	rows.Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		out = append(out, cells)
	})
	return out
}
