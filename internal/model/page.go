package model

// TextPage is one page of raw extracted text. Content is nil when the
// extractor produced nothing for the page.
type TextPage struct {
	Page    int     `json:"page_number"`
	Content *string `json:"content"`
}

// Text returns the page content, or "" for a null page.
func (p TextPage) Text() string {
	if p.Content == nil {
		return ""
	}
	return *p.Content
}

// NewTextPage is a convenience constructor for a non-null page.
func NewTextPage(page int, content string) TextPage {
	return TextPage{Page: page, Content: &content}
}

// GridTable is one raw table detection: untyped cells, arbitrary width per row.
type GridTable struct {
	Page  int        `json:"page"`
	Table int        `json:"table"`
	Rows  [][]string `json:"rows"`
}

// Width returns the widest row of the table.
func (t GridTable) Width() int {
	w := 0
	for _, row := range t.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}
