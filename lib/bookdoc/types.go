// Package bookdoc converts an e-book chapter's HTML subtree into an ordered
// sequence of typed content blocks for rendering.
package bookdoc

// Kind discriminates the closed set of block types a chapter can contain.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindImage     Kind = "image"
	KindCaption   Kind = "caption"
	KindList      Kind = "list"
	KindTable     Kind = "table"
)

// Element is one content block in DOM order. Exactly the fields implied by
// Kind are meaningful.
type Element struct {
	Kind Kind

	// KindHeading
	Level int

	// KindHeading, KindParagraph, KindCaption
	Text string

	// KindParagraph: paragraph that opens a chapter, rendered larger
	ChapterOpener bool

	// KindImage
	Src string
	Alt string

	// KindList
	Items   []string
	Ordered bool

	// KindTable
	Table *Table
}

// Table holds extracted grid content for the PDF layout pass.
type Table struct {
	Caption string
	Rows    []TableRow
}

type TableRow struct {
	Cells []TableCell
}

type TableCell struct {
	Content string
	Header  bool
	Colspan int
	Rowspan int
}
