// Package ingestion turns PDF manuals into retrievable documents: it
// partitions each file into typed elements, routes extracted diagrams
// through the vision model and hands the result to the vector store.
package ingestion

// Category is the closed set of element types a partitioned manual can
// produce. Adding a category is a compile-time-visible change.
type Category int

const (
	CategoryTitle Category = iota
	CategoryNarrativeText
	CategoryListItem
	CategoryTable
	CategoryUncategorizedText
	CategoryImage
)

func (c Category) String() string {
	switch c {
	case CategoryTitle:
		return "Title"
	case CategoryNarrativeText:
		return "NarrativeText"
	case CategoryListItem:
		return "ListItem"
	case CategoryTable:
		return "Table"
	case CategoryUncategorizedText:
		return "UncategorizedText"
	case CategoryImage:
		return "Image"
	}
	return "Unknown"
}

// TextBearing reports whether elements of this category carry indexable
// text content.
func (c Category) TextBearing() bool {
	switch c {
	case CategoryTitle, CategoryNarrativeText, CategoryListItem, CategoryTable, CategoryUncategorizedText:
		return true
	}
	return false
}

// Element is one ordered unit of a partitioned manual. ImagePath is set
// only for CategoryImage elements.
type Element struct {
	Category  Category
	Text      string
	ImagePath string
}
