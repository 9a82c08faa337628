// Package collection holds the in-memory note list and derives the visible
// subset from the current selection.
package collection

// Mode is the active filter mode. Tag and search filters are mutually exclusive.
type Mode string

const (
	Unfiltered Mode = "unfiltered"
	ByTag      Mode = "tag"
	BySearch   Mode = "search"
)

// Selection is the filter state of a note view. The zero value is Unfiltered.
type Selection struct {
	mode Mode
	tag  string
	term string
}

// TagSelection returns a selection filtering by tag. An empty tag yields Unfiltered.
func TagSelection(tag string) Selection {
	if tag == "" {
		return Selection{}
	}
	return Selection{mode: ByTag, tag: tag}
}

// SearchSelection returns a selection filtering by free text. An empty term
// yields Unfiltered.
func SearchSelection(term string) Selection {
	if term == "" {
		return Selection{}
	}
	return Selection{mode: BySearch, term: term}
}

// Mode returns the current filter mode.
func (s Selection) Mode() Mode {
	if s.mode == "" {
		return Unfiltered
	}
	return s.mode
}

// Tag returns the active tag, or "" when not filtering by tag.
func (s Selection) Tag() string { return s.tag }

// Term returns the active search term, or "" when not searching.
func (s Selection) Term() string { return s.term }

// SelectTag toggles tag: selecting the already active tag returns to
// Unfiltered, anything else switches to ByTag and drops the search term.
func (s Selection) SelectTag(tag string) Selection {
	if s.Mode() == ByTag && s.tag == tag {
		return Selection{}
	}
	return TagSelection(tag)
}

// Search switches to BySearch, clearing any active tag. An empty term clears
// the filter.
func (s Selection) Search(term string) Selection {
	return SearchSelection(term)
}

// Reset returns the Unfiltered selection. Note creation resets the view.
func (s Selection) Reset() Selection {
	return Selection{}
}
