package ingestion

import "strings"

// chunkByTitle consolidates classified text elements into retrieval-sized
// chunks. Chunks close at section-title boundaries, except that a section
// still shorter than CombineUnder absorbs the next one to avoid fragment
// noise. The size checks run before the title check, so the hard budget
// wins over merging and is never exceeded.
func (p *Partitioner) chunkByTitle(elements []Element) []Element {
	var out []Element
	var current []Element
	size := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		out = append(out, mergeElements(current))
		current = nil
		size = 0
	}

	for _, el := range elements {
		if !el.Category.TextBearing() {
			flush()
			out = append(out, el)
			continue
		}

		switch {
		case size+len(el.Text)+2 > p.MaxCharacters:
			flush()
		case size > p.SoftLimit:
			flush()
		case el.Category == CategoryTitle && size >= p.CombineUnder:
			flush()
		}

		// A single oversized element is hard-split on the budget.
		for len(el.Text) > p.MaxCharacters {
			cut := splitPoint(el.Text, p.MaxCharacters)
			out = append(out, Element{Category: el.Category, Text: el.Text[:cut]})
			el.Text = strings.TrimSpace(el.Text[cut:])
		}
		if el.Text == "" {
			continue
		}

		current = append(current, el)
		size += len(el.Text) + 2
	}
	flush()

	return out
}

func mergeElements(elements []Element) Element {
	if len(elements) == 1 {
		return elements[0]
	}
	texts := make([]string, len(elements))
	for i, el := range elements {
		texts[i] = el.Text
	}
	return Element{
		Category: CategoryNarrativeText,
		Text:     strings.Join(texts, "\n\n"),
	}
}

// splitPoint finds a cut at or before limit that does not break a UTF-8
// sequence, preferring the last whitespace in range.
func splitPoint(text string, limit int) int {
	if limit >= len(text) {
		return len(text)
	}
	cut := limit
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	if ws := strings.LastIndexFunc(text[:cut], func(r rune) bool { return r == ' ' || r == '\n' }); ws > limit/2 {
		return ws
	}
	return cut
}
