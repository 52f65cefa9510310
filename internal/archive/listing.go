package archive

import (
	"sort"

	"github.com/gchung00/daily-qt/internal/bible"
	"github.com/gchung00/daily-qt/internal/sermon"
)

// OthersBookID selects sermons whose main scripture names no known book.
const OthersBookID = "others"

// BookOf resolves the book of a sermon's main scripture.
func BookOf(p sermon.Parsed) (bible.Book, bool) {
	m, ok := p.MainScripture()
	if !ok {
		return bible.Book{}, false
	}
	return bible.GetBookFromReference(m.Reference)
}

// ReferenceOf resolves the sort position of a sermon's main scripture.
func ReferenceOf(p sermon.Parsed) (bible.Reference, bool) {
	m, ok := p.MainScripture()
	if !ok {
		return bible.Reference{}, false
	}
	return bible.ParseReference(m.Reference)
}

// FilterByBook keeps the sermons whose main scripture is in bookID. The
// OthersBookID pseudo book keeps those that resolve to nothing. An empty
// bookID keeps everything.
func FilterByBook(sermons []sermon.Parsed, bookID string) []sermon.Parsed {
	if bookID == "" {
		return sermons
	}

	out := make([]sermon.Parsed, 0)
	for _, p := range sermons {
		book, ok := BookOf(p)
		switch {
		case bookID == OthersBookID && !ok:
			out = append(out, p)
		case ok && book.ID == bookID:
			out = append(out, p)
		}
	}
	return out
}

// SortByReference orders sermons by main scripture position. Sermons without
// a resolvable reference go last; ties keep newest first.
func SortByReference(sermons []sermon.Parsed) {
	refs := make(map[string]bible.Reference, len(sermons))
	for _, p := range sermons {
		if ref, ok := ReferenceOf(p); ok {
			refs[p.Date] = ref
		}
	}

	sort.SliceStable(sermons, func(i, j int) bool {
		a, aok := refs[sermons[i].Date]
		b, bok := refs[sermons[j].Date]
		switch {
		case aok && bok && a != b:
			return a.Less(b)
		case aok != bok:
			return aok
		default:
			return sermons[i].Date > sermons[j].Date
		}
	})
}

// BookGroup counts sermons per book.
type BookGroup struct {
	BookID    string          `json:"bookId"`
	Name      string          `json:"name"`
	Testament bible.Testament `json:"testament,omitempty"`
	Count     int             `json:"count"`
}

// GroupByBook counts sermons per book in canonical order. Books without
// sermons are left out; unresolvable sermons come last under OthersBookID.
func GroupByBook(sermons []sermon.Parsed) []BookGroup {
	counts := make(map[string]int)
	others := 0
	for _, p := range sermons {
		if book, ok := BookOf(p); ok {
			counts[book.ID]++
		} else {
			others++
		}
	}

	groups := make([]BookGroup, 0, len(counts)+1)
	for _, book := range bible.Books() {
		if n := counts[book.ID]; n > 0 {
			groups = append(groups, BookGroup{
				BookID:    book.ID,
				Name:      book.Name,
				Testament: book.Testament,
				Count:     n,
			})
		}
	}
	if others > 0 {
		groups = append(groups, BookGroup{BookID: OthersBookID, Name: "기타", Count: others})
	}
	return groups
}
