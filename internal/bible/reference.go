package bible

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reference is the sortable position a citation points at. Verse 0 means the
// verse was not given; Chapter 0 means neither was.
type Reference struct {
	BookID  string `json:"bookId"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

var (
	chapterVersePattern = regexp.MustCompile(`(\d+):(\d+)`)
	chapterPattern      = regexp.MustCompile(`\d+`)
)

// GetBookFromReference resolves only the book of a citation.
func GetBookFromReference(reference string) (Book, bool) {
	return FindByReferencePrefix(reference)
}

// ParseReference resolves a citation such as "창1:1", "창세기 1:1-5" or "시23"
// into a book and a start position. Only the start verse of a range is kept.
func ParseReference(reference string) (Reference, bool) {
	book, prefix, ok := matchPrefix(reference)
	if !ok {
		return Reference{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(reference, prefix))

	if m := chapterVersePattern.FindStringSubmatch(rest); m != nil {
		return Reference{
			BookID:  book.ID,
			Chapter: atoi(m[1]),
			Verse:   atoi(m[2]),
		}, true
	}

	if m := chapterPattern.FindString(rest); m != "" {
		return Reference{BookID: book.ID, Chapter: atoi(m)}, true
	}

	return Reference{BookID: book.ID}, true
}

// Less orders references canonically: book, then chapter, then verse.
func (r Reference) Less(other Reference) bool {
	pa, pb := Position(r.BookID), Position(other.BookID)
	if pa != pb {
		return pa < pb
	}
	if r.Chapter != other.Chapter {
		return r.Chapter < other.Chapter
	}
	return r.Verse < other.Verse
}

func (r Reference) String() string {
	switch {
	case r.Chapter == 0:
		return r.BookID
	case r.Verse == 0:
		return fmt.Sprintf("%s.%d", r.BookID, r.Chapter)
	default:
		return fmt.Sprintf("%s.%d.%d", r.BookID, r.Chapter, r.Verse)
	}
}

// atoi parses a digit run; oversized runs saturate instead of failing.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
