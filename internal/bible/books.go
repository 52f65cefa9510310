// Package bible holds the canonical book catalog and resolves free-text
// scripture citations against it.
package bible

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Testament identifies which half of the canon a book belongs to
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Book is one entry of the canonical catalog
type Book struct {
	ID        string    `json:"id"`     // short canonical code, e.g. "Gen"
	Name      string    `json:"name"`   // full Korean name, e.g. "창세기"
	Abbrev    string    `json:"abbrev"` // citation abbreviation, e.g. "창"
	Testament Testament `json:"testament"`
}

// catalog is kept in canonical order; lookups scan it front to back and the
// first hit wins.
var catalog = []Book{
	{"Gen", "창세기", "창", OldTestament},
	{"Exo", "출애굽기", "출", OldTestament},
	{"Lev", "레위기", "레", OldTestament},
	{"Num", "민수기", "민", OldTestament},
	{"Deu", "신명기", "신", OldTestament},
	{"Jos", "여호수아", "수", OldTestament},
	{"Jdg", "사사기", "삿", OldTestament},
	{"Rut", "룻기", "룻", OldTestament},
	{"1Sa", "사무엘상", "삼상", OldTestament},
	{"2Sa", "사무엘하", "삼하", OldTestament},
	{"1Ki", "열왕기상", "왕상", OldTestament},
	{"2Ki", "열왕기하", "왕하", OldTestament},
	{"1Ch", "역대상", "대상", OldTestament},
	{"2Ch", "역대하", "대하", OldTestament},
	{"Ezr", "에스라", "스", OldTestament},
	{"Neh", "느헤미야", "느", OldTestament},
	{"Est", "에스더", "에", OldTestament},
	{"Job", "욥기", "욥", OldTestament},
	{"Psa", "시편", "시", OldTestament},
	{"Pro", "잠언", "잠", OldTestament},
	{"Ecc", "전도서", "전", OldTestament},
	{"Son", "아가", "아", OldTestament},
	{"Isa", "이사야", "사", OldTestament},
	{"Jer", "예레미야", "렘", OldTestament},
	{"Lam", "예레미야애가", "애", OldTestament},
	{"Eze", "에스겔", "겔", OldTestament},
	{"Dan", "다니엘", "단", OldTestament},
	{"Hos", "호세아", "호", OldTestament},
	{"Joe", "요엘", "욜", OldTestament},
	{"Amo", "아모스", "암", OldTestament},
	{"Oba", "오바댜", "옵", OldTestament},
	{"Jon", "요나", "욘", OldTestament},
	{"Mic", "미가", "미", OldTestament},
	{"Nah", "나훔", "나", OldTestament},
	{"Hab", "하박국", "합", OldTestament},
	{"Zep", "스바냐", "습", OldTestament},
	{"Hag", "학개", "학", OldTestament},
	{"Zec", "스가랴", "슥", OldTestament},
	{"Mal", "말라기", "말", OldTestament},

	{"Mat", "마태복음", "마", NewTestament},
	{"Mar", "마가복음", "막", NewTestament},
	{"Luk", "누가복음", "눅", NewTestament},
	{"Joh", "요한복음", "요", NewTestament},
	{"Act", "사도행전", "행", NewTestament},
	{"Rom", "로마서", "롬", NewTestament},
	{"1Co", "고린도전서", "고전", NewTestament},
	{"2Co", "고린도후서", "고후", NewTestament},
	{"Gal", "갈라디아서", "갈", NewTestament},
	{"Eph", "에베소서", "엡", NewTestament},
	{"Phi", "빌립보서", "빌", NewTestament},
	{"Col", "골로새서", "골", NewTestament},
	{"1Th", "데살로니가전서", "살전", NewTestament},
	{"2Th", "데살로니가후서", "살후", NewTestament},
	{"1Ti", "디모데전서", "딤전", NewTestament},
	{"2Ti", "디모데후서", "딤후", NewTestament},
	{"Tit", "디도서", "딛", NewTestament},
	{"Phm", "빌레몬서", "몬", NewTestament},
	{"Heb", "히브리서", "히", NewTestament},
	{"Jam", "야고보서", "약", NewTestament},
	{"1Pe", "베드로전서", "벧전", NewTestament},
	{"2Pe", "베드로후서", "벧후", NewTestament},
	{"1Jo", "요한일서", "요일", NewTestament},
	{"2Jo", "요한이서", "요이", NewTestament},
	{"3Jo", "요한삼서", "요삼", NewTestament},
	{"Jud", "유다서", "유", NewTestament},
	{"Rev", "요한계시록", "계", NewTestament},
}

// bookIndex maps a book ID to its position in catalog
var bookIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, b := range catalog {
		m[b.ID] = i
	}
	return m
}()

// Books returns a copy of the full catalog in canonical order.
func Books() []Book {
	out := make([]Book, len(catalog))
	copy(out, catalog)
	return out
}

// BooksOf returns the books of one testament, in canonical order.
func BooksOf(t Testament) []Book {
	var out []Book
	for _, b := range catalog {
		if b.Testament == t {
			out = append(out, b)
		}
	}
	return out
}

// BookByID looks a book up by its canonical ID.
func BookByID(id string) (Book, bool) {
	i, ok := bookIndex[id]
	if !ok {
		return Book{}, false
	}
	return catalog[i], true
}

// Position returns the canonical position of a book ID, or -1 when unknown.
func Position(id string) int {
	if i, ok := bookIndex[id]; ok {
		return i
	}
	return -1
}

// Abbreviations returns every citation abbreviation in catalog order.
func Abbreviations() []string {
	out := make([]string, len(catalog))
	for i, b := range catalog {
		out[i] = b.Abbrev
	}
	return out
}

// FindByReferencePrefix returns the first book whose full name or abbreviation
// starts text. An abbreviation only counts when it is the whole string or is
// followed by a digit, whitespace, '.' or ':' so that "사변" never resolves to
// Isaiah.
func FindByReferencePrefix(text string) (Book, bool) {
	b, _, ok := matchPrefix(text)
	return b, ok
}

// matchPrefix is FindByReferencePrefix that also reports the matched prefix.
// Full names win over abbreviations, and the longest full name wins so that
// "예레미야애가" is Lamentations rather than Jeremiah.
func matchPrefix(text string) (Book, string, bool) {
	if text == "" {
		return Book{}, "", false
	}
	var named *Book
	for i := range catalog {
		b := &catalog[i]
		if strings.HasPrefix(text, b.Name) && (named == nil || len(b.Name) > len(named.Name)) {
			named = b
		}
	}
	if named != nil {
		return *named, named.Name, true
	}
	for _, b := range catalog {
		if strings.HasPrefix(text, b.Abbrev) && abbrevBoundary(text[len(b.Abbrev):]) {
			return b, b.Abbrev, true
		}
	}
	return Book{}, "", false
}

func abbrevBoundary(rest string) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return ('0' <= r && r <= '9') || unicode.IsSpace(r) || r == '.' || r == ':'
}

// QuotePrefix matches a line that opens with a book abbreviation glued to a
// chapter number, e.g. "롬8:6" or "시23.1".
var QuotePrefix = regexp.MustCompile(`^(?:` + alternation(Abbreviations()) + `)\d+[:.]`)

// trailingRef pairs a book with the pattern that finds a reference glued to
// the end of a title line, e.g. "...떠난 후에 창13:10-18".
type trailingRef struct {
	book    Book
	pattern *regexp.Regexp
}

var trailingRefs = func() []trailingRef {
	out := make([]trailingRef, 0, len(catalog))
	for _, b := range catalog {
		names := regexp.QuoteMeta(b.Abbrev) + "|" + regexp.QuoteMeta(b.Name)
		out = append(out, trailingRef{
			book:    b,
			pattern: regexp.MustCompile(`(?:` + names + `)\d+[:.]\d+(?:-\d+)?$`),
		})
	}
	return out
}()

// TrailingReference finds a scripture reference at the very end of line.
// The match that starts earliest wins, so "고전13:4" is First Corinthians
// rather than Ecclesiastes; equal starts fall back to catalog order.
func TrailingReference(line string) (Book, string, bool) {
	best := -1
	var found trailingRef
	var ref string
	for _, t := range trailingRefs {
		loc := t.pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			found = t
			ref = line[loc[0]:loc[1]]
		}
	}
	if best == -1 {
		return Book{}, "", false
	}
	return found.book, ref, true
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
