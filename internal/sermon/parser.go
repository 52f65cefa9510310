package sermon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/gchung00/daily-qt/internal/bible"
)

const (
	hymnMarker      = "찬송가"
	prayerMarker    = "기도"
	scriptureMarker = "하나님 말씀"
	greetingPrefix  = "오늘도"
	greetingPhrase  = "좋은 날"
	blessingSuffix  = "축원합니다"
)

var (
	// legacyHeader marks the strict "N월 N일 예배" format. Matching it on the
	// first line selects the legacy rule set for the whole transcript.
	legacyHeader = regexp.MustCompile(`^\d+월\s*\d+일\s*예배`)
	numberedLine = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	dateStamp    = regexp.MustCompile(`^(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})`)
)

// Parse converts raw transcript text into sections. It never fails: lines no
// rule recognizes become Text sections.
func Parse(raw string) Parsed {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return Parsed{Sections: Sections{}}
	}

	if legacyHeader.MatchString(lines[0]) {
		return parseLegacy(lines)
	}
	return parseFreeform(lines)
}

// splitLines trims every line and drops the empty ones. Text is composed
// to NFC first: transcripts pasted on macOS arrive as decomposed jamo, which
// no book name or marker would match.
func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(norm.NFC.String(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseLegacy(lines []string) Parsed {
	p := Parsed{Sections: make(Sections, 0, len(lines))}

	// last is the kind of the previously emitted section; numbered lines are
	// prayer items only directly after a prayer section.
	var last Kind
	emit := func(s Section) {
		p.Sections = append(p.Sections, s)
		last = s.Kind()
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		switch {
		case legacyHeader.MatchString(line):
			p.Title = line
			emit(Header{Content: line})
		case strings.HasPrefix(line, hymnMarker):
			emit(Hymn{Content: line})
		case strings.HasPrefix(line, prayerMarker):
			emit(PrayerTitle{Content: line})
		case strings.HasPrefix(line, scriptureMarker):
			ref := strings.TrimSpace(strings.Replace(line, scriptureMarker, "", 1))
			var text string
			if i+1 < len(lines) {
				i++
				text = lines[i]
			}
			emit(ScriptureMain{Reference: ref, Text: text})
		default:
			if m := numberedLine.FindStringSubmatch(line); m != nil {
				n := atoi(m[1])
				if last == KindPrayerTitle || last == KindPrayerItem {
					emit(PrayerItem{Number: n, Content: m[2]})
				} else {
					emit(PointTitle{Number: n, Content: m[2]})
				}
				continue
			}
			emit(bodySection(line))
		}
	}
	return p
}

func parseFreeform(lines []string) Parsed {
	p := Parsed{Sections: make(Sections, 0, len(lines)+1)}

	first := lines[0]
	if _, ref, ok := bible.TrailingReference(first); ok {
		p.Title = strings.TrimSpace(strings.TrimSuffix(first, ref))
		p.Sections = append(p.Sections,
			Header{Content: p.Title},
			ScriptureMain{Reference: ref},
		)
	} else {
		p.Title = first
		p.Sections = append(p.Sections, Header{Content: first})
	}

	for _, line := range lines[1:] {
		// A later stamp overwrites an earlier one.
		if m := dateStamp.FindStringSubmatch(line); m != nil {
			p.Date = fmt.Sprintf("%s-%02d-%02d", m[1], atoi(m[2]), atoi(m[3]))
			p.Sections = append(p.Sections, Text{Content: line})
			continue
		}
		p.Sections = append(p.Sections, bodySection(line))
	}
	return p
}

// bodySection applies the rules both formats share.
func bodySection(line string) Section {
	switch {
	case strings.HasPrefix(line, greetingPrefix) && strings.Contains(line, greetingPhrase):
		return Greeting{Content: line}
	case bible.QuotePrefix.MatchString(line):
		if i := strings.IndexFunc(line, unicode.IsSpace); i > 0 {
			_, size := utf8.DecodeRuneInString(line[i:])
			return ScriptureQuote{Reference: line[:i], Content: line[i+size:]}
		}
		return ScriptureQuote{Reference: line}
	case strings.HasSuffix(line, blessingSuffix) || strings.HasSuffix(line, blessingSuffix+"."):
		return Benediction{Content: line}
	default:
		return Text{Content: line}
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
