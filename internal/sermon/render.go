package sermon

import (
	"fmt"
	"strings"
)

// PlainText renders sections back to one line each, in document order.
func PlainText(p Parsed) string {
	var b strings.Builder
	for _, s := range p.Sections {
		for _, line := range renderSection(s) {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
		}
	}
	return b.String()
}

func renderSection(s Section) []string {
	switch v := s.(type) {
	case Header:
		return []string{v.Content}
	case Hymn:
		return []string{v.Content}
	case PrayerTitle:
		return []string{v.Content}
	case PrayerItem:
		return []string{fmt.Sprintf("%d. %s", v.Number, v.Content)}
	case ScriptureMain:
		head := strings.TrimSpace(scriptureMarker + " " + v.Reference)
		if v.Text == "" {
			return []string{head}
		}
		return []string{head, v.Text}
	case Greeting:
		return []string{v.Content}
	case PointTitle:
		return []string{fmt.Sprintf("%d. %s", v.Number, v.Content)}
	case ScriptureQuote:
		return []string{strings.TrimSpace(v.Reference + " " + v.Content)}
	case Benediction:
		return []string{v.Content}
	case Text:
		return []string{v.Content}
	default:
		panic(fmt.Sprintf("sermon: unhandled section %T", s))
	}
}

// Summary is a short preview: the title, the main scripture reference and
// the section count.
func Summary(p Parsed) string {
	var b strings.Builder
	title := p.Title
	if title == "" {
		title = "(제목 없음)"
	}
	b.WriteString("📖 ")
	b.WriteString(title)
	if m, ok := p.MainScripture(); ok && m.Reference != "" {
		b.WriteString("\n✝️ ")
		b.WriteString(m.Reference)
	}
	fmt.Fprintf(&b, "\n🧩 %d sections", len(p.Sections))
	return b.String()
}
