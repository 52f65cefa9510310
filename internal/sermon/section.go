// Package sermon turns raw sermon transcripts into an ordered list of typed
// sections.
package sermon

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire tag of a section
type Kind string

const (
	KindHeader         Kind = "header"
	KindHymn           Kind = "hymn"
	KindPrayerTitle    Kind = "prayer_title"
	KindPrayerItem     Kind = "prayer_item"
	KindScriptureMain  Kind = "scripture_main"
	KindGreeting       Kind = "greeting"
	KindPointTitle     Kind = "point_title"
	KindScriptureQuote Kind = "scripture_quote"
	KindText           Kind = "text"
	KindBenediction    Kind = "benediction"
)

// Kinds lists every section kind.
func Kinds() []Kind {
	return []Kind{
		KindHeader, KindHymn, KindPrayerTitle, KindPrayerItem, KindScriptureMain,
		KindGreeting, KindPointTitle, KindScriptureQuote, KindText, KindBenediction,
	}
}

// Section is one typed block of a sermon. The set of implementations is
// closed; consumers switch over the concrete types below.
type Section interface {
	Kind() Kind
	section()
}

type Header struct{ Content string }

type Hymn struct{ Content string }

type PrayerTitle struct{ Content string }

type PrayerItem struct {
	Number  int
	Content string
}

// ScriptureMain is the passage the sermon is built around. Text is empty for
// freeform transcripts.
type ScriptureMain struct {
	Reference string
	Text      string
}

type Greeting struct{ Content string }

type PointTitle struct {
	Number  int
	Content string
}

type ScriptureQuote struct {
	Reference string
	Content   string
}

type Benediction struct{ Content string }

// Text is any line no other rule claimed.
type Text struct{ Content string }

func (Header) Kind() Kind         { return KindHeader }
func (Hymn) Kind() Kind           { return KindHymn }
func (PrayerTitle) Kind() Kind    { return KindPrayerTitle }
func (PrayerItem) Kind() Kind     { return KindPrayerItem }
func (ScriptureMain) Kind() Kind  { return KindScriptureMain }
func (Greeting) Kind() Kind       { return KindGreeting }
func (PointTitle) Kind() Kind     { return KindPointTitle }
func (ScriptureQuote) Kind() Kind { return KindScriptureQuote }
func (Benediction) Kind() Kind    { return KindBenediction }
func (Text) Kind() Kind           { return KindText }

func (Header) section()         {}
func (Hymn) section()           {}
func (PrayerTitle) section()    {}
func (PrayerItem) section()     {}
func (ScriptureMain) section()  {}
func (Greeting) section()       {}
func (PointTitle) section()     {}
func (ScriptureQuote) section() {}
func (Benediction) section()    {}
func (Text) section()           {}

// Parsed is the structured form of one transcript. Date is only a hint taken
// from the text; callers overwrite it with the storage key.
type Parsed struct {
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Sections Sections `json:"sections"`
}

// MainScripture returns the first main-scripture section, if any.
func (p Parsed) MainScripture() (ScriptureMain, bool) {
	for _, s := range p.Sections {
		if m, ok := s.(ScriptureMain); ok {
			return m, true
		}
	}
	return ScriptureMain{}, false
}

// Sections is an ordered section list that encodes as tagged JSON objects,
// e.g. {"type":"prayer_item","number":1,"content":"..."}.
type Sections []Section

// wireSection is the flat JSON shape shared by every kind. Pointers keep
// empty strings on the wire for the fields a kind owns.
type wireSection struct {
	Type      Kind    `json:"type"`
	Number    *int    `json:"number,omitempty"`
	Reference *string `json:"reference,omitempty"`
	Content   *string `json:"content,omitempty"`
	Text      *string `json:"text,omitempty"`
}

func (s Sections) MarshalJSON() ([]byte, error) {
	out := make([]wireSection, 0, len(s))
	for i, sec := range s {
		w, err := toWire(sec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode section %d: %w", i, err)
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

func (s *Sections) UnmarshalJSON(data []byte) error {
	var in []wireSection
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Sections, 0, len(in))
	for i, w := range in {
		sec, err := fromWire(w)
		if err != nil {
			return fmt.Errorf("failed to decode section %d: %w", i, err)
		}
		out = append(out, sec)
	}
	*s = out
	return nil
}

func toWire(s Section) (wireSection, error) {
	switch v := s.(type) {
	case Header:
		return wireSection{Type: KindHeader, Content: &v.Content}, nil
	case Hymn:
		return wireSection{Type: KindHymn, Content: &v.Content}, nil
	case PrayerTitle:
		return wireSection{Type: KindPrayerTitle, Content: &v.Content}, nil
	case PrayerItem:
		return wireSection{Type: KindPrayerItem, Number: &v.Number, Content: &v.Content}, nil
	case ScriptureMain:
		return wireSection{Type: KindScriptureMain, Reference: &v.Reference, Text: &v.Text}, nil
	case Greeting:
		return wireSection{Type: KindGreeting, Content: &v.Content}, nil
	case PointTitle:
		return wireSection{Type: KindPointTitle, Number: &v.Number, Content: &v.Content}, nil
	case ScriptureQuote:
		return wireSection{Type: KindScriptureQuote, Reference: &v.Reference, Content: &v.Content}, nil
	case Benediction:
		return wireSection{Type: KindBenediction, Content: &v.Content}, nil
	case Text:
		return wireSection{Type: KindText, Content: &v.Content}, nil
	default:
		return wireSection{}, fmt.Errorf("unknown section type %T", s)
	}
}

func fromWire(w wireSection) (Section, error) {
	content := deref(w.Content)
	switch w.Type {
	case KindHeader:
		return Header{Content: content}, nil
	case KindHymn:
		return Hymn{Content: content}, nil
	case KindPrayerTitle:
		return PrayerTitle{Content: content}, nil
	case KindPrayerItem:
		return PrayerItem{Number: derefInt(w.Number), Content: content}, nil
	case KindScriptureMain:
		return ScriptureMain{Reference: deref(w.Reference), Text: deref(w.Text)}, nil
	case KindGreeting:
		return Greeting{Content: content}, nil
	case KindPointTitle:
		return PointTitle{Number: derefInt(w.Number), Content: content}, nil
	case KindScriptureQuote:
		return ScriptureQuote{Reference: deref(w.Reference), Content: content}, nil
	case KindBenediction:
		return Benediction{Content: content}, nil
	case KindText:
		return Text{Content: content}, nil
	default:
		return nil, fmt.Errorf("unknown section type %q", w.Type)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
