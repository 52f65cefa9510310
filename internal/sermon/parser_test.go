package sermon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

const legacySample = `2월 5일 예배

찬송가 268장
기도
1. 교회를 위해
2. 나라를 위해
하나님 말씀 롬8:1-6
그러므로 이제 그리스도 예수 안에 있는 자에게는 결코 정죄함이 없나니
오늘도 주님과 함께 좋은 날 되세요
1. 생명의 성령의 법
롬8:6 육신의 생각은 사망이요 영의 생각은 생명과 평안이니라
신앙고백
2. 영의 생각
이 말씀으로 승리하시기를 축원합니다.
`

func TestParse_Legacy(t *testing.T) {
	p := Parse(legacySample)

	assert.Equal(t, "2월 5일 예배", p.Title)
	assert.Empty(t, p.Date)
	assert.Equal(t, Sections{
		Header{Content: "2월 5일 예배"},
		Hymn{Content: "찬송가 268장"},
		PrayerTitle{Content: "기도"},
		PrayerItem{Number: 1, Content: "교회를 위해"},
		PrayerItem{Number: 2, Content: "나라를 위해"},
		ScriptureMain{Reference: "롬8:1-6", Text: "그러므로 이제 그리스도 예수 안에 있는 자에게는 결코 정죄함이 없나니"},
		Greeting{Content: "오늘도 주님과 함께 좋은 날 되세요"},
		PointTitle{Number: 1, Content: "생명의 성령의 법"},
		ScriptureQuote{Reference: "롬8:6", Content: "육신의 생각은 사망이요 영의 생각은 생명과 평안이니라"},
		Text{Content: "신앙고백"},
		PointTitle{Number: 2, Content: "영의 생각"},
		Benediction{Content: "이 말씀으로 승리하시기를 축원합니다."},
	}, p.Sections)
}

func TestParse_LegacyRules(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Sections
	}{
		{
			name: "numbered line after prayer title is prayer item",
			body: "기도\n1. 교회를 위해",
			want: Sections{PrayerTitle{Content: "기도"}, PrayerItem{Number: 1, Content: "교회를 위해"}},
		},
		{
			name: "numbered line without prayer context is point title",
			body: "말씀을 나눕니다\n1. 교회를 위해",
			want: Sections{Text{Content: "말씀을 나눕니다"}, PointTitle{Number: 1, Content: "교회를 위해"}},
		},
		{
			name: "numbers are kept as written",
			body: "기도\n3. 셋째\n1. 첫째",
			want: Sections{
				PrayerTitle{Content: "기도"},
				PrayerItem{Number: 3, Content: "셋째"},
				PrayerItem{Number: 1, Content: "첫째"},
			},
		},
		{
			name: "numbered line needs a space after the dot",
			body: "1.교회를 위해",
			want: Sections{Text{Content: "1.교회를 위해"}},
		},
		{
			name: "main scripture on the last line has no text",
			body: "하나님 말씀 창1:1",
			want: Sections{ScriptureMain{Reference: "창1:1"}},
		},
		{
			name: "main scripture consumes the next line whatever it is",
			body: "하나님 말씀 창1:1\n찬송가 1장\n찬송가 2장",
			want: Sections{
				ScriptureMain{Reference: "창1:1", Text: "찬송가 1장"},
				Hymn{Content: "찬송가 2장"},
			},
		},
		{
			name: "scripture quote without content",
			body: "롬8:6",
			want: Sections{ScriptureQuote{Reference: "롬8:6"}},
		},
		{
			name: "scripture quote split at a tab",
			body: "롬8:6\t육신의 생각은 사망이요",
			want: Sections{ScriptureQuote{Reference: "롬8:6", Content: "육신의 생각은 사망이요"}},
		},
		{
			name: "scripture quote split at an ideographic space",
			body: "롬8:6\u3000육신의 생각은 사망이요",
			want: Sections{ScriptureQuote{Reference: "롬8:6", Content: "육신의 생각은 사망이요"}},
		},
		{
			name: "word starting with an abbreviation is not a quote",
			body: "사랑하는 성도 여러분",
			want: Sections{Text{Content: "사랑하는 성도 여러분"}},
		},
		{
			name: "abbreviation glued to a hangul syllable is not a quote",
			body: "창문을 열고",
			want: Sections{Text{Content: "창문을 열고"}},
		},
		{
			name: "greeting needs both parts",
			body: "오늘도 감사합니다",
			want: Sections{Text{Content: "오늘도 감사합니다"}},
		},
		{
			name: "benediction without period",
			body: "평안하시기를 축원합니다",
			want: Sections{Benediction{Content: "평안하시기를 축원합니다"}},
		},
		{
			name: "repeated header",
			body: "3월 1일 예배",
			want: Sections{Header{Content: "3월 1일 예배"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse("2월 5일 예배\n" + tt.body)
			require.NotEmpty(t, p.Sections)
			assert.Equal(t, Header{Content: "2월 5일 예배"}, p.Sections[0])
			assert.Equal(t, tt.want, p.Sections[1:])
		})
	}
}

func TestParse_LegacyTitleIsLastHeader(t *testing.T) {
	p := Parse("2월 5일 예배\n본문\n2월 12일 예배")
	assert.Equal(t, "2월 12일 예배", p.Title)
}

func TestParse_Freeform(t *testing.T) {
	raw := strings.Join([]string{
		"롯이 아브람을 떠난 후에 창13:10-18",
		"2026. 2. 8 주일 낮",
		"오늘도 좋은 날입니다",
		"창13:10 롯이 눈을 들어 요단 지역을 바라본즉",
		"1. 첫째 대지",
		"기도합니다",
		"은혜가 충만하기를 축원합니다.",
	}, "\n")

	p := Parse(raw)

	assert.Equal(t, "롯이 아브람을 떠난 후에", p.Title)
	assert.Equal(t, "2026-02-08", p.Date)
	assert.Equal(t, Sections{
		Header{Content: "롯이 아브람을 떠난 후에"},
		ScriptureMain{Reference: "창13:10-18"},
		Text{Content: "2026. 2. 8 주일 낮"},
		Greeting{Content: "오늘도 좋은 날입니다"},
		ScriptureQuote{Reference: "창13:10", Content: "롯이 눈을 들어 요단 지역을 바라본즉"},
		Text{Content: "1. 첫째 대지"},
		Text{Content: "기도합니다"},
		Benediction{Content: "은혜가 충만하기를 축원합니다."},
	}, p.Sections)
}

func TestParse_FreeformWithoutReference(t *testing.T) {
	p := Parse("아무 제목\n본문")

	assert.Equal(t, "아무 제목", p.Title)
	assert.Empty(t, p.Date)
	assert.Equal(t, Sections{Header{Content: "아무 제목"}, Text{Content: "본문"}}, p.Sections)
	_, ok := p.MainScripture()
	assert.False(t, ok)
}

func TestParse_FreeformDates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "zero padded", raw: "제목\n2026. 2. 8 주일 낮", want: "2026-02-08"},
		{name: "no spaces", raw: "제목\n2026.12.25", want: "2026-12-25"},
		{name: "last stamp wins", raw: "제목\n2026. 1. 4\n본문\n2026. 1. 11", want: "2026-01-11"},
		{name: "first line is never a stamp", raw: "2026. 2. 8\n본문", want: ""},
		{name: "year alone", raw: "제목\n2026\n1. 25 주일 낮", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).Date)
		})
	}
}

func TestParse_DialectGate(t *testing.T) {
	bodies := []string{"", "기도\n1. 교회를 위해", "하나님 말씀 창1:1\n태초에", "2026. 1. 1"}

	for _, body := range bodies {
		legacy := Parse("2월 5일 예배\n" + body)
		assert.Equal(t, "2월 5일 예배", legacy.Title)
		assert.Empty(t, legacy.Date)

		freeform := Parse("아무 제목 창1:1\n2026. 1. 1\n" + body)
		assert.Equal(t, "아무 제목", freeform.Title)
		assert.Equal(t, "2026-01-01", freeform.Date)
		for _, s := range freeform.Sections {
			assert.NotContains(t, []Kind{KindHymn, KindPrayerTitle, KindPrayerItem, KindPointTitle}, s.Kind())
		}
	}
}

func TestParse_Totality(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\n\n\t\n",
		"\x00\xff\xfe binary",
		"\r\n\r\n",
		"하나님 말씀",
		"2월 5일 예배",
		"1. ",
		"99999999999999999999999. overflow",
		strings.Repeat("창", 10000),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			p := Parse(in)
			assert.NotNil(t, p.Sections)
		})
	}

	empty := Parse(" \n \n")
	assert.Equal(t, Parsed{Sections: Sections{}}, empty)
}

func TestParse_Idempotent(t *testing.T) {
	for _, raw := range []string{legacySample, "롯이 아브람을 떠난 후에 창13:10-18\n2026. 2. 8\n본문"} {
		assert.Equal(t, Parse(raw), Parse(raw))
	}
}

func TestParse_CRLF(t *testing.T) {
	p := Parse("2월 5일 예배\r\n기도\r\n1. 교회를 위해\r\n")
	assert.Equal(t, Sections{
		Header{Content: "2월 5일 예배"},
		PrayerTitle{Content: "기도"},
		PrayerItem{Number: 1, Content: "교회를 위해"},
	}, p.Sections)
}

func TestParsed_MainScripture(t *testing.T) {
	p := Parse(legacySample)
	m, ok := p.MainScripture()
	require.True(t, ok)
	assert.Equal(t, "롬8:1-6", m.Reference)
}

func TestParse_DecomposedHangul(t *testing.T) {
	composed := "롯이 아브람을 떠난 후에 창13:10-18\n본문"
	decomposed := norm.NFD.String(composed)
	require.NotEqual(t, composed, decomposed)

	assert.Equal(t, Parse(composed), Parse(decomposed))
}
