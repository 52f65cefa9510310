package sermon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	got := PlainText(Parsed{Sections: oneOfEach})

	assert.Equal(t, "2월 5일 예배\n"+
		"찬송가 268장\n"+
		"기도\n"+
		"1. 교회를 위해\n"+
		"하나님 말씀 롬8:1-6\n"+
		"그러므로 이제\n"+
		"오늘도 좋은 날\n"+
		"2. 영의 생각\n"+
		"롬8:6 육신의 생각은\n"+
		"신앙고백\n"+
		"축원합니다", got)
}

func TestPlainText_LegacyReparse(t *testing.T) {
	p := Parse(legacySample)
	assert.Equal(t, p, Parse(PlainText(p)))
}

func TestPlainText_Empty(t *testing.T) {
	assert.Equal(t, "", PlainText(Parsed{}))
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		p    Parsed
		want string
	}{
		{
			name: "with main scripture",
			p:    Parse("롯이 아브람을 떠난 후에 창13:10-18\n본문"),
			want: "📖 롯이 아브람을 떠난 후에\n✝️ 창13:10-18\n🧩 3 sections",
		},
		{
			name: "without title",
			p:    Parsed{},
			want: "📖 (제목 없음)\n🧩 0 sections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.p))
		})
	}
}
