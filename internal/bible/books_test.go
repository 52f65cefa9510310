package bible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooks_Catalog(t *testing.T) {
	books := Books()
	require.Len(t, books, 66)
	assert.Len(t, BooksOf(OldTestament), 39)
	assert.Len(t, BooksOf(NewTestament), 27)

	assert.Equal(t, "Gen", books[0].ID)
	assert.Equal(t, "Mal", books[38].ID)
	assert.Equal(t, "Mat", books[39].ID)
	assert.Equal(t, "Rev", books[65].ID)

	seen := make(map[string]bool)
	for _, b := range books {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}

func TestBooks_ReturnsCopy(t *testing.T) {
	books := Books()
	books[0].Name = "changed"

	b, ok := BookByID("Gen")
	require.True(t, ok)
	assert.Equal(t, "창세기", b.Name)
}

func TestFindByReferencePrefix(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID string
		wantOK bool
	}{
		{name: "abbreviation with chapter", text: "창1:1", wantID: "Gen", wantOK: true},
		{name: "full name", text: "창세기 1:1", wantID: "Gen", wantOK: true},
		{name: "full name glued", text: "로마서8:28", wantID: "Rom", wantOK: true},
		{name: "exact abbreviation", text: "창", wantID: "Gen", wantOK: true},
		{name: "abbreviation then space", text: "시 23", wantID: "Psa", wantOK: true},
		{name: "abbreviation then dot", text: "시.23", wantID: "Psa", wantOK: true},
		{name: "abbreviation then colon", text: "시:23", wantID: "Psa", wantOK: true},
		{name: "word fragment is not isaiah", text: "사변이 일어났다", wantOK: false},
		{name: "acts full name over isaiah", text: "사도행전 2:1", wantID: "Act", wantOK: true},
		{name: "1 john abbreviation", text: "요일4:8", wantID: "1Jo", wantOK: true},
		{name: "john abbreviation", text: "요3:16", wantID: "Joh", wantOK: true},
		{name: "1 john full name", text: "요한일서 4:8", wantID: "1Jo", wantOK: true},
		{name: "revelation full name", text: "요한계시록 21:1", wantID: "Rev", wantOK: true},
		{name: "amos full name over song", text: "아모스 5:24", wantID: "Amo", wantOK: true},
		{name: "longest full name", text: "예레미야애가 3:22", wantID: "Lam", wantOK: true},
		{name: "jeremiah full name", text: "예레미야 29:11", wantID: "Jer", wantOK: true},
		{name: "empty", text: "", wantOK: false},
		{name: "latin text", text: "Genesis 1:1", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, ok := FindByReferencePrefix(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, book.ID)
			}
		})
	}
}

func TestQuotePrefix(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"롬8:6 육신의 생각은 사망이요", true},
		{"시23.1 여호와는 나의 목자시니", true},
		{"요일4:8 사랑하지 아니하는 자는", true},
		{"고전13:4 사랑은 오래 참고", true},
		{"사랑은 오래 참고", false},
		{"창 1:1 태초에", false},
		{"창세기1:1 태초에", false},
		{"롬", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, QuotePrefix.MatchString(tt.line))
		})
	}
}

func TestTrailingReference(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantID  string
		wantRef string
		wantOK  bool
	}{
		{
			name:    "abbreviation with range",
			line:    "롯이 아브람을 떠난 후에 창13:10-18",
			wantID:  "Gen",
			wantRef: "창13:10-18",
			wantOK:  true,
		},
		{
			name:    "isaiah",
			line:    "보라 내가 새 일을 행하리니 사43:18-21",
			wantID:  "Isa",
			wantRef: "사43:18-21",
			wantOK:  true,
		},
		{
			name:    "two letter abbreviation beats one letter suffix",
			line:    "사랑은 오래 참고 고전13:4",
			wantID:  "1Co",
			wantRef: "고전13:4",
			wantOK:  true,
		},
		{
			name:    "full name",
			line:    "믿음의 경주 히브리서12:1-2",
			wantID:  "Heb",
			wantRef: "히브리서12:1-2",
			wantOK:  true,
		},
		{
			name:    "dot separator",
			line:    "목자 시23.1",
			wantID:  "Psa",
			wantRef: "시23.1",
			wantOK:  true,
		},
		{name: "not at end", line: "창13:10 롯의 선택", wantOK: false},
		{name: "chapter only", line: "제목 창13", wantOK: false},
		{name: "no reference", line: "아무 제목", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, ref, ok := TrailingReference(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, book.ID)
				assert.Equal(t, tt.wantRef, ref)
			}
		})
	}
}
