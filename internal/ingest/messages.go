package ingest

const (
	cancelText = "🗑️ 드래프트가 삭제되었습니다 (Draft Discarded).\n" +
		"다시 시작하려면 설교 본문을 보내주세요."

	helpText = `👋 환영합니다! (Welcome)

📖 설교 업로드 방법 (How to Upload):
1. 설교 본문을 보내주세요. (Send sermon text)
   (첫 줄에 날짜가 있으면 즉시 저장됩니다.)

2. 날짜가 없으면 드래프트(임시저장) 됩니다.
   (Draft saved if no date)

3. 드래프트 상태에서 날짜만 보내면 저장됩니다.
   (Reply with date to finish)
   같은 날짜에 이미 설교가 있으면 기존 설교 뒤에 이어 붙입니다.
   (Appended if the date is taken)

🚫 취소하려면 (To Cancel):
- /cancel 입력 시 드래프트 삭제`

	draftedText = `⚠️ 날짜를 찾을 수 없습니다 (No date found).
📝 본문을 임시 저장했습니다 (Text saved as draft).

👇 다음 단계 (Next Steps):
1. 날짜를 답장으로 보내주세요 (e.g. 12 Feb, 2월 12일).
   (Reply with date to save)

2. 또는 /cancel 을 입력하여 취소하세요.
   (Type /cancel to discard)`

	savedFormat      = "✅ 설교가 저장되었습니다! (Saved)\n📅 날짜: %s"
	draftSavedFormat = "✅ 드래프트가 저장되었습니다! (Draft Saved)\n📅 날짜: %s"
	appendedFormat   = "➕ 기존 설교에 이어서 저장했습니다! (Appended)\n📅 날짜: %s"
	conflictFormat   = "❌ 저장 실패: %s에 이미 설교가 존재합니다."

	failedText = "⚠️ 오류가 발생했습니다. 잠시 후 다시 시도해주세요. (Please try again)"
)
