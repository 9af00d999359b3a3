package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yeongdo-dev/funeral-watch/app/analyze"
)

const (
	funeralNewTemplate     = "<b>🔔 [%s] 새로운 부고가 게시되었습니다.</b>"
	funeralUpdatedTemplate = "<b>🔔 [%s] 부고가 수정되었습니다(ver. %d)</b>"
	funeralLinkTemplate    = "\n<a href='%s'>부고 게시물 확인</a>"

	generalTemplate = "<b>[일반 통보] ✅ %s</b>\n-(%s)"

	errorTemplate = `<b>🚨 에러 발생 통보(%s)</b>

① 고유번호(%s)
② 발생시간(%s)
③ 부가 메시지(%s)

<code>%s</code>`

	timestampLayout = "2006년 01월 02일 15시 04분 05초"
)

// numberedMarkers caps how many field lines a message can carry; tags past
// the tenth are dropped silently rather than rendered unnumbered.
var numberedMarkers = []string{"①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨", "⑩"}

// FormatFuneral renders the fixed message shape: title, numbered field
// lines in tag order, link line. Field values are HTML-escaped because the
// delivery channel interprets a light HTML subset.
func FormatFuneral(district, url string, updateCount int, fields map[string]string) string {
	var b strings.Builder

	if updateCount == 0 {
		fmt.Fprintf(&b, funeralNewTemplate, district)
	} else {
		fmt.Fprintf(&b, funeralUpdatedTemplate, district, updateCount)
	}
	b.WriteString("\n")

	for i, tag := range analyze.Tags {
		if i >= len(numberedMarkers) {
			break
		}
		fmt.Fprintf(&b, "%s %s : %s\n", numberedMarkers[i], tag, html.EscapeString(fields[tag]))
	}

	// Some sources double-escape ampersands in their detail links.
	fmt.Fprintf(&b, funeralLinkTemplate, strings.ReplaceAll(url, "&>&", "&"))

	return b.String()
}

func FormatGeneral(message string, now time.Time) string {
	return fmt.Sprintf(generalTemplate, html.EscapeString(message), now.Format(timestampLayout))
}

// FormatError renders an operator error report. Long error text is
// truncated head-and-tail so a stack dump cannot blow the message size limit.
func FormatError(functionName, errorMessage, code, addText string, now time.Time) string {
	if len(errorMessage) > 1000 {
		errorMessage = errorMessage[:500] + "\n\n(...)\n\n" + errorMessage[len(errorMessage)-500:]
	}

	return fmt.Sprintf(errorTemplate,
		html.EscapeString(functionName),
		code,
		now.Format(timestampLayout),
		html.EscapeString(addText),
		html.EscapeString(errorMessage),
	)
}
