package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/yeongdo-dev/funeral-watch/app/analyze"
)

func sampleFields() map[string]string {
	fields := make(map[string]string, len(analyze.Tags))
	for _, tag := range analyze.Tags {
		fields[tag] = analyze.FailedValue
	}
	fields["이름"] = "홍길동"
	fields["장례장소"] = "영락공원"
	return fields
}

func TestFormatFuneralNewPosting(t *testing.T) {
	message := FormatFuneral("영도구", "https://example.com/notice/1", 0, sampleFields())

	if !strings.Contains(message, "[영도구] 새로운 부고가 게시되었습니다") {
		t.Errorf("Expected new-posting title, got %q", message)
	}
	if strings.Contains(message, "수정되었습니다") {
		t.Errorf("Expected no update wording for a new posting, got %q", message)
	}

	// One numbered line per tag, in display order.
	for i, tag := range analyze.Tags {
		line := numberedMarkers[i] + " " + tag + " : "
		if !strings.Contains(message, line) {
			t.Errorf("Expected line for %q with marker %s", tag, numberedMarkers[i])
		}
	}

	if !strings.Contains(message, "① 이름 : 홍길동") {
		t.Errorf("Expected extracted name line, got %q", message)
	}
	if !strings.Contains(message, analyze.FailedValue) {
		t.Errorf("Expected failed fields to render the failure value, got %q", message)
	}
	if !strings.Contains(message, "<a href='https://example.com/notice/1'>부고 게시물 확인</a>") {
		t.Errorf("Expected link line, got %q", message)
	}
}

func TestFormatFuneralUpdatedPosting(t *testing.T) {
	message := FormatFuneral("영도구", "https://example.com/notice/1", 2, sampleFields())

	if !strings.Contains(message, "부고가 수정되었습니다(ver. 2)") {
		t.Errorf("Expected update title with version, got %q", message)
	}
}

func TestFormatFuneralEscapesFieldValues(t *testing.T) {
	fields := sampleFields()
	fields["거주지"] = "부산 <b>영도구</b> & 중구"

	message := FormatFuneral("영도구", "https://example.com/1", 0, fields)

	if !strings.Contains(message, "부산 &lt;b&gt;영도구&lt;/b&gt; &amp; 중구") {
		t.Errorf("Expected field value to be HTML-escaped, got %q", message)
	}
}

func TestFormatFuneralFixesMangledLinkAmpersands(t *testing.T) {
	message := FormatFuneral("영도구", "https://example.com/view?id=1&>&page=2", 0, sampleFields())

	if !strings.Contains(message, "https://example.com/view?id=1&page=2") {
		t.Errorf("Expected mangled ampersand fixed in link, got %q", message)
	}
}

func TestFormatGeneral(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

	message := FormatGeneral("서버 가동 시작했습니다.", now)

	if !strings.Contains(message, "[일반 통보] ✅ 서버 가동 시작했습니다.") {
		t.Errorf("Expected general notice body, got %q", message)
	}
	if !strings.Contains(message, "2024년 03월 05일 14시 30분 45초") {
		t.Errorf("Expected formatted timestamp, got %q", message)
	}
}

func TestFormatErrorTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("a", 600) + strings.Repeat("b", 600)
	now := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

	message := FormatError("Scheduler", long, "scheduler_error", "부가 설명", now)

	if !strings.Contains(message, "(...)") {
		t.Errorf("Expected truncation marker in long error message")
	}
	if strings.Contains(message, strings.Repeat("a", 501)) {
		t.Errorf("Expected head truncated to 500 characters")
	}
	if !strings.Contains(message, strings.Repeat("b", 500)) {
		t.Errorf("Expected tail of 500 characters preserved")
	}
	if !strings.Contains(message, "고유번호(scheduler_error)") {
		t.Errorf("Expected error code line, got %q", message)
	}
}

func TestFormatErrorShortMessageUntouched(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

	message := FormatError("Scheduler", "connection refused", "scheduler_error", "", now)

	if strings.Contains(message, "(...)") {
		t.Errorf("Expected no truncation for a short message, got %q", message)
	}
	if !strings.Contains(message, "connection refused") {
		t.Errorf("Expected error text preserved, got %q", message)
	}
}
