package analyze

import "testing"

func TestCleanProducesFixedTagSet(t *testing.T) {
	raw := map[string]any{
		"이름":   "홍길동",
		"거주지":  "부산광역시 영도구",
		"추가항목": "버려져야 하는 값",
	}

	result := Clean(raw)

	if len(result) != len(Tags) {
		t.Fatalf("Expected exactly %d keys, got %d", len(Tags), len(result))
	}
	for _, tag := range Tags {
		if _, ok := result[tag]; !ok {
			t.Errorf("Expected key %q to be present", tag)
		}
	}
	if _, ok := result["추가항목"]; ok {
		t.Error("Expected keys outside the tag set to be dropped")
	}

	if result["이름"] != "홍길동" {
		t.Errorf("Expected 이름 to survive, got %q", result["이름"])
	}
	if result["사망일시"] != FailedValue {
		t.Errorf("Expected missing tag to collapse to %q, got %q", FailedValue, result["사망일시"])
	}
}

func TestCleanNoValueAnswers(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"empty string", ""},
		{"none answer", "없음"},
		{"catch-all leak", "그 외의 사항"},
		{"null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(map[string]any{"화장일시": tt.value})
			if result["화장일시"] != FailedValue {
				t.Errorf("Expected %v to collapse to %q, got %q", tt.value, FailedValue, result["화장일시"])
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "영락공원", "영락공원"},
		{"number", float64(3), "3"},
		{"array", []any{"입관", "발인"}, "입관, 발인"},
		{
			"object sorted by key",
			map[string]any{"일시": "2024-01-02", "장소": "영락공원"},
			"일시:2024-01-02\n장소:영락공원",
		},
		{
			"nested object in array",
			[]any{map[string]any{"일자": "첫째날"}},
			"일자:첫째날",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flatten(tt.value); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
