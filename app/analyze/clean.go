package analyze

import (
	"fmt"
	"sort"
	"strings"
)

// Tags is the fixed extraction tag set, in message display order. Every
// cleaned mapping carries exactly these keys.
var Tags = []string{
	"이름", "생년월일", "거주지", "사망일시", "사망장소",
	"장례일정", "장례장소", "발인일시", "화장일시",
}

// FailedValue marks a field the model could not extract. Downstream
// formatting emits a fixed number of numbered lines, so fields are never
// absent, only failed.
const FailedValue = "추출 실패"

// Clean normalizes a raw model reply into the fixed tag set. Missing, null
// and no-value answers collapse to FailedValue; nested replies are flattened
// to a single string.
func Clean(raw map[string]any) map[string]string {
	result := make(map[string]string, len(Tags))

	for _, tag := range Tags {
		value, ok := raw[tag]
		if !ok {
			result[tag] = FailedValue
			continue
		}

		converted := flatten(value)
		switch converted {
		case "", "없음", "그 외의 사항":
			converted = FailedValue
		}

		result[tag] = converted
	}

	return result
}

// flatten renders a reply value as one string: objects become key:value
// lines, arrays become comma-joined scalars.
func flatten(value any) string {
	switch v := value.(type) {
	case nil:
		return FailedValue
	case string:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+":"+flatten(v[key]))
		}
		return strings.Join(parts, "\n")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flatten(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
