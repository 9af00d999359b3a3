package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/chat/completions"
	requestTimeout = 60 * time.Second
)

// Error kinds, distinguished so the pipeline can log them apart. All of them
// block the notification for that item; it is retried whole on the next run.
var (
	ErrRequest    = errors.New("analysis request failed")
	ErrBadReply   = errors.New("analysis reply is not valid JSON")
	ErrReplyShape = errors.New("unexpected analysis reply structure")
)

// promptTemplate asks for the fixed tag set as a JSON object and pushes
// everything else into a catch-all bucket. The trailing admonition keeps the
// model from inventing values for absent fields.
const promptTemplate = `아래의 <공영장례 정보>에서 [이름, 생년월일, 거주지, 사망일시, 사망장소, 장례일정, 장례장소, 발인일시, 화장일시]을 JSON 형태로 추출해줘. 단, 그외의 사항은 [그 외의 사항]으로 분류해주면 돼.(없는 값은 억지로 찾지마. 그러면 혼난다.)
<공영장례 정보>
%s`

// Analyzer extracts structured notice fields through a chat-completions
// call at deterministic sampling.
type Analyzer struct {
	apiKey string
	model  string
	apiURL string
	client *resty.Client
}

func NewAnalyzer(apiKey, model string) *Analyzer {
	client := resty.New()
	client.SetTimeout(requestTimeout)

	return &Analyzer{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		client: client,
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the notice text to the model and returns the raw extracted
// mapping with whitespace-normalized keys. Commas are replaced with periods
// before embedding, so the text cannot masquerade as the reply's own
// field separators.
func (a *Analyzer) Analyze(ctx context.Context, content string) (map[string]any, error) {
	prompt := fmt.Sprintf(promptTemplate, strings.ReplaceAll(content, ",", "."))

	var reply chatResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.apiKey).
		SetBody(chatRequest{
			Model:          a.model,
			Messages:       []chatMessage{{Role: "user", Content: prompt}},
			ResponseFormat: responseFormat{Type: "json_object"},
			Temperature:    0.0,
		}).
		SetResult(&reply).
		Post(a.apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequest, resp.StatusCode())
	}

	if len(reply.Choices) == 0 {
		return nil, fmt.Errorf("%w: reply has no choices", ErrReplyShape)
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(reply.Choices[0].Message.Content), &extracted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}

	// The model is not whitespace-stable in its keys ("생년월일 ", "생년 월일").
	normalized := make(map[string]any, len(extracted))
	for key, value := range extracted {
		normalized[strings.ReplaceAll(key, " ", "")] = value
	}

	return normalized, nil
}
