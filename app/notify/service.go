package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/yeongdo-dev/funeral-watch/app/config"
)

// Service delivers funeral notifications and operator messages. Funeral
// notices go to the district's own channel and the combined channel; both
// must succeed before an item may be marked sent.
type Service struct {
	client *Client

	mainChat    string
	errorChat   string
	generalChat string

	districtChats map[string]string // Korean district name -> chat ID

	testMode bool
	testChat string

	loc *time.Location
}

// ServiceOptions carries the channel wiring and timezone for a Service.
type ServiceOptions struct {
	MainChat    string
	ErrorChat   string
	GeneralChat string
	TestMode    bool
	TestChat    string
	Timezone    string
}

func NewService(client *Client, opts ServiceOptions, districts []*config.District) *Service {
	districtChats := make(map[string]string, len(districts))
	for _, district := range districts {
		districtChats[district.Name] = district.ChatID
	}

	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		slog.Warn("Failed to load timezone, using KST offset", "timezone", opts.Timezone, "error", err)
		loc = time.FixedZone("KST", 9*60*60)
	}

	return &Service{
		client:        client,
		mainChat:      opts.MainChat,
		errorChat:     opts.ErrorChat,
		generalChat:   opts.GeneralChat,
		districtChats: districtChats,
		testMode:      opts.TestMode,
		testChat:      opts.TestChat,
		loc:           loc,
	}
}

// NotifyFuneral sends one notice to the district channel and the combined
// channel. It returns true only when every delivery succeeded; a partial
// delivery is a failure, because the sent marker must not be written for an
// item some channel never received.
func (s *Service) NotifyFuneral(ctx context.Context, district, url string, updateCount int, fields map[string]string) bool {
	chatID, ok := s.districtChats[district]
	if !ok {
		slog.Warn("No channel configured for district", "district", district)
		return false
	}
	if s.testMode {
		chatID = s.testChat
	}

	message := FormatFuneral(district, url, updateCount, fields)
	silent := isNight(time.Now().In(s.loc))

	districtOK := s.send(ctx, chatID, message, silent)
	mainOK := s.send(ctx, s.mainChat, message, silent)

	return districtOK && mainOK
}

// NotifyGeneral posts an informational operator message, always silent.
func (s *Service) NotifyGeneral(ctx context.Context, message string) bool {
	text := FormatGeneral(message, time.Now().In(s.loc))
	return s.send(ctx, s.generalChat, text, true)
}

// NotifyError posts an error report to the operator error channel.
func (s *Service) NotifyError(ctx context.Context, functionName, errorMessage, code, addText string) bool {
	text := FormatError(functionName, errorMessage, code, addText, time.Now().In(s.loc))
	return s.send(ctx, s.errorChat, text, false)
}

func (s *Service) send(ctx context.Context, chatID, text string, silent bool) bool {
	if chatID == "" {
		slog.Warn("Skipping send to empty chat ID")
		return false
	}

	if err := s.client.SendMessage(ctx, chatID, text, silent); err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
		return false
	}
	return true
}

// isNight reports whether t falls in the silent window [20:00, 07:00).
// Night sends are delivered without an alert sound but still count as
// delivered.
func isNight(t time.Time) bool {
	hour := t.Hour()
	return hour >= 20 || hour < 7
}
