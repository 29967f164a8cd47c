package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ftomza/go-adsales-bot/pkg/logger"
)

var ErrBadTarget = errors.New("notify: bad target")

// Target is a chat, optionally narrowed to a forum topic.
type Target struct {
	ChatID  string
	TopicID int
}

// ParseTarget reads "chat" or "chat#topic".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	chat, topic, hasTopic := strings.Cut(s, "#")
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrBadTarget, s)
	}
	t := Target{ChatID: chat}
	if hasTopic {
		id, err := strconv.Atoi(strings.TrimSpace(topic))
		if err != nil || id <= 0 {
			return Target{}, fmt.Errorf("%w: topic in %q", ErrBadTarget, s)
		}
		t.TopicID = id
	}
	return t, nil
}

func (t Target) String() string {
	if t.TopicID == 0 {
		return t.ChatID
	}
	return t.ChatID + "#" + strconv.Itoa(t.TopicID)
}

// RawSender is the part of telebot.Bot used for notifications. Raw is
// used because telebot v2 has no message_thread_id option.
type RawSender interface {
	Raw(method string, payload interface{}) ([]byte, error)
}

type TelegramNotifier struct {
	api    RawSender
	target Target
}

func NewTelegramNotifier(api RawSender, target Target) *TelegramNotifier {
	return &TelegramNotifier{api: api, target: target}
}

func (n *TelegramNotifier) Notify(ctx context.Context, r Receipt) error {
	payload := map[string]interface{}{
		"chat_id":    n.target.ChatID,
		"text":       notificationText(r),
		"parse_mode": "HTML",
	}
	if n.target.TopicID != 0 {
		payload["message_thread_id"] = n.target.TopicID
	}
	if _, err := n.api.Raw("sendMessage", payload); err != nil {
		return fmt.Errorf("notify %s: %w", n.target, err)
	}
	logger.FromContext(ctx).Debug().Str("target", n.target.String()).Msg("notification sent")
	return nil
}
