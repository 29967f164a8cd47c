package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/tucnak/telebot.v2"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/logger"
	"github.com/ftomza/go-adsales-bot/pkg/parser"
	"github.com/ftomza/go-adsales-bot/pkg/report"
)

type ctxKey int

const (
	currentMessage ctxKey = iota
)

const (
	endpointCommandNotFound = "\fcommandNotFound"

	sessionTTL = time.Minute
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type commandMessageFn func(c telegramBotCommand, msg *telebot.Message)

type telegramBotCommand struct {
	Name        string
	Command     string
	Description string
}

func (c telegramBotCommand) String() string {
	return c.Name
}

func (c telegramBotCommand) BotCommand() telebot.Command {
	return telebot.Command{
		Text:        c.Command,
		Description: c.Description,
	}
}

func (c telegramBotCommand) AddBotMessageHandle(b *TelegramBot, handler commandMessageFn) {
	b.bot.Handle("/"+c.Command, func(msg *telebot.Message) {
		handler(c, msg)
	})
}

var (
	startCommand      = telegramBotCommand{Name: "Start", Command: "start", Description: "Главное меню"}
	statsCommand      = telegramBotCommand{Name: "Stats", Command: "stats", Description: "Статистика продаж"}
	moneyCommand      = telegramBotCommand{Name: "Money", Command: "money", Description: "Финансовая статистика"}
	exportCommand     = telegramBotCommand{Name: "Export", Command: "export", Description: "Выгрузка продаж в Excel"}
	resetStatsCommand = telegramBotCommand{Name: "ResetStats", Command: "resetstats", Description: "Обнулить статистику"}
	cancelCommand     = telegramBotCommand{Name: "Cancel", Command: "cancel", Description: "Отменить текущую операцию"}

	commands = []telegramBotCommand{startCommand, statsCommand, moneyCommand, exportCommand, resetStatsCommand, cancelCommand}
)

func knownCommand(name string) bool {
	for _, c := range commands {
		if c.Command == name {
			return true
		}
	}
	return false
}

type TelegramBotMessageEntity telebot.MessageEntity

func (e TelegramBotMessageEntity) IsCommand() bool {
	return e.Type == telebot.EntityCommand
}

type TelegramBotMessage telebot.Message

func (m TelegramBotMessage) Command() string {
	command := m.CommandWithAt()

	if i := strings.Index(command, "@"); i != -1 {
		command = command[:i]
	}

	return strings.ToLower(command)
}

func (m TelegramBotMessage) CommandWithAt() string {
	if !m.IsCommand() {
		return ""
	}
	entity := m.Entities[0]
	if entity.Length > len(m.Text) {
		return m.Text[1:]
	}
	return m.Text[1:entity.Length]
}

func (m TelegramBotMessage) IsCommand() bool {
	if len(m.Entities) == 0 {
		return false
	}

	entity := TelegramBotMessageEntity(m.Entities[0])
	return entity.Offset == 0 && entity.IsCommand()
}

// NewPoller routes unknown commands to a "not found" reply instead of the
// sale parser.
func NewPoller(timeout time.Duration) *telebot.MiddlewarePoller {
	poller := &telebot.LongPoller{Timeout: timeout}

	return telebot.NewMiddlewarePoller(poller, func(upd *telebot.Update) bool {
		if upd.Message != nil {
			msg := TelegramBotMessage(*upd.Message)
			if msg.IsCommand() && !knownCommand(msg.Command()) {
				upd.Message.Text = endpointCommandNotFound
			}
		}
		return true
	})
}

type TelegramBot struct {
	bot      *telebot.Bot
	svc      *Service
	sessions *sessionTable
	log      zerolog.Logger

	sheetSelector *telebot.ReplyMarkup
}

// NewTelegramBot registers the handlers on bot. sheetURL may be empty, in
// which case replies carry no "open sheet" button.
func NewTelegramBot(bot *telebot.Bot, svc *Service, sheetURL string, log zerolog.Logger) *TelegramBot {
	instance := &TelegramBot{
		bot:      bot,
		svc:      svc,
		sessions: newSessionTable(),
		log:      log,
	}

	if sheetURL != "" {
		instance.sheetSelector = newSheetSelector(sheetURL)
	}

	bot.Handle(endpointCommandNotFound, instance.commandNotFoundHandler)

	startCommand.AddBotMessageHandle(instance, instance.startHandler)
	statsCommand.AddBotMessageHandle(instance, instance.statsHandler)
	moneyCommand.AddBotMessageHandle(instance, instance.moneyHandler)
	exportCommand.AddBotMessageHandle(instance, instance.exportHandler)
	resetStatsCommand.AddBotMessageHandle(instance, instance.resetStatsHandler)
	cancelCommand.AddBotMessageHandle(instance, instance.cancelHandler)

	bot.Handle(telebot.OnText, instance.onTextHandler)

	if err := instance.setCommands(commands...); err != nil {
		log.Warn().Err(err).Msg("set bot commands")
	}

	return instance
}

func newSheetSelector(url string) *telebot.ReplyMarkup {
	selector := &telebot.ReplyMarkup{}
	selector.Inline(selector.Row(selector.URL(sheetButtonText, url)))
	return selector
}

func (tg *TelegramBot) setCommands(items ...telegramBotCommand) error {
	var cmds []telebot.Command
	for _, v := range items {
		cmds = append(cmds, v.BotCommand())
	}
	return tg.bot.SetCommands(cmds)
}

func (tg *TelegramBot) Start() {
	tg.bot.Start()
}

func (tg *TelegramBot) Stop() {
	tg.bot.Stop()
}

func (tg *TelegramBot) Send(to telebot.Recipient, what interface{}, options ...interface{}) error {
	for {
		if _, err := tg.bot.Send(to, what, options...); err != nil {
			var floodError *telebot.FloodError
			if errors.As(err, &floodError) {
				time.Sleep(time.Duration(floodError.RetryAfter) * time.Second)
				continue
			}
			return err
		}
		break
	}
	return nil
}

// sendHTML replies in HTML, with the sheet button when withSheet is set and
// a sheet is configured.
func (tg *TelegramBot) sendHTML(ctx context.Context, to telebot.Recipient, text string, withSheet bool) {
	options := []interface{}{telebot.ModeHTML}
	if withSheet && tg.sheetSelector != nil {
		options = append(options, tg.sheetSelector)
	}
	if err := tg.Send(to, text, options...); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("send reply")
	}
}

// requestContext tags everything logged while handling m.
func (tg *TelegramBot) requestContext(m *telebot.Message) context.Context {
	lc := tg.log.With().Str("request_id", uuid.NewString())
	if m.Chat != nil {
		lc = lc.Int64("chat_id", m.Chat.ID)
	}
	if m.Sender != nil {
		lc = lc.Int("user_id", m.Sender.ID).Str("username", m.Sender.Username)
	}
	ctx := logger.WithContext(context.Background(), lc.Logger())
	return context.WithValue(ctx, currentMessage, m)
}

func (tg *TelegramBot) commandNotFoundHandler(m *telebot.Message) {
	ctx := tg.requestContext(m)
	tg.sendHTML(ctx, m.Chat, "Команда не найдена. Используйте /start для справки.", false)
}

func (tg *TelegramBot) startHandler(_ telegramBotCommand, m *telebot.Message) {
	ctx := tg.requestContext(m)
	logger.FromContext(ctx).Info().Str("chat_type", string(m.Chat.Type)).Msg("start")
	tg.sendHTML(ctx, m.Chat, helpText(m.Chat.ID), true)
}

func (tg *TelegramBot) statsHandler(_ telegramBotCommand, m *telebot.Message) {
	tg.sendHTML(tg.requestContext(m), m.Chat, statsText(tg.svc.Stats()), true)
}

func (tg *TelegramBot) moneyHandler(_ telegramBotCommand, m *telebot.Message) {
	tg.sendHTML(tg.requestContext(m), m.Chat, moneyText(tg.svc.Stats()), true)
}

func (tg *TelegramBot) exportHandler(_ telegramBotCommand, m *telebot.Message) {
	ctx := tg.requestContext(m)
	_ = tg.wrapperErr(ctx, m, func() error {
		var buf bytes.Buffer
		n, err := tg.svc.Export(ctx, &buf)
		if err != nil {
			return err
		}
		doc := &telebot.Document{
			File:     telebot.FromReader(&buf),
			FileName: report.FileName(time.Now().Format(parser.DateLayout)),
			MIME:     xlsxMIME,
		}
		logger.FromContext(ctx).Info().Int("sales", n).Msg("export")
		return tg.Send(m.Chat, doc)
	})
}

type resetChoice int

const (
	resetKeep resetChoice = iota
	resetConfirm
	resetRecord
)

// resetReply reads the answer to the reset question. A sale posted instead
// of an answer is recorded and the stats are kept.
func resetReply(text string, isSale func(string) bool) resetChoice {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "да", "yes":
		return resetConfirm
	}
	if isSale(text) {
		return resetRecord
	}
	return resetKeep
}

func (tg *TelegramBot) resetStatsHandler(c telegramBotCommand, m *telebot.Message) {
	ctx := tg.requestContext(m)
	tg.sendHTML(ctx, m.Chat, resetAskText, false)
	tg.sessions.Put(m.Sender.ID, NewSession(c.Name, sessionTTL, NewConditionalStep(
		func(ctx context.Context, sess *Session) (bool, error) {
			return tg.wrapperCtxMessage(ctx, func(msg *telebot.Message) (bool, error) {
				return resetReply(msg.Text, tg.svc.IsSale) == resetConfirm, nil
			})
		},
		NewStep(func(ctx context.Context, sess *Session) error {
			tg.svc.ResetStats()
			logger.FromContext(ctx).Info().Msg("stats reset")
			tg.sendHTML(ctx, m.Chat, resetDoneText, false)
			return nil
		}),
		NewStep(func(ctx context.Context, sess *Session) error {
			msg, err := messageFromContext(ctx)
			if err != nil {
				return err
			}
			if resetReply(msg.Text, tg.svc.IsSale) == resetRecord {
				tg.recordHandler(ctx, msg)
				return nil
			}
			tg.sendHTML(ctx, m.Chat, resetKeepText, false)
			return nil
		}),
	)))
}

func (tg *TelegramBot) cancelHandler(_ telegramBotCommand, m *telebot.Message) {
	ctx := tg.requestContext(m)
	sess, ok := tg.sessions.Take(m.Sender.ID, time.Now())
	if !ok {
		tg.sendHTML(ctx, m.Chat, "Нечего отменять.", false)
		return
	}
	tg.sendHTML(ctx, m.Chat, "Команда "+sess.Name+" отменена.", false)
}

func (tg *TelegramBot) onTextHandler(m *telebot.Message) {
	if m.Sender == nil {
		return
	}
	ctx := tg.requestContext(m)

	if sess, ok := tg.sessions.Take(m.Sender.ID, time.Now()); ok {
		if err := sess.Run(ctx); err != nil {
			logger.FromContext(ctx).Error().Err(err).Str("session", sess.Name).Msg("session step")
			return
		}
		if !sess.Done() {
			tg.sessions.Put(m.Sender.ID, sess)
		}
		return
	}

	tg.recordHandler(ctx, m)
}

func (tg *TelegramBot) recordHandler(ctx context.Context, m *telebot.Message) {
	r, err := tg.svc.Record(ctx, m.Text, m.Sender.Username)
	switch {
	case err == nil:
		tg.sendHTML(ctx, m.Chat, confirmationText(r), true)
	case errors.Is(err, parser.ErrNoMatch):
		tg.sendHTML(ctx, m.Chat, noMatchText, false)
	case errors.Is(err, domain.ErrInvalidFormat):
		tg.sendHTML(ctx, m.Chat, formatErrorText, false)
	default:
		tg.sendHTML(ctx, m.Chat, failureText, false)
	}
}

func (tg *TelegramBot) wrapperErr(ctx context.Context, m *telebot.Message, fn func() error) error {
	if err := fn(); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("handler")
		tg.sendHTML(ctx, m.Chat, failureText, false)
		return err
	}
	return nil
}

func (tg *TelegramBot) wrapperCtxMessage(ctx context.Context, fn func(m *telebot.Message) (bool, error)) (bool, error) {
	m, err := messageFromContext(ctx)
	if err != nil {
		return false, err
	}
	return fn(m)
}

func messageFromContext(ctx context.Context) (*telebot.Message, error) {
	m, ok := ctx.Value(currentMessage).(*telebot.Message)
	if !ok {
		return nil, errors.New("message not found on context")
	}
	return m, nil
}
