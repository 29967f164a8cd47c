package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/tucnak/telebot.v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/bot"
	"github.com/ftomza/go-adsales-bot/pkg/commission"
	"github.com/ftomza/go-adsales-bot/pkg/config"
	"github.com/ftomza/go-adsales-bot/pkg/logger"
	"github.com/ftomza/go-adsales-bot/pkg/parser"
	"github.com/ftomza/go-adsales-bot/pkg/stats"
	"github.com/ftomza/go-adsales-bot/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("load config")
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log := logger.New(level)
	ctx := logger.WithContext(context.Background(), log)

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to connect database")
	}

	journal := store.NewGormSaleRepository(db)
	if err = journal.Migration(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration db")
	}

	repo := saleRepository(ctx, cfg, journal, log)

	tb, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.TelegramToken,
		Poller:  bot.NewPoller(cfg.PollTimeout),
		Verbose: cfg.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create bot")
	}

	var notifier bot.Notifier
	if cfg.NotificationChatID != "" {
		target, err := bot.ParseTarget(cfg.NotificationChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("NOTIFICATION_CHAT_ID")
		}
		notifier = bot.NewTelegramNotifier(tb, target)
		log.Info().Str("target", target.String()).Msg("notifications enabled")
	}

	svc := bot.NewService(
		parser.New(),
		repo,
		commission.NewCalculator(cfg.CommissionRates),
		stats.NewAccumulator(),
		notifier,
	)

	sheetURL := ""
	if _, ok := repo.(*store.GoogleSaleRepository); ok {
		sheetURL = cfg.SheetURL()
	}
	b := bot.NewTelegramBot(tb, svc, sheetURL, log)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		log.Info().Str("signal", s.String()).Msg("shutting down")
		b.Stop()
	}()

	log.Info().Msg("bot started")
	b.Start()
}

// saleRepository prefers Google Sheets and falls back to the local journal
// when Sheets is disabled or cannot be reached.
func saleRepository(ctx context.Context, cfg config.Config, journal *store.GormSaleRepository, log zerolog.Logger) domain.SaleRepository {
	if cfg.DisableSheets {
		log.Info().Msg("google sheets disabled, using local journal")
		return journal
	}
	if cfg.SheetID == "" {
		log.Warn().Msg("GOOGLE_SHEETS_ID not set, using local journal")
		return journal
	}

	creds, err := store.LoadServiceAccount(cfg.CredentialsJSON, cfg.CredentialsFile, cfg.CredentialsFolder)
	if err != nil {
		log.Warn().Err(err).Msg("google credentials unavailable, using local journal")
		return journal
	}
	client, err := store.NewGoogleClient(ctx, creds)
	if err != nil {
		log.Warn().Err(err).Msg("google client, using local journal")
		return journal
	}
	repo, err := store.NewGoogleSaleRepository(ctx, client, cfg.SheetID, cfg.SheetList)
	if err != nil {
		log.Warn().Err(err).Msg("google sheets, using local journal")
		return journal
	}
	if err := repo.EnsureHeader(ctx); err != nil {
		log.Warn().Err(err).Msg("sheet header, using local journal")
		return journal
	}

	log.Info().Str("sheet_id", cfg.SheetID).Msg("google sheets connected")
	return repo
}
