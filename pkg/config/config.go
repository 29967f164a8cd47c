// Package config loads bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ftomza/go-adsales-bot/pkg/commission"
)

var ErrNoToken = errors.New("config: TELEGRAM_BOT_TOKEN not set")

type Config struct {
	TelegramToken      string
	SheetID            string
	SheetList          string
	CredentialsJSON    string
	CredentialsFile    string
	CredentialsFolder  string
	DisableSheets      bool
	NotificationChatID string
	LogLevel           string
	Debug              bool
	DBPath             string
	PollTimeout        time.Duration
	CommissionRates    map[string]decimal.Decimal
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GOOGLE_SHEETS_ID", "")
	v.SetDefault("SHEET_LIST", "")
	v.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("CREDENTIALS_FOLDER", "credentials")
	v.SetDefault("DISABLE_GOOGLE_SHEETS", false)
	v.SetDefault("NOTIFICATION_CHAT_ID", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
	v.SetDefault("DB_PATH", "app.db")
	v.SetDefault("POLL_TIMEOUT", 10*time.Second)
	v.SetDefault("COMMISSION_RATES", "mqwou=0.05")
}

// Load reads the process environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		TelegramToken:      strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		SheetID:            strings.TrimSpace(v.GetString("GOOGLE_SHEETS_ID")),
		SheetList:          strings.TrimSpace(v.GetString("SHEET_LIST")),
		CredentialsJSON:    v.GetString("GOOGLE_CREDENTIALS_JSON"),
		CredentialsFile:    v.GetString("CREDENTIALS_FILE"),
		CredentialsFolder:  v.GetString("CREDENTIALS_FOLDER"),
		DisableSheets:      v.GetBool("DISABLE_GOOGLE_SHEETS"),
		NotificationChatID: strings.TrimSpace(v.GetString("NOTIFICATION_CHAT_ID")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Debug:              v.GetBool("DEBUG"),
		DBPath:             v.GetString("DB_PATH"),
		PollTimeout:        v.GetDuration("POLL_TIMEOUT"),
	}

	if cfg.TelegramToken == "" {
		return Config{}, ErrNoToken
	}

	rates, err := commission.ParseRates(v.GetString("COMMISSION_RATES"))
	if err != nil {
		return Config{}, fmt.Errorf("config: COMMISSION_RATES: %w", err)
	}
	cfg.CommissionRates = rates

	return cfg, nil
}

// SheetURL is the browser link for the configured spreadsheet.
func (c Config) SheetURL() string {
	if c.SheetID == "" {
		return ""
	}
	return "https://docs.google.com/spreadsheets/d/" + c.SheetID
}
