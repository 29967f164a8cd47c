package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/logger"
)

var (
	ErrNoCredentials  = errors.New("sheet/google: credentials not found")
	ErrBadCredentials = errors.New("sheet/google: bad service account credentials")
)

var serviceAccountFields = []string{"type", "project_id", "private_key", "client_email"}

// LoadServiceAccount finds service account JSON: inline JSON wins, then
// file, then folder/credentials.json.
func LoadServiceAccount(inline, file, folder string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		raw := []byte(inline)
		if !json.Valid(raw) {
			raw = []byte(strings.ReplaceAll(inline, `\n`, "\n"))
		}
		return NormalizeServiceAccount(raw)
	}

	for _, path := range []string{file, filepath.Join(folder, "credentials.json")} {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return NormalizeServiceAccount(raw)
	}
	return nil, ErrNoCredentials
}

// NormalizeServiceAccount checks the required fields and repairs escaped
// newlines in the private key.
func NormalizeServiceAccount(raw []byte) ([]byte, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}

	var missing []string
	for _, f := range serviceAccountFields {
		if _, ok := data[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrBadCredentials, strings.Join(missing, ", "))
	}
	if data["type"] != "service_account" {
		return nil, fmt.Errorf("%w: type must be service_account", ErrBadCredentials)
	}
	if key, ok := data["private_key"].(string); ok {
		data["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}
	return json.Marshal(data)
}

func NewGoogleClient(ctx context.Context, credentials []byte) (*http.Client, error) {
	conf, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	return conf.Client(ctx), nil
}

type GoogleSaleRepository struct {
	srv      *sheets.Service
	sheetID  string
	listName string
}

func NewGoogleSaleRepository(ctx context.Context, client *http.Client, sheetID, listName string, opts ...option.ClientOption) (*GoogleSaleRepository, error) {
	if sheetID == "" {
		return nil, errors.New("sheet/google: sheet ID not set")
	}

	srv, err := sheets.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &GoogleSaleRepository{
		srv:      srv,
		sheetID:  sheetID,
		listName: listName,
	}, nil
}

func (s *GoogleSaleRepository) cells(a1 string) string {
	if s.listName == "" {
		return a1
	}
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.listName, "'", "''"), a1)
}

// EnsureHeader writes the column titles into an empty first row. A first
// row holding anything else is left alone.
func (s *GoogleSaleRepository) EnsureHeader(ctx context.Context) error {
	log := logger.FromContext(ctx)

	resp, err := s.srv.Spreadsheets.Values.Get(s.sheetID, s.cells("A1:J1")).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		if fmt.Sprint(resp.Values[0][0]) != domain.SheetHeaders[0] {
			log.Warn().Interface("first_row", resp.Values[0]).Msg("sheet has an unexpected header row")
		}
		return nil
	}

	header := make([]interface{}, len(domain.SheetHeaders))
	for i, h := range domain.SheetHeaders {
		header[i] = h
	}
	_, err = s.srv.Spreadsheets.Values.
		Update(s.sheetID, s.cells("A1:J1"), &sheets.ValueRange{Values: [][]interface{}{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err == nil {
		log.Info().Str("sheet_id", s.sheetID).Msg("sheet header created")
	}
	return err
}

func (s *GoogleSaleRepository) Store(ctx context.Context, item *domain.Sale) error {
	rb := &sheets.ValueRange{
		Values: [][]interface{}{item.Row()},
	}
	resp, err := s.srv.Spreadsheets.Values.
		Append(s.sheetID, s.cells("A:J"), rb).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheet/google: append: %w", err)
	}
	if resp.Updates != nil {
		logger.FromContext(ctx).Debug().Str("range", resp.Updates.UpdatedRange).Msg("sale row appended")
	}
	return nil
}

// List reads every data row back. Rows that are not sales are skipped.
func (s *GoogleSaleRepository) List(ctx context.Context) ([]domain.Sale, error) {
	resp, err := s.srv.Spreadsheets.Values.
		Get(s.sheetID, s.cells("A2:J")).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheet/google: read: %w", err)
	}

	log := logger.FromContext(ctx)
	sales := make([]domain.Sale, 0, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		sale, err := domain.SaleFromRow(row)
		if err != nil {
			log.Warn().Err(err).Int("row", i+2).Msg("skip sheet row")
			continue
		}
		sales = append(sales, sale)
	}
	return sales, nil
}
