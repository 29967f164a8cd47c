package bot

import (
	"context"
	"fmt"
	"io"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/commission"
	"github.com/ftomza/go-adsales-bot/pkg/logger"
	"github.com/ftomza/go-adsales-bot/pkg/parser"
	"github.com/ftomza/go-adsales-bot/pkg/report"
	"github.com/ftomza/go-adsales-bot/pkg/stats"
)

// Receipt describes a recorded sale.
type Receipt struct {
	Sale       domain.Sale
	Submitter  string
	Commission commission.Result
}

type Notifier interface {
	Notify(ctx context.Context, r Receipt) error
}

// Service is the transport-independent part of the bot.
type Service struct {
	parser   *parser.Parser
	repo     domain.SaleRepository
	calc     *commission.Calculator
	stats    *stats.Accumulator
	notifier Notifier
}

// NewService wires the collaborators. notifier may be nil.
func NewService(p *parser.Parser, repo domain.SaleRepository, calc *commission.Calculator, acc *stats.Accumulator, notifier Notifier) *Service {
	return &Service{
		parser:   p,
		repo:     repo,
		calc:     calc,
		stats:    acc,
		notifier: notifier,
	}
}

// Record parses text, validates and stores the sale, then updates totals
// and notifies. A failed notification does not fail the sale.
func (s *Service) Record(ctx context.Context, text, submitter string) (Receipt, error) {
	log := logger.FromContext(ctx)

	sale, err := s.parser.Parse(text)
	if err != nil {
		log.Debug().Err(err).Msg("message skipped")
		return Receipt{}, err
	}
	if err := sale.Validate(); err != nil {
		log.Info().Err(err).Str("format", sale.Format).Msg("sale rejected")
		return Receipt{}, err
	}

	if err := s.repo.Store(ctx, &sale); err != nil {
		log.Error().Err(err).Msg("store sale")
		return Receipt{}, fmt.Errorf("bot: store sale: %w", err)
	}

	r := Receipt{
		Sale:       sale,
		Submitter:  submitter,
		Commission: s.calc.Calculate(sale, submitter),
	}
	s.stats.Add(sale, r.Commission)

	log.Info().
		Str("manager", sale.Manager).
		Str("amount", sale.Amount.String()).
		Str("currency", string(sale.Currency)).
		Str("submitter", submitter).
		Msg("sale recorded")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, r); err != nil {
			log.Error().Err(err).Msg("notify sale")
		}
	}
	return r, nil
}

// IsSale reports whether text parses as a sale. The format is not checked.
func (s *Service) IsSale(text string) bool {
	_, err := s.parser.Parse(text)
	return err == nil
}

func (s *Service) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

func (s *Service) ResetStats() {
	s.stats.Reset()
}

// Export writes every recorded sale to w as an xlsx workbook and returns
// how many were written.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	sales, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("bot: list sales: %w", err)
	}
	if err := report.WriteSales(w, sales); err != nil {
		return 0, err
	}
	return len(sales), nil
}
