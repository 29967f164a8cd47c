package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ftomza/go-adsales-bot/domain"
)

// Sale is the journal row.
type Sale struct {
	gorm.Model

	UID              string `gorm:"uniqueIndex;size:36"`
	Manager          string `gorm:"index"`
	Date             string
	Time             string
	Amount           decimal.Decimal `gorm:"type:text"`
	Currency         string          `gorm:"index"`
	PaymentType      string
	Format           string
	InternalExternal string
	Channel          string
	Comment          string
}

type DomainSale domain.Sale

func (s DomainSale) ToSale() Sale {
	return Sale{
		Manager:          s.Manager,
		Date:             s.Date,
		Time:             s.Time,
		Amount:           s.Amount,
		Currency:         string(s.Currency),
		PaymentType:      s.PaymentType,
		Format:           s.Format,
		InternalExternal: s.InternalExternal,
		Channel:          s.Channel,
		Comment:          s.Comment,
	}
}

func (s Sale) ToDomain() domain.Sale {
	return domain.Sale{
		Manager:          s.Manager,
		Date:             s.Date,
		Time:             s.Time,
		Amount:           s.Amount,
		Currency:         domain.Currency(s.Currency),
		PaymentType:      s.PaymentType,
		Format:           s.Format,
		InternalExternal: s.InternalExternal,
		Channel:          s.Channel,
		Comment:          s.Comment,
	}
}

// GormSaleRepository journals sales in a local database. It backs the bot
// when Google Sheets is disabled.
type GormSaleRepository struct {
	db *gorm.DB
}

func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{
		db: db,
	}
}

func (g *GormSaleRepository) Migration(_ context.Context) error {
	return g.db.AutoMigrate(&Sale{})
}

func (g *GormSaleRepository) Store(ctx context.Context, sale *domain.Sale) error {
	return g.wrapper(ctx, func(db *gorm.DB) error {
		item := DomainSale(*sale).ToSale()
		item.UID = uuid.New().String()
		return db.Create(&item).Error
	})
}

func (g *GormSaleRepository) List(ctx context.Context) ([]domain.Sale, error) {
	var items []Sale
	err := g.wrapper(ctx, func(db *gorm.DB) error {
		return db.Order("id").Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	sales := make([]domain.Sale, 0, len(items))
	for _, v := range items {
		sales = append(sales, v.ToDomain())
	}
	return sales, nil
}

func (g *GormSaleRepository) wrapper(ctx context.Context, fn func(db *gorm.DB) error) error {
	return fn(g.db.WithContext(ctx).Model(&Sale{}))
}
