package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/money"
	"github.com/avc/commerce-backoffice/internal/utils/promo"
)

// Config содержит параметры расчета стоимости заказа
type Config struct {
	// TaxRate ставка налога в базисных пунктах (2000 = 20%).
	// Налог считается от базы после вычета скидок.
	TaxRate money.BasisPoints
	// PromoRate размер промо-скидки в базисных пунктах (500 = 5%)
	PromoRate money.BasisPoints
	// StrictPromo в строгом режиме неизвестный или недействительный
	// промокод приводит к ошибке вместо нулевой скидки
	StrictPromo bool
}

// DefaultConfig возвращает конфигурацию по умолчанию: НДС 20%, промо 5%,
// мягкая политика промокодов
func DefaultConfig() Config {
	return Config{
		TaxRate:   2000,
		PromoRate: 500,
	}
}

// Totals содержит все производные денежные поля заказа.
// Каждое поле округляется один раз, в момент вычисления.
type Totals struct {
	SubTotal      money.Money
	TierDiscount  money.Money
	PromoDiscount money.Money
	TotalDiscount money.Money
	Tax           money.Money
	Total         money.Money
}

// PromoRegistry определяет доступ к реестру промокодов
type PromoRegistry interface {
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	WasUsedBy(ctx context.Context, code string, clientID int64) (bool, error)
}

// tierRule описывает порог и ставку скидки уровня лояльности
type tierRule struct {
	threshold money.Money
	rate      money.BasisPoints
}

// Скидка уровня применяется только при достижении порога по подытогу,
// порог включительный. Применяется ровно одна скидка - уровня клиента.
var tierRules = map[domain.ClientTier]tierRule{
	domain.TierSilver:   {threshold: 50000, rate: 500},
	domain.TierGold:     {threshold: 80000, rate: 1000},
	domain.TierPlatinum: {threshold: 120000, rate: 1500},
}

// Engine вычисляет стоимость заказа. Единственный авторитетный источник
// денежных полей заказа: клиентские подсчеты служат только для предпросмотра
// и никогда не принимаются на веру.
type Engine struct {
	cfg    Config
	promos PromoRegistry
}

// NewEngine создает новый Engine
func NewEngine(cfg Config, promos PromoRegistry) *Engine {
	return &Engine{
		cfg:    cfg,
		promos: promos,
	}
}

// ComputeTotals вычисляет подытог, скидки, налог и итог заказа.
// Скидки аддитивны: скидка уровня и промо-скидка считаются от подытога
// независимо и складываются, без каскадного применения.
func (e *Engine) ComputeTotals(ctx context.Context, lines []domain.OrderLine, tier domain.ClientTier, promoCode string, clientID int64) (*Totals, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidationError("items", "order must contain at least one line")
	}
	if !tier.Valid() {
		return nil, domain.NewValidationError("tier", fmt.Sprintf("unknown client tier %q", tier))
	}

	subTotal := money.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("quantity must be positive for product %d", line.ProductID))
		}
		if line.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError("unitPrice", fmt.Sprintf("negative unit price for product %d", line.ProductID))
		}
		subTotal = subTotal.Add(line.UnitPrice.MulInt(int64(line.Quantity)))
	}

	tierDiscount := money.Zero
	if rule, ok := tierRules[tier]; ok && subTotal >= rule.threshold {
		tierDiscount = subTotal.ApplyRate(rule.rate)
	}

	promoDiscount, err := e.promoDiscount(ctx, subTotal, promoCode, clientID)
	if err != nil {
		return nil, err
	}

	totalDiscount := tierDiscount.Add(promoDiscount)
	taxable := subTotal.Sub(totalDiscount)
	if taxable.IsNegative() {
		taxable = money.Zero
	}
	tax := taxable.ApplyRate(e.cfg.TaxRate)
	total := taxable.Add(tax)

	return &Totals{
		SubTotal:      subTotal,
		TierDiscount:  tierDiscount,
		PromoDiscount: promoDiscount,
		TotalDiscount: totalDiscount,
		Tax:           tax,
		Total:         total,
	}, nil
}

// promoDiscount вычисляет промо-скидку. В мягком режиме любой
// недействительный код дает нулевую скидку, чтобы не блокировать
// оформление заказа; в строгом режиме возвращается ошибка валидации.
func (e *Engine) promoDiscount(ctx context.Context, subTotal money.Money, code string, clientID int64) (money.Money, error) {
	if code == "" {
		return money.Zero, nil
	}

	if !promo.ValidCode(code) {
		return e.softFail(code, "malformed promo code")
	}

	rule, err := e.promos.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			return e.softFail(code, "unknown promo code")
		}
		return money.Zero, fmt.Errorf("pricing: failed to look up promo code %q: %w", code, err)
	}

	if !rule.Active {
		return e.softFail(code, "promo code is inactive")
	}

	if rule.SingleUse {
		used, err := e.promos.WasUsedBy(ctx, code, clientID)
		if err != nil {
			return money.Zero, fmt.Errorf("pricing: failed to check promo usage for code %q: %w", code, err)
		}
		if used {
			return e.softFail(code, "promo code already used by this client")
		}
	}

	return subTotal.ApplyRate(e.cfg.PromoRate), nil
}

// softFail реализует политику обработки недействительных промокодов
func (e *Engine) softFail(code, reason string) (money.Money, error) {
	if e.cfg.StrictPromo {
		return money.Zero, domain.NewValidationError("promoCode", fmt.Sprintf("%s: %s", reason, code))
	}
	return money.Zero, nil
}
