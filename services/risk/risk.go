// Package risk implements the pre-trade validator from §4.6: a pure
// function of an order and the current cache/portfolio snapshot that
// either passes or returns an OrderDenied with a machine-readable reason.
// Grounded on the source's RiskEngine.validate_order.
package risk

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mrhb33/nautilus-backtest-go/services/cache"
	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/events"
	"github.com/mrhb33/nautilus-backtest-go/services/order"
)

// NetPositionSignFunc reports the sign of the net position for an order's
// instrument/strategy, used only to evaluate the REDUCING gate. The risk
// engine depends on this rather than a concrete portfolio type to keep it
// testable in isolation.
type NetPositionSignFunc func(o *order.Order) int

type RiskEngine struct {
	cache        *cache.Cache
	netPosSign   NetPositionSignFunc
	TradingState enums.TradingState
	logger       *zap.Logger
}

func New(c *cache.Cache, netPosSign NetPositionSignFunc, logger *zap.Logger) *RiskEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskEngine{cache: c, netPosSign: netPosSign, TradingState: enums.TradingStateActive, logger: logger}
}

func (r *RiskEngine) SetTradingState(state enums.TradingState) { r.TradingState = state }

// ValidateOrder runs the ordered checks from §4.6 and returns an
// OrderDenied event if any fails, or (zero-value, false) on pass.
func (r *RiskEngine) ValidateOrder(o *order.Order, ts int64) (events.OrderEvent, bool) {
	deny := func(reason string) (events.OrderEvent, bool) {
		r.logger.Info("order denied", zap.String("client_order_id", o.ClientOrderId.String()), zap.String("reason", reason))
		return events.NewOrderDenied(o.TraderId, o.StrategyId, o.InstrumentId, o.ClientOrderId, reason, ts), true
	}

	if r.TradingState == enums.TradingStateHalted {
		return deny("trading is HALTED")
	}

	inst, ok := r.cache.Instrument(o.InstrumentId)
	if !ok {
		return deny(fmt.Sprintf("no instrument found for %s", o.InstrumentId))
	}

	if r.TradingState == enums.TradingStateReducing {
		net := 0
		if r.netPosSign != nil {
			net = r.netPosSign(o)
		}
		increasesAbs := (o.Side == enums.OrderSideBuy && net >= 0) || (o.Side == enums.OrderSideSell && net <= 0)
		if increasesAbs {
			return deny("trading state is REDUCING, only reducing orders allowed")
		}
	}

	if o.Quantity.Precision() != inst.SizePrecision() {
		return deny(fmt.Sprintf("invalid quantity precision %d, expected %d", o.Quantity.Precision(), inst.SizePrecision()))
	}
	if minQty, ok := inst.MinQuantity(); ok && o.Quantity.Cmp(minQty) < 0 {
		return deny(fmt.Sprintf("quantity %s below minimum %s", o.Quantity, minQty))
	}
	if maxQty, ok := inst.MaxQuantity(); ok && o.Quantity.Cmp(maxQty) > 0 {
		return deny(fmt.Sprintf("quantity %s above maximum %s", o.Quantity, maxQty))
	}

	if o.Price != nil {
		if !o.Price.IsPositive() {
			return deny("price must be positive")
		}
		if o.Price.Precision() != inst.PricePrecision() {
			return deny(fmt.Sprintf("invalid price precision %d, expected %d", o.Price.Precision(), inst.PricePrecision()))
		}
		if minPx, ok := inst.MinPrice(); ok && o.Price.Cmp(minPx) < 0 {
			return deny(fmt.Sprintf("price %s below minimum %s", o.Price, minPx))
		}
		if maxPx, ok := inst.MaxPrice(); ok && o.Price.Cmp(maxPx) > 0 {
			return deny(fmt.Sprintf("price %s above maximum %s", o.Price, maxPx))
		}
	}

	if o.TriggerPrice != nil {
		if !o.TriggerPrice.IsPositive() {
			return deny("trigger price must be positive")
		}
		if o.TriggerPrice.Precision() != inst.PricePrecision() {
			return deny(fmt.Sprintf("invalid trigger price precision %d, expected %d", o.TriggerPrice.Precision(), inst.PricePrecision()))
		}
		if minPx, ok := inst.MinPrice(); ok && o.TriggerPrice.Cmp(minPx) < 0 {
			return deny(fmt.Sprintf("trigger price %s below minimum %s", o.TriggerPrice, minPx))
		}
		if maxPx, ok := inst.MaxPrice(); ok && o.TriggerPrice.Cmp(maxPx) > 0 {
			return deny(fmt.Sprintf("trigger price %s above maximum %s", o.TriggerPrice, maxPx))
		}
	}

	return events.OrderEvent{}, false
}
