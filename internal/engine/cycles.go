package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"krx-trader/internal/models"
	"krx-trader/internal/strategy"
)

func (e *Engine) buyLoop(stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.BuyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.Running() {
				return
			}
			e.runBuyScan(context.Background())
		}
	}
}

func (e *Engine) sellLoop(stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.SellInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.Running() {
				return
			}
			e.runSellCheck(context.Background())
		}
	}
}

// runBuyScan performs one buy-scan iteration: fetch candidates, stop at
// the position capacity, evaluate strategies in priority order, and
// submit a market buy for the first matching strategy per candidate.
func (e *Engine) runBuyScan(ctx context.Context) {
	snaps, err := e.broker.FetchCandidates(ctx, e.cfg.Market)
	if err != nil {
		e.store.AppendLog(models.LogCategoryInfo, fmt.Sprintf("candidate fetch failed: %v", err))
		e.logger.Warn().Err(err).Msg("candidate fetch failed")
		return
	}

	cfg := e.strategyConfig()
	now := e.now()

	for _, snap := range snaps {
		if e.store.PositionCount() >= e.cfg.MaxConcurrentPositions {
			return
		}
		if _, held := e.store.GetPosition(snap.Code); held {
			continue
		}

		kind, eligible := strategy.EvaluateBuy(cfg, snap, now)
		if !eligible {
			continue
		}

		e.store.AddCandidate(models.Candidate{
			Code:          snap.Code,
			Name:          snap.Name,
			Price:         snap.Price,
			ChangePercent: snap.ChangePercent,
			Volume:        snap.Volume,
			Strategy:      string(kind),
			DetectedAt:    now,
		})

		e.executeBuy(ctx, snap, kind)
	}
}

func (e *Engine) executeBuy(ctx context.Context, snap models.Snapshot, kind strategy.Kind) {
	if snap.Price <= 0 {
		return
	}
	qty := int64(math.Floor(e.cfg.AllocationPerInstrument / snap.Price))
	if qty <= 0 {
		e.logger.Debug().Str("code", snap.Code).Float64("price", snap.Price).
			Msg("allocation below one share, skipping")
		return
	}

	order := &models.Order{
		Code:     snap.Code,
		Name:     snap.Name,
		Side:     models.OrderSideBuy,
		Type:     models.OrderTypeMarket,
		Quantity: qty,
		Price:    snap.Price,
		Tag:      string(kind),
	}

	result, err := e.broker.SubmitOrder(ctx, order)
	if err != nil {
		e.recordAttempt(false)
		e.store.AppendLog(models.LogCategoryInfo,
			fmt.Sprintf("buy %s(%s) failed: %v", snap.Name, snap.Code, err))
		return
	}
	if !result.Filled {
		e.recordAttempt(false)
		e.store.AppendLog(models.LogCategoryInfo,
			fmt.Sprintf("buy %s(%s) rejected: %s", snap.Name, snap.Code, result.Message))
		return
	}

	e.recordAttempt(true)
	e.store.UpsertPosition(models.Position{
		Code:         snap.Code,
		Name:         snap.Name,
		Quantity:     qty,
		AvgCost:      snap.Price,
		CurrentPrice: snap.Price,
		HighestPrice: snap.Price,
		AcquiredAt:   e.now(),
		Strategy:     string(kind),
	})
	e.store.AppendLog(models.LogCategoryBuy,
		fmt.Sprintf("bought %s(%s) x%d @ %.0f [%s]", snap.Name, snap.Code, qty, snap.Price, kind))

	if e.session != nil {
		if err := e.session.Subscribe(snap.Code); err != nil {
			e.logger.Debug().Err(err).Str("code", snap.Code).Msg("tick subscription skipped")
		}
	}
}

// runSellCheck performs one sell-check iteration over every held
// position in the store's current iteration order. Order submission for
// one position does not block evaluation of the next.
func (e *Engine) runSellCheck(ctx context.Context) {
	cfg := e.strategyConfig()
	if cfg == nil {
		return
	}

	for _, pos := range e.store.Positions() {
		quote, err := e.broker.FetchQuote(ctx, pos.Code)
		if err != nil {
			e.store.AppendLog(models.LogCategoryInfo,
				fmt.Sprintf("quote %s(%s) failed: %v", pos.Name, pos.Code, err))
			continue
		}
		if quote.Price > 0 {
			e.store.RefreshPrice(pos.Code, quote.Price)
			pos.UpdatePrice(quote.Price)
		}

		reason, sell := strategy.EvaluateSell(cfg.Sell, pos)
		if !sell {
			continue
		}
		if !e.beginSell(pos.Code) {
			continue
		}

		p := pos
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			defer e.endSell(p.Code)
			e.executeSell(ctx, p, reason)
		}()
	}
}

func (e *Engine) executeSell(ctx context.Context, pos models.Position, reason strategy.SellReason) {
	order := &models.Order{
		Code:     pos.Code,
		Name:     pos.Name,
		Side:     models.OrderSideSell,
		Type:     models.OrderTypeMarket,
		Quantity: pos.Quantity,
		Price:    pos.CurrentPrice,
		Tag:      string(reason),
	}

	result, err := e.broker.SubmitOrder(ctx, order)
	if err != nil {
		e.recordAttempt(false)
		e.store.AppendLog(models.LogCategoryInfo,
			fmt.Sprintf("sell %s(%s) failed: %v", pos.Name, pos.Code, err))
		return
	}
	if !result.Filled {
		e.recordAttempt(false)
		e.store.AppendLog(models.LogCategoryInfo,
			fmt.Sprintf("sell %s(%s) rejected: %s", pos.Name, pos.Code, result.Message))
		return
	}

	e.recordAttempt(true)
	e.recordProfit(pos.Profit)
	e.store.RemovePosition(pos.Code)
	e.store.AppendLog(models.LogCategorySell,
		fmt.Sprintf("sold %s(%s) x%d @ %.0f (%+.2f%%) [%s]",
			pos.Name, pos.Code, pos.Quantity, pos.CurrentPrice, pos.ProfitPercent, reason))

	if e.journal != nil {
		record := &models.TradeRecord{
			Code:          pos.Code,
			Name:          pos.Name,
			Quantity:      pos.Quantity,
			BuyPrice:      pos.AvgCost,
			SellPrice:     pos.CurrentPrice,
			Profit:        pos.Profit,
			ProfitPercent: pos.ProfitPercent,
			Strategy:      pos.Strategy,
			OpenedAt:      pos.AcquiredAt,
			ClosedAt:      e.now(),
		}
		if err := e.journal.Record(ctx, record); err != nil {
			e.logger.Warn().Err(err).Str("code", pos.Code).Msg("journal write failed")
		}
	}
}
