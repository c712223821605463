package game

import (
	"go.uber.org/zap"
)

// prepareRound reveals the next stage action space and restocks every
// accumulating space.
func (g *Game) prepareRound() {
	var muts []Mutation

	// Reveal one stage card
	if g.revealed < len(g.reveal) && g.reveal[g.revealed].Stage <= g.state.Stage() {
		def := g.reveal[g.revealed]
		muts = append(muts, Mutation{Op: OpConvert, At: def.At, Kind: KindAction})
		g.revealed++
		g.log.Info("action space revealed",
			zap.String("action", def.ID),
			zap.Int("round", g.state.Round()),
			zap.Int("stage", def.Stage),
		)
	}
	if err := g.actions.apply(muts); err != nil {
		g.log.Error("reveal failed", zap.Error(err))
	}

	// Restock accumulation spaces
	muts = muts[:0]
	for _, sp := range g.actions.View().Cells(KindAction) {
		def, ok := g.registry.Lookup(sp.Action)
		if !ok || !def.Accumulates() {
			continue
		}
		muts = append(muts, Mutation{Op: OpPutGoods, At: sp.At, Goods: def.Goods.Clone()})
	}
	if err := g.actions.apply(muts); err != nil {
		g.log.Error("restock failed", zap.Error(err))
	}
}

// returnHome clears every worker off the action board and forfeits every
// pending decision.
func (g *Game) returnHome() {
	var muts []Mutation
	for _, sp := range g.actions.View().Spaces {
		if len(sp.Workers) > 0 {
			muts = append(muts, Mutation{Op: OpVacate, At: sp.At})
		}
	}
	if err := g.actions.apply(muts); err != nil {
		g.log.Error("return home failed", zap.Error(err))
	}
	for _, p := range g.state.Players() {
		g.forfeit(p, g.queues[p].Clear(ExpireRound))
	}

	if g.rules.FeedingPolicy == FeedEveryRound && !g.rules.IsHarvestRound(g.state.Round()) {
		for _, p := range g.state.Players() {
			report := HarvestReport{Player: p}
			g.feed(p, &report)
			g.log.Info("family fed", zap.String("player", p), zap.Int("food_needed", report.FoodNeeded), zap.Int("begging", report.Begging))
		}
	}
}
