package game

import (
	"go.uber.org/zap"

	"homestead/internal/goods"
)

// HarvestReport records what one player's harvest produced and cost.
type HarvestReport struct {
	Player     string      `json:"player"`
	Crops      goods.Goods `json:"crops,omitempty"`
	FoodNeeded int         `json:"foodNeeded"`
	FoodPaid   int         `json:"foodPaid"`
	Converted  goods.Goods `json:"converted,omitempty"`
	Begging    int         `json:"begging,omitempty"`
	Born       goods.Goods `json:"born,omitempty"`
}

// LastHarvest returns the reports of the most recent harvest.
func (g *Game) LastHarvest() []HarvestReport {
	return append([]HarvestReport(nil), g.lastHarvest...)
}

// harvest runs the field, feeding and breeding phases for every player.
func (g *Game) harvest() {
	reports := make([]HarvestReport, 0, len(g.farms))
	for _, p := range g.state.Players() {
		report := HarvestReport{Player: p}
		g.reapFields(p, &report)
		g.feed(p, &report)
		g.breed(p, &report)
		reports = append(reports, report)

		g.log.Info("harvest",
			zap.String("player", p),
			zap.String("crops", report.Crops.String()),
			zap.Int("food_needed", report.FoodNeeded),
			zap.Int("begging", report.Begging),
			zap.String("born", report.Born.String()),
		)
		g.record(EventHarvest, p, "harvest", map[string]any{
			"crops": report.Crops, "foodNeeded": report.FoodNeeded, "begging": report.Begging, "born": report.Born,
		})
	}
	g.lastHarvest = reports
}

// reapFields takes one crop from every sown field.
func (g *Game) reapFields(player string, report *HarvestReport) {
	farm := g.farms[player]
	var muts []Mutation
	crops := goods.Goods{}
	for _, f := range farm.View().Cells(KindField) {
		for _, crop := range f.Goods.Kinds() {
			muts = append(muts, Mutation{Op: OpTakeGoods, At: f.At, Goods: goods.Goods{crop: 1}})
			crops[crop]++
		}
	}
	if err := farm.apply(muts); err != nil {
		g.log.Error("field phase failed", zap.String("player", player), zap.Error(err))
		return
	}
	grantAll(g.supply, player, crops)
	report.Crops = crops
}

// feed charges food for the family. Raw grain and vegetables cover a
// shortfall one for one; whatever is still missing becomes begging markers.
func (g *Game) feed(player string, report *HarvestReport) {
	_, total := g.state.Workers(player)
	newborns := g.state.Newborns(player)
	adults := total - newborns
	need := adults*g.rules.FoodPerAdultFor(len(g.farms)) + newborns*g.rules.FoodPerNewborn
	report.FoodNeeded = need

	pay := min(need, g.supply.Count(player, goods.Food))
	if pay > 0 {
		if err := g.supply.Spend(player, goods.Goods{goods.Food: pay}); err != nil {
			g.log.Error("food payment failed", zap.String("player", player), zap.Error(err))
			pay = 0
		}
	}
	report.FoodPaid = pay
	short := need - pay

	report.Converted = goods.Goods{}
	for _, crop := range []goods.Good{goods.Grain, goods.Vegetable} {
		if short == 0 {
			break
		}
		use := min(short, g.supply.Count(player, crop))
		if use == 0 {
			continue
		}
		if err := g.supply.Spend(player, goods.Goods{crop: use}); err != nil {
			g.log.Error("crop conversion failed", zap.String("player", player), zap.Stringer("crop", crop), zap.Error(err))
			continue
		}
		report.Converted[crop] = use
		short -= use
	}

	if short > 0 {
		g.supply.Grant(player, goods.Begging, short)
		report.Begging = short
	}
}

// breed adds one young animal of every kind the player holds at least two of,
// as long as the farm has room for it.
func (g *Game) breed(player string, report *HarvestReport) {
	capacity := g.farms[player].View().AnimalCapacity()
	held := 0
	for _, a := range goods.Animals {
		held += g.supply.Count(player, a)
	}

	report.Born = goods.Goods{}
	for _, a := range goods.Animals {
		if g.supply.Count(player, a) >= 2 && held < capacity {
			g.supply.Grant(player, a, 1)
			report.Born[a] = 1
			held++
		}
	}
}
