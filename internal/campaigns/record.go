package campaigns

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wb-sheets-sync/pkg/marketplace"
)

// ID is a campaign identifier in canonical decimal string form.
type ID = marketplace.ID

const zeroPercent = "0.00%"

var hundred = decimal.NewFromInt(100)

// Record holds one campaign's statistics for a single day plus the derived
// values written to the sheet.
type Record struct {
	CampaignID ID
	Date       string
	Views      int64
	Clicks     int64
	Atbs       int64
	Orders     int64
	ClicksCart string
	CartOrder  string
	Revenue    string
}

// Derive builds a record from raw counters. Ratios are zero-guarded and
// revenue is the raw upstream sum prefixed with currency.
func Derive(stats marketplace.FullStats, date, currency string) Record {
	return Record{
		CampaignID: stats.AdvertID,
		Date:       date,
		Views:      stats.Views,
		Clicks:     stats.Clicks,
		Atbs:       stats.Atbs,
		Orders:     stats.Orders,
		ClicksCart: Percent(stats.Atbs, stats.Clicks),
		CartOrder:  Percent(stats.Orders, stats.Atbs),
		Revenue:    currency + decimal.NewFromFloat(stats.SumPrice).String(),
	}
}

// Percent renders part/whole*100 with two decimals and a trailing "%".
// A zero or negative whole yields "0.00%".
func Percent(part, whole int64) string {
	if whole <= 0 {
		return zeroPercent
	}
	ratio := decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole))
	return ratio.StringFixed(2) + "%"
}
