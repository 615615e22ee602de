package instrument

// Category groups pairs by liquidity profile.
type Category string

const (
	CategoryG10 Category = "G10"
	CategoryEM  Category = "EM"
)

// Instrument describes one tradable pair. Records are immutable after load.
type Instrument struct {
	Symbol     string
	Base       string
	Quote      string
	Category   Category
	BaseRate   float64
	PipSize    float64
	SpreadPips float64
	Volatility float64
}

// Spread returns the quoted spread in price terms.
func (i Instrument) Spread() float64 {
	return i.SpreadPips * i.PipSize
}

// Universe is an ordered set of instruments with symbol lookup.
type Universe struct {
	list  []Instrument
	index map[string]int
}

// NewUniverse builds a universe preserving the given order. Duplicate symbols
// keep the first occurrence.
func NewUniverse(list []Instrument) Universe {
	u := Universe{
		list:  make([]Instrument, 0, len(list)),
		index: make(map[string]int, len(list)),
	}
	for _, inst := range list {
		if _, ok := u.index[inst.Symbol]; ok {
			continue
		}
		u.index[inst.Symbol] = len(u.list)
		u.list = append(u.list, inst)
	}
	return u
}

// Lookup returns the instrument for the symbol.
func (u Universe) Lookup(symbol string) (Instrument, bool) {
	idx, ok := u.index[symbol]
	if !ok {
		return Instrument{}, false
	}
	return u.list[idx], true
}

// At returns the instrument at position i.
func (u Universe) At(i int) Instrument {
	return u.list[i]
}

// Len returns the number of instruments.
func (u Universe) Len() int {
	return len(u.list)
}

// All returns a copy of the instrument list.
func (u Universe) All() []Instrument {
	out := make([]Instrument, len(u.list))
	copy(out, u.list)
	return out
}

// Symbols returns the symbols in universe order.
func (u Universe) Symbols() []string {
	out := make([]string, 0, len(u.list))
	for _, inst := range u.list {
		out = append(out, inst.Symbol)
	}
	return out
}

// Filter returns the instruments in the given category.
func (u Universe) Filter(c Category) []Instrument {
	var out []Instrument
	for _, inst := range u.list {
		if inst.Category == c {
			out = append(out, inst)
		}
	}
	return out
}

// Default returns the built-in trading universe.
func Default() Universe {
	return NewUniverse([]Instrument{
		{Symbol: "EUR/USD", Base: "EUR", Quote: "USD", Category: CategoryG10, BaseRate: 1.0842, PipSize: 0.0001, SpreadPips: 1.2, Volatility: 0.0003},
		{Symbol: "GBP/USD", Base: "GBP", Quote: "USD", Category: CategoryG10, BaseRate: 1.2631, PipSize: 0.0001, SpreadPips: 1.5, Volatility: 0.0004},
		{Symbol: "USD/JPY", Base: "USD", Quote: "JPY", Category: CategoryG10, BaseRate: 149.52, PipSize: 0.01, SpreadPips: 1.3, Volatility: 0.05},
		{Symbol: "USD/CHF", Base: "USD", Quote: "CHF", Category: CategoryG10, BaseRate: 0.8765, PipSize: 0.0001, SpreadPips: 1.4, Volatility: 0.0003},
		{Symbol: "AUD/USD", Base: "AUD", Quote: "USD", Category: CategoryG10, BaseRate: 0.6543, PipSize: 0.0001, SpreadPips: 1.6, Volatility: 0.0004},
		{Symbol: "USD/CAD", Base: "USD", Quote: "CAD", Category: CategoryG10, BaseRate: 1.3587, PipSize: 0.0001, SpreadPips: 1.5, Volatility: 0.0003},
		{Symbol: "NZD/USD", Base: "NZD", Quote: "USD", Category: CategoryG10, BaseRate: 0.6098, PipSize: 0.0001, SpreadPips: 1.8, Volatility: 0.0005},
		{Symbol: "EUR/GBP", Base: "EUR", Quote: "GBP", Category: CategoryG10, BaseRate: 0.8584, PipSize: 0.0001, SpreadPips: 1.3, Volatility: 0.0003},
		{Symbol: "USD/MXN", Base: "USD", Quote: "MXN", Category: CategoryEM, BaseRate: 17.15, PipSize: 0.001, SpreadPips: 30, Volatility: 0.02},
		{Symbol: "USD/ZAR", Base: "USD", Quote: "ZAR", Category: CategoryEM, BaseRate: 18.45, PipSize: 0.001, SpreadPips: 50, Volatility: 0.03},
		{Symbol: "USD/TRY", Base: "USD", Quote: "TRY", Category: CategoryEM, BaseRate: 32.18, PipSize: 0.001, SpreadPips: 80, Volatility: 0.05},
		{Symbol: "USD/NGN", Base: "USD", Quote: "NGN", Category: CategoryEM, BaseRate: 1520.0, PipSize: 0.1, SpreadPips: 200, Volatility: 2.0},
		{Symbol: "USD/BRL", Base: "USD", Quote: "BRL", Category: CategoryEM, BaseRate: 4.97, PipSize: 0.0001, SpreadPips: 25, Volatility: 0.005},
	})
}
