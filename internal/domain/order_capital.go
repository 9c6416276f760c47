package domain

import "fmt"

type capitalKind uint8

const (
	capitalUnset capitalKind = iota
	capitalAsset
	capitalCurrency
	capitalBalance
)

func (k capitalKind) String() string {
	switch k {
	case capitalAsset:
		return "asset"
	case capitalCurrency:
		return "currency"
	case capitalBalance:
		return "balance"
	default:
		return "unset"
	}
}

// OrderCapital describes how much to trade: an asset quantity, an amount in
// the quote currency or a percentage of the tradable balance. The zero value
// carries no variant and is invalid.
type OrderCapital struct {
	kind   capitalKind
	amount float64
}

// NewAssetCapital trades a fixed quantity of the base asset.
func NewAssetCapital(amount float64) OrderCapital {
	return OrderCapital{kind: capitalAsset, amount: amount}
}

// NewCurrencyCapital trades a fixed amount of the quote currency.
func NewCurrencyCapital(amount float64) OrderCapital {
	return OrderCapital{kind: capitalCurrency, amount: amount}
}

// NewBalanceCapital trades a percentage of the tradable balance.
func NewBalanceCapital(percent float64) OrderCapital {
	return OrderCapital{kind: capitalBalance, amount: percent}
}

// ParseOrderCapital builds a capital from its config name.
func ParseOrderCapital(kind string, amount float64) (OrderCapital, error) {
	switch kind {
	case "asset":
		return NewAssetCapital(amount), nil
	case "currency":
		return NewCurrencyCapital(amount), nil
	case "balance":
		return NewBalanceCapital(amount), nil
	}
	return OrderCapital{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCapital, kind)
}

// Amount returns the numeric amount of whichever variant is set.
func (c OrderCapital) Amount() (float64, error) {
	switch c.kind {
	case capitalAsset, capitalCurrency, capitalBalance:
		return c.amount, nil
	}
	return 0, fmt.Errorf("%w: no variant set", ErrInvalidCapital)
}

func (c OrderCapital) Asset() (float64, bool)    { return c.amount, c.kind == capitalAsset }
func (c OrderCapital) Currency() (float64, bool) { return c.amount, c.kind == capitalCurrency }
func (c OrderCapital) Balance() (float64, bool)  { return c.amount, c.kind == capitalBalance }

// Kind names the variant: asset, currency, balance or unset.
func (c OrderCapital) Kind() string { return c.kind.String() }

// IsValid reports whether a variant is set.
func (c OrderCapital) IsValid() bool { return c.kind != capitalUnset }
