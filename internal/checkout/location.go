package checkout

import "context"

// Locator resolves the device's current position to a postal address.
// It reports false when permission, position or geocoding is unavailable.
type Locator interface {
	CurrentAddress(ctx context.Context) (Address, bool)
}

type LocatorFunc func(ctx context.Context) (Address, bool)

func (f LocatorFunc) CurrentAddress(ctx context.Context) (Address, bool) {
	return f(ctx)
}

// FixedLocator always resolves to the same address.
type FixedLocator Address

func (l FixedLocator) CurrentAddress(context.Context) (Address, bool) {
	return Address(l), true
}
