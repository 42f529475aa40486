package monitor

import "strings"

// Watchlist is a case-insensitive set of source wallet addresses.
type Watchlist struct {
	wallets map[string]struct{}
}

// NewWatchlist builds a watchlist from the configured addresses.
func NewWatchlist(addresses []string) *Watchlist {
	wallets := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			wallets[a] = struct{}{}
		}
	}
	return &Watchlist{wallets: wallets}
}

// Contains reports whether the address is watched.
func (w *Watchlist) Contains(address string) bool {
	_, ok := w.wallets[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

// Len returns the number of watched wallets.
func (w *Watchlist) Len() int { return len(w.wallets) }

// Addresses returns the watched wallets in normalized form.
func (w *Watchlist) Addresses() []string {
	out := make([]string, 0, len(w.wallets))
	for a := range w.wallets {
		out = append(out, a)
	}
	return out
}
