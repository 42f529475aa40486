package trader

import "strings"

// orderErrorKind classifies an order rejection so the fallback ladder
// knows whether a smaller order could still succeed.
type orderErrorKind int

const (
	// errorUnknown rejections are treated as terminal.
	errorUnknown orderErrorKind = iota
	// errorLiquidity rejections mean the book could not fill this size;
	// a smaller order may go through.
	errorLiquidity
	// errorAccount rejections mean the account cannot fund any size.
	errorAccount
)

func (k orderErrorKind) String() string {
	switch k {
	case errorLiquidity:
		return "liquidity"
	case errorAccount:
		return "account"
	default:
		return "unknown"
	}
}

// classifyOrderError buckets an exchange rejection by its message text.
// The CLOB reports funding problems with "not enough balance / allowance"
// and unfillable marketable orders with "order couldn't be fully filled"
// or a FOK/FAK match failure.
func classifyOrderError(msg string) orderErrorKind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "insufficient"),
		strings.Contains(m, "not enough balance"),
		strings.Contains(m, "allowance"):
		return errorAccount
	case strings.Contains(m, "fully filled"),
		strings.Contains(m, "fok"),
		strings.Contains(m, "fak"),
		strings.Contains(m, "liquidity"),
		strings.Contains(m, "no match"):
		return errorLiquidity
	default:
		return errorUnknown
	}
}
