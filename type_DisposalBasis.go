package portfolio

import "fmt"

// DisposalBasis selects how the cost of a position is reduced when part of it leaves.
type DisposalBasis int

const (
	// AverageCost reduces the cost basis by the position average cost per unit,
	// so the cost per unit of the remainder is unchanged.
	AverageCost DisposalBasis = iota
	// OpenPrice reduces the cost basis by the price recorded when the position was opened.
	OpenPrice
)

func (b DisposalBasis) String() string {
	switch b {
	case AverageCost:
		return "average"
	case OpenPrice:
		return "open-price"
	default:
		return "unknown"
	}
}

// ParseDisposalBasis parses a string into a DisposalBasis.
func ParseDisposalBasis(s string) (DisposalBasis, error) {
	switch s {
	case "average":
		return AverageCost, nil
	case "open-price":
		return OpenPrice, nil
	default:
		return 0, fmt.Errorf("unknown disposal basis: %q", s)
	}
}

// TransferPolicy selects what replaying an internal transfer does to wallets.
type TransferPolicy int

const (
	// TransferIgnore records the transfer and its fee but leaves wallets untouched.
	TransferIgnore TransferPolicy = iota
	// TransferMove moves the sent quantity, with its average cost, from origin to destination.
	TransferMove
)

func (p TransferPolicy) String() string {
	switch p {
	case TransferIgnore:
		return "ignore"
	case TransferMove:
		return "move"
	default:
		return "unknown"
	}
}

// ParseTransferPolicy parses a string into a TransferPolicy.
func ParseTransferPolicy(s string) (TransferPolicy, error) {
	switch s {
	case "ignore":
		return TransferIgnore, nil
	case "move":
		return TransferMove, nil
	default:
		return 0, fmt.Errorf("unknown internal transfer policy: %q", s)
	}
}
