package portfolio

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrMissingLeg          = errors.New("missing transaction leg")
	ErrUnexpectedLeg       = errors.New("leg not used by this transaction type")
	ErrUnexpectedWallet    = errors.New("wallet not used by this transaction type")
	ErrDuplicateAsset      = errors.New("asset already exists")
	ErrDuplicateWallet     = errors.New("wallet already exists")
	ErrInUse               = errors.New("referenced by the ledger")
	ErrQuoteAsset          = errors.New("operation not allowed on the quote asset")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCorrupt             = errors.New("stored state does not match the ledger replay")
)

// ValidationError reports why a transaction request was refused.
type ValidationError struct {
	Type TxType
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s transaction: %v", e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
