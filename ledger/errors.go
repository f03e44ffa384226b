package ledger

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrGoldPriceRequired   = errors.New("gold price required")
	ErrInstallmentNotFound = errors.New("installment not found")
)
