package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown      GovTxType = 0
	GovTxTypePropose      GovTxType = 1
	GovTxTypeCounter      GovTxType = 2
	GovTxTypeVote         GovTxType = 3
	GovTxTypeWithdraw     GovTxType = 4
	GovTxTypeAmend        GovTxType = 5
	GovTxTypeFinalize     GovTxType = 6
	GovTxTypeExecute      GovTxType = 7
	GovTxTypeCallback     GovTxType = 8
	GovTxTypeBountyClaim  GovTxType = 9
	GovTxTypeBountyDone   GovTxType = 10
	GovTxTypeBountyGiveup GovTxType = 11
)

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
	ErrUnmatchedTxType   = errors.New("unmatched tx type")

	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
