package handler

import (
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
)

func NewVoteTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "voteTx", (*state.State).CastVote)
}
