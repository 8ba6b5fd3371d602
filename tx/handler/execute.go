package handler

import (
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
)

func NewExecuteTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "executeTx", (*state.State).ExecuteProposal)
}

func NewCallbackTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "callbackTx", (*state.State).CompleteCall)
}
