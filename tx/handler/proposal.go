package handler

import (
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
)

func NewProposeTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "proposeTx", (*state.State).Propose)
}

func NewCounterProposeTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "counterTx", (*state.State).CounterPropose)
}

func NewWithdrawTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "withdrawTx", (*state.State).Withdraw)
}

func NewAmendTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "amendTx", (*state.State).Amend)
}

func NewFinalizeTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "finalizeTx", (*state.State).Finalize)
}
