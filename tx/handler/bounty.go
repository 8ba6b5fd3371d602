package handler

import (
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
)

func NewBountyClaimTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "bountyClaimTx", (*state.State).ClaimBounty)
}

func NewBountyDoneTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "bountyDoneTx", (*state.State).DoneBounty)
}

func NewBountyGiveupTxHandler(logger cmtlog.Logger) TxHandler {
	return newGovTxHandler(logger, "bountyGiveupTx", (*state.State).GiveupBounty)
}
