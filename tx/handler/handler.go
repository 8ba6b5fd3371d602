package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
	"github.com/opencordis/cordis/tx"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}

// applyFunc runs one typed transaction against the state, either as a dry
// run (checkOnly) or for real.
type applyFunc[Tx any] func(st *state.State, ptx *Tx, sender string, checkOnly bool) ([]abcitypes.Event, error)

// govTxHandler is the common handler shape: a dry-run Check, a per-block
// sender set enforcing one action of this type per sender per block, and an
// identical Prepare and Process path.
type govTxHandler[Tx any] struct {
	logger cmtlog.Logger
	name   string
	apply  applyFunc[Tx]

	senderSet map[string]bool
}

func newGovTxHandler[Tx any](logger cmtlog.Logger, name string, apply applyFunc[Tx]) *govTxHandler[Tx] {
	return &govTxHandler[Tx]{
		logger:    logger.With("module", name),
		name:      name,
		apply:     apply,
		senderSet: make(map[string]bool),
	}
}

func (h *govTxHandler[Tx]) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	stx, ok := btx.Tx.(*Tx)
	if !ok {
		res.Code = 1
		res.Log = tx.ErrUnmatchedTxType.Error()
		return
	}
	if _, err1 := h.apply(st, stx, btx.Sender, true); err1 != nil {
		h.logger.Info("CheckTx fail", "type", h.name, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *govTxHandler[Tx]) NewContext(ctx context.Context) {
	h.senderSet = make(map[string]bool)
}

func (h *govTxHandler[Tx]) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.senderSet[btx.Sender]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	stx, ok := btx.Tx.(*Tx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	events, err := h.apply(st, stx, btx.Sender, false)
	if err != nil {
		return nil, err
	}
	h.senderSet[btx.Sender] = true
	res = &abcitypes.ExecTxResult{Events: events}
	return
}

func (h *govTxHandler[Tx]) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *govTxHandler[Tx]) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
