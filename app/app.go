package app

import (
	"context"
	"encoding/json"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"

	"github.com/opencordis/cordis/config"
	"github.com/opencordis/cordis/state"
	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/tx/handler"
	"github.com/opencordis/cordis/types"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &CordisApp{}

// CordisApp is the ABCI application: the governance engine behind a
// cometbft node. Every mutating operation arrives as a signed transaction
// and is serialized through FinalizeBlock.
type CordisApp struct {
	cfg    *config.CordisAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewCordisApp(cfg *config.CordisAppConfig, logger cmtlog.Logger) (app *CordisApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}

	app = &CordisApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.GovTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *CordisApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *CordisApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("cordis app stopped")
}

func (app *CordisApp) StateDB() *state.StateDB {
	return app.db
}

func (app *CordisApp) registerTxHandler() {
	app.txHdlrs = map[tx.GovTxType]handler.TxHandler{
		tx.GovTxTypePropose:      handler.NewProposeTxHandler(app.logger),
		tx.GovTxTypeCounter:      handler.NewCounterProposeTxHandler(app.logger),
		tx.GovTxTypeVote:         handler.NewVoteTxHandler(app.logger),
		tx.GovTxTypeWithdraw:     handler.NewWithdrawTxHandler(app.logger),
		tx.GovTxTypeAmend:        handler.NewAmendTxHandler(app.logger),
		tx.GovTxTypeFinalize:     handler.NewFinalizeTxHandler(app.logger),
		tx.GovTxTypeExecute:      handler.NewExecuteTxHandler(app.logger),
		tx.GovTxTypeCallback:     handler.NewCallbackTxHandler(app.logger),
		tx.GovTxTypeBountyClaim:  handler.NewBountyClaimTxHandler(app.logger),
		tx.GovTxTypeBountyDone:   handler.NewBountyDoneTxHandler(app.logger),
		tx.GovTxTypeBountyGiveup: handler.NewBountyGiveupTxHandler(app.logger),
	}
}

func (app *CordisApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/policy/"] = NewPolicyQuerier(app.db, app.logger)
	app.queriers["/config/"] = NewConfigQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/bounties/"] = NewBountyQuerier(app.db, app.logger)
}

func (app *CordisApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlockTime(chain.Time.Unix())

	var appState types.AppState
	if len(chain.AppStateBytes) != 0 {
		if err = json.Unmarshal(chain.AppStateBytes, &appState); err != nil {
			app.logger.Error("InitChain parse app state fail", "err", err)
			return nil, err
		}
	}
	if len(appState.Accounts) == 0 {
		for _, v := range chain.Validators {
			appState.Accounts = append(appState.Accounts, types.GenesisAccount{
				PubKey:  v.PubKey.GetEd25519(),
				Balance: uint64(v.Power) * config.TokensPerPower(0),
			})
		}
	}
	if err = st.InitGenesis(&appState); err != nil {
		app.logger.Error("InitChain genesis fail", "err", err)
		return nil, err
	}

	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *CordisApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *CordisApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *CordisApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{}, nil
}

func (app *CordisApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return nil, nil
}

func (app *CordisApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return nil, nil
}

func (app *CordisApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return nil, nil
}

func (app *CordisApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return nil, nil
}
