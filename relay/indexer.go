package relay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/cometbft/cometbft/store"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	appconfig "github.com/opencordis/cordis/config"
	"github.com/opencordis/cordis/crypto"
	"github.com/opencordis/cordis/state"
	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

// ChainIndexer tails the node's blocks, mirrors governance events into a
// sqlite index and completes suspended external calls by submitting signed
// callback transactions.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
	caller        Caller
	BlockStore    *store.BlockStore
	appConfig     *appconfig.Config
	pv            *crypto.PV
	localAddress  string
	ChainId       string
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, bs *store.BlockStore, appConfig *appconfig.Config, caller Caller) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Proposal{}, &Version{}, &Vote{}, &BountyEvent{}, &ExternalCall{}, &Execution{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pv, err := crypto.LoadFilePV(appConfig.PrivValidatorKeyFile())
	if err != nil {
		return nil, err
	}
	localAddress := pv.Address()

	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		logger.Error("get genesis fail", "err", err)
		return nil, err
	}
	chainId := gres.Genesis.ChainID

	c := ChainIndexer{
		logger:        logger.With("module", "relay"),
		Url:           chainUrl,
		Height:        int64(h.Height + 1),
		db:            db,
		cli:           cli,
		eventHandlers: map[string]eventHandler{},
		caller:        caller,
		BlockStore:    bs,
		appConfig:     appConfig,
		pv:            pv,
		localAddress:  localAddress,
		ChainId:       chainId,
	}

	c.eventHandlers = map[string]eventHandler{
		types.EventProposalType:     c.handleEventProposal,
		types.EventVersionType:      c.handleEventVersion,
		types.EventVoteType:         c.handleEventVote,
		types.EventResolutionType:   c.handleEventResolution,
		types.EventExternalCallType: c.handleEventExternalCall,
		types.EventExecutionType:    c.handleEventExecution,
		types.EventBountyType:       c.handleEventBounty,
	}
	return &c, nil
}

type eventHandler func(ctx context.Context, event abci.Event, height int64)

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) {
	if handler, ok := c.eventHandlers[event.Type]; ok {
		handler(ctx, event, height)
	}
}

func (c *ChainIndexer) handleEventProposal(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposal(event)
	if ev == nil {
		c.logger.Error("decode proposal event fail", "height", height)
		return
	}
	c.logger.Info("handleEventProposal", "height", height, "proposal", ev.Proposal)
	proposal := Proposal{
		Id:              ev.Proposal,
		Kind:            ev.Kind,
		ProposerAddress: ev.ProposerAddress,
		Status:          ev.Status,
		Height:          uint64(height),
		CreateTimestamp: time.Now().Unix(),
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
	version := Version{
		Proposal:        ev.Proposal,
		Version:         0,
		ProposerAddress: ev.ProposerAddress,
		Height:          uint64(height),
	}
	if err := c.db.Create(&version).Error; err != nil {
		c.logger.Error("save version fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventVersion(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventVersion(event)
	if ev == nil {
		c.logger.Error("decode version event fail", "height", height)
		return
	}
	version := Version{
		Proposal:        ev.Proposal,
		Version:         ev.Version,
		ProposerAddress: ev.ProposerAddress,
		Height:          uint64(height),
	}
	if err := c.db.Create(&version).Error; err != nil {
		c.logger.Error("save version fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventVote(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode vote event fail", "height", height)
		return
	}
	// repeat voting replaces the voter's previous ballot
	if err := c.db.Where("proposal = ? AND voter_address = ?", ev.Proposal, ev.VoterAddress).Delete(&Vote{}).Error; err != nil {
		c.logger.Error("drop stale vote fail", "err", err)
	}
	vote := Vote{
		Proposal:     ev.Proposal,
		VoterAddress: ev.VoterAddress,
		Kind:         ev.Kind,
		Version:      ev.Version,
		Weight:       ev.Weight,
		Height:       uint64(height),
	}
	if err := c.db.Create(&vote).Error; err != nil {
		c.logger.Error("save vote fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventResolution(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventResolution(event)
	if ev == nil {
		c.logger.Error("decode resolution event fail", "height", height)
		return
	}
	proposal, err := c.getProposalById(ev.Proposal)
	if err != nil {
		c.logger.Error("get proposal fail", "proposal", ev.Proposal, "err", err)
		return
	}
	proposal.Status = ev.Status
	proposal.ApprovedVersion = ev.Version
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventExternalCall(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventExternalCall(event)
	if ev == nil {
		c.logger.Error("decode external call event fail", "height", height)
		return
	}
	c.logger.Info("handleEventExternalCall", "proposal", ev.Proposal, "seq", ev.Seq, "receiver", ev.Receiver)
	c.setProposalStatus(ev.Proposal, uint64(types.ProposalStatusExecuting))
	calls, _ := json.Marshal(ev.Calls)
	call := ExternalCall{
		Proposal: ev.Proposal,
		Seq:      ev.Seq,
		Receiver: ev.Receiver,
		Calls:    string(calls),
		Height:   uint64(height),
	}
	if err := c.db.Create(&call).Error; err != nil {
		c.logger.Error("save external call fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventExecution(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventExecution(event)
	if ev == nil {
		c.logger.Error("decode execution event fail", "height", height)
		return
	}
	exec := Execution{
		Proposal: ev.Proposal,
		Version:  ev.Version,
		Success:  ev.Success,
		Detail:   ev.Detail,
		Height:   uint64(height),
	}
	if err := c.db.Create(&exec).Error; err != nil {
		c.logger.Error("save execution fail", "err", err)
	}
	status := uint64(types.ProposalStatusExecuted)
	if !ev.Success {
		status = uint64(types.ProposalStatusFailedExecution)
	}
	c.setProposalStatus(ev.Proposal, status)
}

func (c *ChainIndexer) handleEventBounty(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventBounty(event)
	if ev == nil {
		c.logger.Error("decode bounty event fail", "height", height)
		return
	}
	be := BountyEvent{
		Bounty:  ev.Bounty,
		Account: ev.Account,
		Change:  ev.Change,
		Height:  uint64(height),
	}
	if err := c.db.Create(&be).Error; err != nil {
		c.logger.Error("save bounty event fail", "err", err)
	}
}

func (c *ChainIndexer) setProposalStatus(proposalId uint64, status uint64) {
	proposal, err := c.getProposalById(proposalId)
	if err != nil {
		c.logger.Error("get proposal fail", "proposal", proposalId, "err", err)
		return
	}
	proposal.Status = status
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) Start(ctx context.Context) {
	var err error
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.cli == nil {
				c.cli, err = comethttp.New(c.Url, "/websocket")
				if err != nil {
					c.logger.Error("connect fail", "err", err)
					continue
				}
			}
			b, err := c.cli.Status(context.TODO())
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				if !c.cli.IsRunning() {
					c.cli.Stop()
					c.cli, err = comethttp.New(c.Url, "/websocket")
					if err != nil {
						c.logger.Error("reconnect fail", "err", err)
						continue
					}
				}
				continue
			}
			for b.SyncInfo.LatestBlockHeight > c.Height {
				events, err := c.cli.BlockResults(ctx, &c.Height)
				if err != nil {
					c.logger.Error("get block results fail", "height", c.Height, "err", err)
					if !c.cli.IsRunning() {
						c.cli.Stop()
						c.cli, err = comethttp.New(c.Url, "/websocket")
						if err != nil {
							c.logger.Error("reconnect fail", "err", err)
						}
					}
					break
				}
				for _, res := range events.TxsResults {
					for _, event := range res.Events {
						c.handleEvent(ctx, event, c.Height)
					}
				}
				if err := c.db.Save(Height{
					Id:     1,
					Height: uint64(c.Height),
				}).Error; err != nil {
					c.logger.Error("save height fail", "err", err)
					break
				}
				c.Height++
			}
			c.dispatchCalls(ctx)
		}
	}
}

// dispatchCalls performs every pending external call and reports the
// outcome in a callback transaction. Calls stay pending when the broadcast
// fails so the next tick retries them.
func (c *ChainIndexer) dispatchCalls(ctx context.Context) {
	var pending []ExternalCall
	if err := c.db.Where("done = ?", false).Order("id asc").Find(&pending).Error; err != nil {
		c.logger.Error("get pending calls fail", "err", err)
		return
	}
	for _, call := range pending {
		var calls []types.CallAction
		if err := json.Unmarshal([]byte(call.Calls), &calls); err != nil {
			c.logger.Error("decode calls fail", "proposal", call.Proposal, "err", err)
			continue
		}
		succ := true
		var result []byte
		var err error
		for _, action := range calls {
			result, err = c.caller.Call(ctx, call.Receiver, action)
			if err != nil {
				c.logger.Error("external call fail", "proposal", call.Proposal, "method", action.Method, "err", err)
				succ = false
				break
			}
		}
		if err := c.broadcastCallback(ctx, call.Proposal, call.Seq, succ, result); err != nil {
			c.logger.Error("broadcast callback fail", "proposal", call.Proposal, "err", err)
			continue
		}
		call.Done = true
		call.Success = succ
		if err := c.db.Save(&call).Error; err != nil {
			c.logger.Error("save external call fail", "err", err)
		}
		c.logger.Info("external call completed", "proposal", call.Proposal, "seq", call.Seq, "success", succ)
	}
}

func (c *ChainIndexer) broadcastCallback(ctx context.Context, proposal uint64, seq uint64, succ bool, result []byte) error {
	act, err := c.queryAccount(ctx, c.localAddress)
	if err != nil {
		return err
	}
	btx := tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeCallback,
		Nonce:   act.Nonce,
		Sender:  c.localAddress,
		Tx: &tx.CallbackTx{
			Proposal: proposal,
			Seq:      seq,
			Success:  succ,
			Result:   result,
		},
	}
	dat, err := btx.SigData([]byte(c.ChainId))
	if err != nil {
		return err
	}
	sig, err := c.pv.Sign(dat)
	if err != nil {
		return err
	}
	btx.Sig = [][]byte{sig}
	dat, err = json.Marshal(btx)
	if err != nil {
		return err
	}
	if _, err = c.cli.BroadcastTxSync(ctx, dat); err != nil {
		return err
	}
	return nil
}

func (c *ChainIndexer) queryAccount(ctx context.Context, address string) (*state.Account, error) {
	dat, err := hex.DecodeString(address)
	if err != nil {
		return nil, err
	}
	res, err := c.cli.ABCIQuery(ctx, "/accounts/", dat)
	if err != nil {
		c.logger.Error("ABCIQuery fail", "err", err)
		if !c.cli.IsRunning() {
			c.cli.Stop()
			c.cli, err = comethttp.New(c.Url, "/websocket")
			if err != nil {
				c.logger.Error("reconnect fail", "err", err)
				return nil, err
			}
		}
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("account %s not found", address)
	}
	var act state.Account
	if err = json.Unmarshal(res.Response.Value, &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return proposal, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposalsByStatus(status uint64, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("status = ?", status).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("status = ?", status).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalsByProposerAddr(proposerAddr string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("proposer_address = ?", proposerAddr).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("proposer_address = ?", proposerAddr).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVersionsByProposal(proposal uint64) ([]Version, error) {
	var versions []Version
	err := c.db.Where("proposal = ?", proposal).Order("version asc").Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint64, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getVotesByVoter(voter string, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("voter_address = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getBountyEvents(bounty uint64, page int, pageSize int) ([]BountyEvent, uint64, error) {
	q := c.db.Model(&BountyEvent{})
	if bounty != 0 {
		q = q.Where("bounty = ?", bounty)
	}
	var events []BountyEvent
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (c *ChainIndexer) getCallsByProposal(proposal uint64) ([]ExternalCall, error) {
	var calls []ExternalCall
	err := c.db.Where("proposal = ?", proposal).Order("seq asc").Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func (c *ChainIndexer) getExecutionsByProposal(proposal uint64) ([]Execution, error) {
	var execs []Execution
	err := c.db.Where("proposal = ?", proposal).Order("id asc").Find(&execs).Error
	if err != nil {
		return nil, err
	}
	return execs, nil
}
