package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/state"
)

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func (app *CordisApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		var idx uint64
		for _, v := range req.Data {
			idx <<= 8
			idx |= uint64(v)
		}
		a, height, _ = q.db.GetAccountByIndex(idx)
	}
	if a != nil {
		res.Value, _ = json.Marshal(a)
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

type PolicyQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewPolicyQuerier(db *state.StateDB, logger cmtlog.Logger) (q *PolicyQuerier) {
	q = &PolicyQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *PolicyQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	policy, height, err := q.db.GetPolicy()
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(policy)
	return
}

type ConfigQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewConfigQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ConfigQuerier) {
	q = &ConfigQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ConfigQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	cfg, height, err := q.db.GetConfig()
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(cfg)
	return
}

// ProposalQuerier serves one proposal by decimal index, or the current max
// index when the data is "max".
type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	dat := string(req.Data)
	if dat == "max" {
		idx, height := q.db.GetProposalMax()
		res.Height = int64(height)
		res.Value = []byte(strconv.FormatUint(idx, 10))
		return
	}
	idx, perr := strconv.ParseUint(dat, 10, 64)
	if perr != nil {
		res.Code = 1
		res.Log = perr.Error()
		return res, nil
	}
	proposal, height, gerr := q.db.GetProposal(idx)
	if gerr != nil {
		res.Code = 1
		res.Log = gerr.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(proposal)
	return
}

// BountyQuerier serves a bounty by decimal index, or a claim when the data
// is "<index>/<address>".
type BountyQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewBountyQuerier(db *state.StateDB, logger cmtlog.Logger) (q *BountyQuerier) {
	q = &BountyQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *BountyQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	dat := string(req.Data)
	if idxStr, addr, ok := strings.Cut(dat, "/"); ok {
		idx, perr := strconv.ParseUint(idxStr, 10, 64)
		if perr != nil {
			res.Code = 1
			res.Log = perr.Error()
			return res, nil
		}
		claim, height, gerr := q.db.GetBountyClaim(idx, addr)
		if gerr != nil {
			res.Code = 1
			res.Log = gerr.Error()
			return res, nil
		}
		res.Height = int64(height)
		res.Value, _ = json.Marshal(claim)
		return
	}
	idx, perr := strconv.ParseUint(dat, 10, 64)
	if perr != nil {
		res.Code = 1
		res.Log = perr.Error()
		return res, nil
	}
	bounty, height, gerr := q.db.GetBounty(idx)
	if gerr != nil {
		res.Code = 1
		res.Log = gerr.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(bounty)
	return
}
