package types

type ProposalStatus uint64

const (
	ProposalStatusOpen            ProposalStatus = 1
	ProposalStatusApproved        ProposalStatus = 2
	ProposalStatusExecuting       ProposalStatus = 3
	ProposalStatusExecuted        ProposalStatus = 4
	ProposalStatusFailedExecution ProposalStatus = 5
	ProposalStatusRejected        ProposalStatus = 6
	ProposalStatusWithdrawn       ProposalStatus = 7
	ProposalStatusExpired         ProposalStatus = 8
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusOpen:
		return "open"
	case ProposalStatusApproved:
		return "approved"
	case ProposalStatusExecuting:
		return "executing"
	case ProposalStatusExecuted:
		return "executed"
	case ProposalStatusFailedExecution:
		return "failed_execution"
	case ProposalStatusRejected:
		return "rejected"
	case ProposalStatusWithdrawn:
		return "withdrawn"
	case ProposalStatusExpired:
		return "expired"
	}
	return "unknown"
}

// Terminal statuses accept no further mutation.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case ProposalStatusExecuted, ProposalStatusFailedExecution,
		ProposalStatusRejected, ProposalStatusWithdrawn, ProposalStatusExpired:
		return true
	}
	return false
}

type VoteKind uint8

const (
	VoteApprove VoteKind = 1
	VoteReject  VoteKind = 2
	VoteRemove  VoteKind = 3
)

// VoteTarget is one voter's single active assignment: approve or remove a
// specific version, or reject the whole proposal.
type VoteTarget struct {
	Kind    VoteKind `json:"kind"`
	Version uint8    `json:"version,omitempty"`
}

func ApproveTarget(version uint8) VoteTarget {
	return VoteTarget{Kind: VoteApprove, Version: version}
}

func RejectTarget() VoteTarget {
	return VoteTarget{Kind: VoteReject}
}

func RemoveTarget(version uint8) VoteTarget {
	return VoteTarget{Kind: VoteRemove, Version: version}
}

// Ballot is a voter's active vote together with the weight it carried when
// applied. Retraction subtracts the recorded weight, not the weight the
// voter holds at retraction time.
type Ballot struct {
	VoteTarget
	Weight uint64 `json:"weight"`
}

// ProposalVersion is one competing instruction set within a proposal.
type ProposalVersion struct {
	Proposer     string        `json:"proposer"`
	Description  string        `json:"description"`
	Instructions []Instruction `json:"instructions"`
	Bond         uint64        `json:"bond"`
}

// PendingCall is the persisted resumption state of a suspended FunctionCall
// instruction. The relay answers it with a callback transaction carrying the
// same sequence number.
type PendingCall struct {
	Seq      uint64       `json:"seq"`
	Receiver string       `json:"receiver"`
	Calls    []CallAction `json:"calls"`
}

// Proposal is a governance item with one or more competing versions, a vote
// policy captured at creation time and a single active vote per voter.
type Proposal struct {
	Index      uint64     `json:"index"`
	Kind       string     `json:"kind"`
	VotePolicy VotePolicy `json:"votePolicy"`

	Status          ProposalStatus `json:"status"`
	ApprovedVersion uint8          `json:"approvedVersion"`

	Versions      []ProposalVersion `json:"versions"`
	ApproveWeight []uint64          `json:"approveWeight"`
	RemoveWeight  []uint64          `json:"removeWeight"`
	Removed       []bool            `json:"removed"`
	// Voted marks versions that ever carried approve or remove weight, even
	// if every such vote was later retracted. Withdraw and amend are
	// permanently disabled for those versions.
	Voted        []bool            `json:"voted"`
	RejectWeight uint64            `json:"rejectWeight"`
	Votes        map[string]Ballot `json:"votes"`

	SubmissionHeight uint64 `json:"submissionHeight"`
	SubmissionTime   int64  `json:"submissionTime"`

	// Execution cursor, meaningful while Executing.
	ExecCursor  int          `json:"execCursor"`
	CallSeq     uint64       `json:"callSeq"`
	PendingCall *PendingCall `json:"pendingCall,omitempty"`
}

func NewProposal(index uint64, kind string, vp VotePolicy, v ProposalVersion, height uint64, now int64) *Proposal {
	return &Proposal{
		Index:            index,
		Kind:             kind,
		VotePolicy:       vp,
		Status:           ProposalStatusOpen,
		Versions:         []ProposalVersion{v},
		ApproveWeight:    []uint64{0},
		RemoveWeight:     []uint64{0},
		Removed:          []bool{false},
		Voted:            []bool{false},
		Votes:            make(map[string]Ballot),
		SubmissionHeight: height,
		SubmissionTime:   now,
	}
}

// AddVersion appends a competing version and returns its index.
func (p *Proposal) AddVersion(v ProposalVersion) uint8 {
	p.Versions = append(p.Versions, v)
	p.ApproveWeight = append(p.ApproveWeight, 0)
	p.RemoveWeight = append(p.RemoveWeight, 0)
	p.Removed = append(p.Removed, false)
	p.Voted = append(p.Voted, false)
	return uint8(len(p.Versions) - 1)
}

func (p *Proposal) HasVersion(version uint8) bool {
	return int(version) < len(p.Versions)
}

func (p *Proposal) VersionLive(version uint8) bool {
	return p.HasVersion(version) && !p.Removed[version]
}

func (p *Proposal) LiveVersionCount() (n int) {
	for _, removed := range p.Removed {
		if !removed {
			n++
		}
	}
	return
}

// UpdateVote retracts the voter's previous assignment at the weight it was
// applied with, applies the new one at the current weight and records both as
// the voter's single active ballot.
func (p *Proposal) UpdateVote(voter string, target VoteTarget, weight uint64) {
	if prev, ok := p.Votes[voter]; ok {
		p.retract(prev.VoteTarget, prev.Weight)
	}
	switch target.Kind {
	case VoteApprove:
		p.ApproveWeight[target.Version] += weight
		p.Voted[target.Version] = true
	case VoteRemove:
		p.RemoveWeight[target.Version] += weight
		p.Voted[target.Version] = true
	case VoteReject:
		p.RejectWeight += weight
	}
	p.Votes[voter] = Ballot{VoteTarget: target, Weight: weight}
}

func (p *Proposal) retract(target VoteTarget, weight uint64) {
	switch target.Kind {
	case VoteApprove:
		if p.VersionLive(target.Version) {
			p.ApproveWeight[target.Version] -= min(weight, p.ApproveWeight[target.Version])
		}
	case VoteRemove:
		if p.VersionLive(target.Version) {
			p.RemoveWeight[target.Version] -= min(weight, p.RemoveWeight[target.Version])
		}
	case VoteReject:
		p.RejectWeight -= min(weight, p.RejectWeight)
	}
}

// RemoveVersion flags a version removed, voids its tallies and drops the
// recorded votes that pointed at it, so those voters may vote again.
func (p *Proposal) RemoveVersion(version uint8) {
	p.Removed[version] = true
	p.ApproveWeight[version] = 0
	p.RemoveWeight[version] = 0
	for voter, target := range p.Votes {
		if target.Kind != VoteReject && target.Version == version {
			delete(p.Votes, voter)
		}
	}
}

// Evaluate runs one resolution pass over the current tallies and updates the
// proposal status. Called after every vote while the proposal is open.
//
// Order matters: removal flags first, then approval in version index order
// (the lowest-indexed qualifying version wins, keeping resolution replayable
// from stored state alone), then rejection. Approval takes precedence when
// both thresholds are met in the same pass.
func (p *Proposal) Evaluate(policy *Policy, totalSupply uint64) {
	if p.Status != ProposalStatusOpen {
		return
	}
	removeTh := policy.Threshold(p.VotePolicy, p.VotePolicy.RemoveThreshold, totalSupply, p.Kind)
	for i := range p.Versions {
		if !p.Removed[i] && p.RemoveWeight[i] >= removeTh {
			p.RemoveVersion(uint8(i))
		}
	}
	if p.LiveVersionCount() == 0 {
		p.Status = ProposalStatusRejected
		return
	}
	approveTh := policy.Threshold(p.VotePolicy, p.VotePolicy.Threshold, totalSupply, p.Kind)
	for i := range p.Versions {
		if !p.Removed[i] && p.ApproveWeight[i] >= approveTh {
			p.Status = ProposalStatusApproved
			p.ApprovedVersion = uint8(i)
			return
		}
	}
	rejectTh := policy.Threshold(p.VotePolicy, p.VotePolicy.RejectThreshold, totalSupply, p.Kind)
	if p.RejectWeight >= rejectTh {
		p.Status = ProposalStatusRejected
	}
}

// ExpiredAt reports whether the proposal passed its voting period.
func (p *Proposal) ExpiredAt(policy *Policy, now int64) bool {
	return now > p.SubmissionTime+int64(policy.ProposalPeriodSecs)
}
