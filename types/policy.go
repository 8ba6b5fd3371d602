package types

import (
	"errors"
	"fmt"
)

// Action names used in role permission entries. A permission entry has the
// form "<proposal kind>:<action>", with "*" accepted on either side.
type Action string

const (
	ActionPropose     Action = "propose"
	ActionVoteApprove Action = "vote_approve"
	ActionVoteReject  Action = "vote_reject"
	ActionVoteRemove  Action = "vote_remove"
	ActionWithdraw    Action = "withdraw"
	ActionAmend       Action = "amend"
	ActionFinalize    Action = "finalize"
	ActionExecute     Action = "execute"
)

func (a Action) ForVote(target VoteTarget) bool {
	switch target.Kind {
	case VoteApprove:
		return a == ActionVoteApprove
	case VoteReject:
		return a == ActionVoteReject
	case VoteRemove:
		return a == ActionVoteRemove
	}
	return false
}

// VoteAction maps a vote target to the action its permission entry uses.
func VoteAction(target VoteTarget) Action {
	switch target.Kind {
	case VoteReject:
		return ActionVoteReject
	case VoteRemove:
		return ActionVoteRemove
	default:
		return ActionVoteApprove
	}
}

const (
	RoleEveryone = "everyone"
	RoleMember   = "member"
	RoleGroup    = "group"
)

var ErrRoleWrongKind = errors.New("role wrong kind")

// RoleKind decides which accounts a role applies to.
type RoleKind struct {
	Kind string `json:"kind"`
	// MinBalance is the qualifying balance for member roles. Use 1 for any
	// non-zero balance.
	MinBalance uint64 `json:"minBalance,omitempty"`
	// Group is the account set for group roles.
	Group []string `json:"group,omitempty"`
}

func EveryoneRole() RoleKind {
	return RoleKind{Kind: RoleEveryone}
}

func MemberRole(minBalance uint64) RoleKind {
	return RoleKind{Kind: RoleMember, MinBalance: minBalance}
}

func GroupRole(accounts ...string) RoleKind {
	return RoleKind{Kind: RoleGroup, Group: accounts}
}

// UserInfo is the authenticated caller as seen by permission checks.
type UserInfo struct {
	Address string
	Balance uint64
}

func (k *RoleKind) MatchUser(user UserInfo) bool {
	switch k.Kind {
	case RoleEveryone:
		return true
	case RoleMember:
		return user.Balance >= k.MinBalance
	case RoleGroup:
		for _, a := range k.Group {
			if a == user.Address {
				return true
			}
		}
	}
	return false
}

// Size returns the member count for group roles. Other role kinds have no
// countable size.
func (k *RoleKind) Size() (int, bool) {
	if k.Kind == RoleGroup {
		return len(k.Group), true
	}
	return 0, false
}

func (k *RoleKind) AddMember(member string) error {
	if k.Kind != RoleGroup {
		return ErrRoleWrongKind
	}
	for _, a := range k.Group {
		if a == member {
			return nil
		}
	}
	k.Group = append(k.Group, member)
	return nil
}

func (k *RoleKind) RemoveMember(member string) error {
	if k.Kind != RoleGroup {
		return ErrRoleWrongKind
	}
	for i, a := range k.Group {
		if a == member {
			k.Group = append(k.Group[:i], k.Group[i+1:]...)
			return nil
		}
	}
	return nil
}

type RolePermission struct {
	Name string   `json:"name"`
	Kind RoleKind `json:"roleKind"`
	// Permissions entries are "<kind>:<action>" with "*" wildcards.
	Permissions []string `json:"permissions"`
}

func (r *RolePermission) allows(kind string, action Action) bool {
	for _, p := range r.Permissions {
		switch p {
		case "*:*",
			fmt.Sprintf("%s:%s", kind, action),
			fmt.Sprintf("%s:*", kind),
			fmt.Sprintf("*:%s", action):
			return true
		}
	}
	return false
}

func (r *RolePermission) allowsAnyVote(kind string) bool {
	return r.allows(kind, ActionVoteApprove)
}

const (
	// TokenWeight votes carry the voter's token balance.
	TokenWeight = "token"
	// RoleWeight votes carry weight 1 per qualifying voter.
	RoleWeight = "role"
)

// WeightOrRatio is either a direct weight or a ratio of the total weight.
// A zero Denom means the direct weight applies.
type WeightOrRatio struct {
	Weight uint64 `json:"weight,omitempty"`
	Num    uint64 `json:"num,omitempty"`
	Denom  uint64 `json:"denom,omitempty"`
}

func Ratio(num, denom uint64) WeightOrRatio {
	return WeightOrRatio{Num: num, Denom: denom}
}

func FixedWeight(weight uint64) WeightOrRatio {
	return WeightOrRatio{Weight: weight}
}

// ToWeight converts to a concrete weight given the total available weight.
func (w WeightOrRatio) ToWeight(total uint64) uint64 {
	if w.Denom != 0 {
		return min(w.Num*total/w.Denom+1, total)
	}
	return min(w.Weight, total)
}

// VotePolicy configures how votes on one proposal kind get weighted and when
// they resolve the proposal.
type VotePolicy struct {
	WeightKind string `json:"weightKind"`
	// Quorum is the minimum weight required regardless of ratio, guarding
	// against tiny roles or low delegation keeping a 1/2 ratio trivial.
	Quorum          uint64        `json:"quorum"`
	Threshold       WeightOrRatio `json:"threshold"`
	RejectThreshold WeightOrRatio `json:"rejectThreshold"`
	RemoveThreshold WeightOrRatio `json:"removeThreshold"`
}

func DefaultVotePolicy() VotePolicy {
	return VotePolicy{
		WeightKind:      RoleWeight,
		Quorum:          0,
		Threshold:       Ratio(1, 2),
		RejectThreshold: Ratio(1, 2),
		RemoveThreshold: Ratio(1, 2),
	}
}

// ProposalKind categorizes proposals by the instructions they carry. A
// proposal matches the kind when every required instruction kind appears in
// its instruction set.
type ProposalKind struct {
	Name           string            `json:"name"`
	RequiredInstrs []InstructionKind `json:"requiredInstrs"`
	VotePolicy     VotePolicy        `json:"votePolicy"`
}

func (k *ProposalKind) MatchProposal(instructions []Instruction) bool {
	kinds := InstructionKinds(instructions)
	for _, req := range k.RequiredInstrs {
		if _, ok := kinds[req]; !ok {
			return false
		}
	}
	return true
}

// Policy is the full governance policy of the organization: categorization
// rules, roles and their permissions, vote policies and bond settings.
type Policy struct {
	// ProposalKinds is evaluated in declaration order, most restrictive
	// first. The first matching kind wins.
	ProposalKinds     []ProposalKind   `json:"proposalKinds"`
	Roles             []RolePermission `json:"roles"`
	DefaultVotePolicy VotePolicy       `json:"defaultVotePolicy"`
	ProposalBond      uint64           `json:"proposalBond"`
	// ProposalPeriodSecs bounds how long a proposal stays open before it can
	// be finalized as expired.
	ProposalPeriodSecs  uint64 `json:"proposalPeriodSecs"`
	BondForfeitOnReject bool   `json:"bondForfeitOnReject"`
	BountyBond          uint64 `json:"bountyBond"`
	BountyForgiveSecs   uint64 `json:"bountyForgiveSecs"`
}

// DefaultKindName labels proposals that match no declared kind. Those fall
// back to the default vote policy.
const DefaultKindName = ""

// MatchProposalKind classifies an instruction set. Deterministic: first
// matching kind in declaration order, DefaultKindName when nothing matches.
func (p *Policy) MatchProposalKind(instructions []Instruction) string {
	for i := range p.ProposalKinds {
		if p.ProposalKinds[i].MatchProposal(instructions) {
			return p.ProposalKinds[i].Name
		}
	}
	return DefaultKindName
}

// VotePolicyFor returns the vote policy of the named kind, falling back to
// the default policy for unknown or default kinds.
func (p *Policy) VotePolicyFor(kind string) VotePolicy {
	for i := range p.ProposalKinds {
		if p.ProposalKinds[i].Name == kind {
			return p.ProposalKinds[i].VotePolicy
		}
	}
	return p.DefaultVotePolicy
}

// CanExecuteAction reports whether any role matching the user grants the
// action on the given proposal kind.
func (p *Policy) CanExecuteAction(user UserInfo, kind string, action Action) bool {
	for i := range p.Roles {
		if !p.Roles[i].Kind.MatchUser(user) {
			continue
		}
		if p.Roles[i].allows(kind, action) {
			return true
		}
	}
	return false
}

// QualifiesToVote reports whether the user may cast the given vote target on
// proposals of the kind.
func (p *Policy) QualifiesToVote(user UserInfo, kind string, target VoteTarget) bool {
	return p.CanExecuteAction(user, kind, VoteAction(target))
}

// Threshold computes the weight a tally must reach under the vote policy.
// For token weighting the total is the delegated token supply; for role
// weighting it is the summed size of group roles allowed to vote on the kind.
func (p *Policy) Threshold(vp VotePolicy, w WeightOrRatio, totalSupply uint64, kind string) uint64 {
	var total uint64
	switch vp.WeightKind {
	case TokenWeight:
		total = totalSupply
	default:
		for i := range p.Roles {
			if !p.Roles[i].allowsAnyVote(kind) {
				continue
			}
			if n, ok := p.Roles[i].Kind.Size(); ok {
				total += uint64(n)
			}
		}
	}
	return max(vp.Quorum, w.ToWeight(total))
}

// AddMemberToRole and RemoveMemberFromRole run during instruction execution
// of an approved proposal and must not fail; unknown roles and wrong role
// kinds are reported back for logging only.
func (p *Policy) AddMemberToRole(role, member string) error {
	for i := range p.Roles {
		if p.Roles[i].Name == role {
			return p.Roles[i].Kind.AddMember(member)
		}
	}
	return fmt.Errorf("role not found: %s", role)
}

func (p *Policy) RemoveMemberFromRole(role, member string) error {
	for i := range p.Roles {
		if p.Roles[i].Name == role {
			return p.Roles[i].Kind.RemoveMember(member)
		}
	}
	return fmt.Errorf("role not found: %s", role)
}

// UserRoleNames returns the names of all roles the user matches.
func (p *Policy) UserRoleNames(user UserInfo) (names []string) {
	for i := range p.Roles {
		if p.Roles[i].Kind.MatchUser(user) {
			names = append(names, p.Roles[i].Name)
		}
	}
	return
}

// DefaultPolicy builds the boot policy for a council account list: everyone
// may propose, the council may do everything else on any kind.
func DefaultPolicy(council []string) Policy {
	return Policy{
		ProposalKinds: nil,
		Roles: []RolePermission{
			{
				Name:        "all",
				Kind:        EveryoneRole(),
				Permissions: []string{"*:" + string(ActionPropose)},
			},
			{
				Name: "council",
				Kind: GroupRole(council...),
				Permissions: []string{
					"*:" + string(ActionPropose),
					"*:" + string(ActionVoteApprove),
					"*:" + string(ActionVoteReject),
					"*:" + string(ActionVoteRemove),
					"*:" + string(ActionWithdraw),
					"*:" + string(ActionAmend),
					"*:" + string(ActionFinalize),
					"*:" + string(ActionExecute),
				},
			},
		},
		DefaultVotePolicy:   DefaultVotePolicy(),
		ProposalBond:        DefaultProposalBond,
		ProposalPeriodSecs:  7 * 24 * 60 * 60,
		BondForfeitOnReject: false,
		BountyBond:          DefaultBountyBond,
		BountyForgiveSecs:   24 * 60 * 60,
	}
}

const (
	DefaultProposalBond uint64 = 1000000000
	DefaultBountyBond   uint64 = 1000000000
)
