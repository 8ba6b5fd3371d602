package types

// Bounty is a payout offered for off-protocol work, created through an
// approved AddBounty instruction and paid out through a BountyDone proposal.
type Bounty struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	// Amount paid per completed claim.
	Amount uint64 `json:"amount"`
	// Times is the remaining number of payouts.
	Times uint64 `json:"times"`
	// MaxDeadlineSecs bounds the deadline a claimer may ask for.
	MaxDeadlineSecs uint64 `json:"maxDeadlineSecs"`
}

// BountyClaim is one account's in-flight claim on a bounty. The claimer
// posts the bounty bond and must deliver before the deadline, or give the
// claim up. Giving up inside the forgiveness period returns the bond.
type BountyClaim struct {
	BountyID uint64 `json:"bountyId"`
	// StartTime is the claim submission time in unix seconds.
	StartTime int64 `json:"startTime"`
	// DeadlineSecs is the claimer's promised completion window.
	DeadlineSecs uint64 `json:"deadlineSecs"`
	Bond         uint64 `json:"bond"`
	// Completed marks claims whose BountyDone proposal is pending resolution.
	Completed bool `json:"completed"`
}

// Expired reports whether the claim's promised window has elapsed.
func (c *BountyClaim) Expired(now int64) bool {
	return now > c.StartTime+int64(c.DeadlineSecs)
}

// WithinForgiveness reports whether giving up still returns the bond.
func (c *BountyClaim) WithinForgiveness(policy *Policy, now int64) bool {
	return now <= c.StartTime+int64(policy.BountyForgiveSecs)
}
