package store

import "time"

// DeriveStatus computes a referral's lifecycle status from its click and
// conversion facts alone. Flagging never feeds into it.
func DeriveStatus(clickedAt, convertedAt *time.Time) ReferralStatus {
	switch {
	case convertedAt != nil:
		return ReferralStatusConverted
	case clickedAt != nil:
		return ReferralStatusClicked
	default:
		return ReferralStatusPending
	}
}

// IsSettleable reports whether the referral is converted with a positive reward amount.
func (r Referral) IsSettleable() bool {
	return r.Status == ReferralStatusConverted &&
		r.RewardAmount.Valid &&
		r.RewardAmount.Decimal.IsPositive()
}
