package enums

// MembershipTier is a customer's loyalty tier.
type MembershipTier string

const (
	MembershipBronze MembershipTier = "B"
	MembershipSilver MembershipTier = "S"
	MembershipGold   MembershipTier = "G"
)

var membershipTiers = []MembershipTier{MembershipBronze, MembershipSilver, MembershipGold}

func (m MembershipTier) String() string { return string(m) }

func (m MembershipTier) IsValid() bool {
	_, err := ParseMembershipTier(string(m))
	return err == nil
}

func ParseMembershipTier(value string) (MembershipTier, error) {
	return parse("membership tier", membershipTiers, value)
}
