package types

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagMembers   = "members"
	FlagQuorum    = "quorum"
	FlagMajority  = "majority"
	FlagPeriod    = "voting-period"
	FlagBalance   = "balance"
)
