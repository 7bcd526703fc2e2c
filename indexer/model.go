package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Member struct {
	Address       string `gorm:"primary_key" json:"address"`
	Active        bool   `json:"active"`
	Admin         bool   `json:"admin"`
	AddedHeight   uint64 `json:"added_height"`
	RemovedHeight uint64 `json:"removed_height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primary_key" json:"id"`
	Project        string `gorm:"index" json:"project"`
	Type           string `json:"type"`
	OpenedAt       int64  `json:"opened_at"`
	VotingDeadline int64  `json:"voting_deadline"`
	Executed       bool   `json:"executed"`
	Passed         bool   `json:"passed"`
	WeightedYes    uint64 `json:"weighted_yes"`
	WeightedNo     uint64 `json:"weighted_no"`
	NewHeight      uint64 `json:"new_height"`
	SettleHeight   uint64 `json:"settle_height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key;auto_increment" json:"id"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Voter    string `gorm:"index" json:"voter"`
	Approved bool   `json:"approved"`
	Weight   uint64 `json:"weight"`
	Height   uint64 `json:"height"`
}

type Project struct {
	Address          string `gorm:"primary_key" json:"address"`
	Owner            string `gorm:"index" json:"owner"`
	Name             string `json:"name"`
	TargetAmount     string `json:"target_amount"`
	RaisedAmount     string `json:"raised_amount"`
	ReleasedAmount   string `json:"released_amount"`
	Status           string `gorm:"index" json:"status"`
	Deadline         int64  `json:"deadline"`
	ApprovalProposal uint64 `json:"approval_proposal"`
	NewHeight        uint64 `json:"new_height"`
}

const (
	FlowDonation = "donation"
	FlowRelease  = "release"
	FlowRefund   = "refund"
	FlowReward   = "reward"
)

// Flow is one value movement into or out of project custody, or a token
// reward for a donation.
type Flow struct {
	Id      uint64 `gorm:"primary_key;auto_increment" json:"id"`
	Kind    string `gorm:"index" json:"kind"`
	Project string `gorm:"index" json:"project"`
	Account string `gorm:"index" json:"account"`
	Amount  string `json:"amount"`
	Height  uint64 `json:"height"`
}

type TokenTransfer struct {
	Id        uint64 `gorm:"primary_key;auto_increment" json:"id"`
	Sender    string `gorm:"index" json:"sender"`
	Recipient string `gorm:"index" json:"recipient"`
	Amount    string `json:"amount"`
	Height    uint64 `json:"height"`
}
