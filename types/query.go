package types

import "github.com/ethereum/go-ethereum/common"

const (
	QueryParams    = "/params/"
	QueryMembers   = "/members/"
	QueryProposals = "/proposals/"
	QueryVotes     = "/votes/"
	QueryProjects  = "/projects/"
	QueryDonors    = "/donors/"
	QueryToken     = "/token/"
	QueryAccounts  = "/accounts/"
)

// QueryRequest is the JSON body of every ABCI query. Unused fields are left
// empty; Offset/Limit page list responses.
type QueryRequest struct {
	ID      uint64          `json:"id,omitempty"`
	Address *common.Address `json:"address,omitempty"`
	Spender *common.Address `json:"spender,omitempty"`
	Project *common.Address `json:"project,omitempty"`
	Offset  int             `json:"offset,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

type MemberInfo struct {
	Address common.Address `json:"address"`
	Member  bool           `json:"member"`
	Admin   bool           `json:"admin"`
	Weight  uint64         `json:"weight"`
}

type MemberList struct {
	Admin   common.Address   `json:"admin"`
	Count   uint64           `json:"count"`
	Members []common.Address `json:"members"`
}
