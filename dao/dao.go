package dao

import (
	"fmt"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DAO wires the five components together over one store.
type DAO struct {
	Params Params

	Members   *MembershipRegistry
	Token     *TokenLedger
	Weights   *WeightCalculator
	Proposals *ProposalEngine
	Projects  *ProjectLifecycle
	Bank      *NativeVault

	logger cmtlog.Logger
}

type options struct {
	vault Vault
}

type Option func(*options)

// WithVault replaces the custody backend used by project donations and
// disbursements. The native vault still serves plain sends.
func WithVault(v Vault) Option {
	return func(o *options) {
		o.vault = v
	}
}

func New(params Params, logger cmtlog.Logger, opts ...Option) (*DAO, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	bank := NewNativeVault(logger)
	o := &options{vault: bank}
	for _, opt := range opts {
		opt(o)
	}

	members := NewMembershipRegistry(logger)
	token := NewTokenLedger(logger)
	weights := NewWeightCalculator(params, members, token)
	proposals := NewProposalEngine(params, members, weights, logger)
	projects := NewProjectLifecycle(params, proposals, token, o.vault, logger)
	proposals.SetOutcomeHandler(projects)

	return &DAO{
		Params:    params,
		Members:   members,
		Token:     token,
		Weights:   weights,
		Proposals: proposals,
		Projects:  projects,
		Bank:      bank,
		logger:    logger.With("module", "dao"),
	}, nil
}

// Genesis is the app_state of the genesis document.
type Genesis struct {
	Params   Params           `json:"params"`
	Admin    common.Address   `json:"admin"`
	Members  []common.Address `json:"members"`
	Token    TokenGenesis     `json:"token"`
	Balances []Allocation     `json:"balances"`
}

func DefaultGenesis(admin common.Address) *Genesis {
	return &Genesis{
		Params:  DefaultParams(),
		Admin:   admin,
		Members: []common.Address{admin},
		Token: TokenGenesis{
			TokenInfo: TokenInfo{
				Name:     "Charity Token",
				Symbol:   "CHT",
				Decimals: 18,
				Admin:    admin,
			},
			InitialSupply: new(uint256.Int),
			Minters:       []common.Address{ModuleAddress},
		},
	}
}

func (g *Genesis) Validate() error {
	if err := g.Params.Validate(); err != nil {
		return err
	}
	if g.Admin == (common.Address{}) {
		return fmt.Errorf("%w: genesis admin is required", ErrInvalidParams)
	}
	if g.Token.Admin == (common.Address{}) {
		return fmt.Errorf("%w: token admin is required", ErrInvalidParams)
	}
	return nil
}

func (d *DAO) InitGenesis(s Store, gen *Genesis) error {
	if err := gen.Validate(); err != nil {
		return err
	}
	if err := setJSON(s, []byte(KeyParams), gen.Params); err != nil {
		return err
	}
	if err := d.Members.InitGenesis(s, gen.Admin, gen.Members); err != nil {
		return err
	}
	if err := d.Token.InitGenesis(s, gen.Token); err != nil {
		return err
	}
	if err := d.Bank.InitGenesis(s, gen.Balances); err != nil {
		return err
	}
	count, _ := d.Members.MemberCount(s)
	d.logger.Info("genesis initialized", "admin", gen.Admin.Hex(), "members", count)
	return nil
}

// LoadParams reads the params stored at genesis.
func LoadParams(s Store) (*Params, error) {
	p := new(Params)
	found, err := getJSON(s, []byte(KeyParams), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("params %w", ErrNotFound)
	}
	return p, nil
}

// ProposalInfo joins a proposal with the project it refers to.
func (d *DAO) ProposalInfo(s Store, id uint64) (*types.ProposalInfo, error) {
	p, err := d.Proposals.Proposal(s, id)
	if err != nil {
		return nil, err
	}
	info := &types.ProposalInfo{Proposal: *p}
	project, err := d.Projects.Project(s, p.Project)
	if err != nil {
		return nil, err
	}
	info.ProjectName = project.Name
	info.ProjectOwner = project.Owner
	return info, nil
}

// MemberInfo describes an address as seen by the registry and the weight
// calculator.
func (d *DAO) MemberInfo(s Store, addr common.Address) (*types.MemberInfo, error) {
	ok, err := d.Members.IsMember(s, addr)
	if err != nil {
		return nil, err
	}
	admin, err := d.Members.Admin(s)
	if err != nil {
		return nil, err
	}
	info := &types.MemberInfo{Address: addr, Member: ok, Admin: admin == addr}
	if ok {
		w, err := d.Weights.Weight(s, addr)
		if err != nil {
			return nil, err
		}
		info.Weight = uint64(w)
	}
	return info, nil
}
