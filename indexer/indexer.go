package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/charity-dao/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/holiman/uint256"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const DefaultInterval = time.Second

// BlockSource is the part of the cometbft rpc client the indexer reads.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	interval      time.Duration
	db            *gorm.DB
	cli           BlockSource
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	return NewChainIndexerWithSource(logger, dbPath, cli, interval)
}

func NewChainIndexerWithSource(logger cmtlog.Logger, dbPath string, cli BlockSource, interval time.Duration) (*ChainIndexer, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Member{}, &Proposal{}, &Vote{}, &Project{}, &Flow{}, &TokenTransfer{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		db.Close()
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		interval: interval,
		db:       db,
		cli:      cli,
	}
	if hc, ok := cli.(*comethttp.HTTP); ok {
		c.Url = hc.Remote()
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventMemberAddedType:          handleEventMemberAdded,
		types.EventMemberRemovedType:        handleEventMemberRemoved,
		types.EventAdminTransferredType:     handleEventAdminTransferred,
		types.EventProposalCreatedType:      handleEventProposalCreated,
		types.EventVotedType:                handleEventVoted,
		types.EventProposalExecutedType:     handleEventProposalExecuted,
		types.EventProjectCreatedType:       handleEventProjectCreated,
		types.EventProjectStatusChangedType: handleEventProjectStatusChanged,
		types.EventDonationReceivedType:     handleEventDonation,
		types.EventFundsReleasedType:        handleEventFundsReleased,
		types.EventRefundClaimedType:        handleEventRefund,
		types.EventTokenRewardedType:        handleEventTokenRewarded,
		types.EventTokenTransferType:        handleEventTokenTransfer,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

var ErrDecodeEvent = errors.New("decode event fail")

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func decodeErr(event abci.Event) error {
	return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func handleEventMemberAdded(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventMember(event)
	if ev == nil {
		return decodeErr(event)
	}
	var m Member
	if err := db.Where("address = ?", ev.Member.Hex()).First(&m).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("get member: %w", err)
	}
	m.Address = ev.Member.Hex()
	m.Active = true
	m.AddedHeight = uint64(height)
	m.RemovedHeight = 0
	return db.Save(&m).Error
}

func handleEventMemberRemoved(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventMember(event)
	if ev == nil {
		return decodeErr(event)
	}
	return db.Model(&Member{}).Where("address = ?", ev.Member.Hex()).
		Updates(map[string]interface{}{"active": false, "removed_height": uint64(height)}).Error
}

func handleEventAdminTransferred(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventAdminTransferred(event)
	if ev == nil {
		return decodeErr(event)
	}
	if err := db.Model(&Member{}).Where("admin = ?", true).Update("admin", false).Error; err != nil {
		return fmt.Errorf("clear admin: %w", err)
	}
	return db.Model(&Member{}).Where("address = ?", ev.Admin.Hex()).Update("admin", true).Error
}

func handleEventProposalCreated(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		return decodeErr(event)
	}
	proposal := Proposal{
		Id:             ev.Proposal,
		Project:        ev.Project.Hex(),
		Type:           ev.Type.String(),
		OpenedAt:       ev.CreatedAt,
		VotingDeadline: ev.VotingDeadline,
		NewHeight:      uint64(height),
	}
	return db.Save(&proposal).Error
}

func handleEventVoted(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoted(event)
	if ev == nil {
		return decodeErr(event)
	}
	vote := Vote{
		Proposal: ev.Proposal,
		Voter:    ev.Voter.Hex(),
		Approved: ev.Approved,
		Weight:   ev.Weight,
		Height:   uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return fmt.Errorf("save vote: %w", err)
	}
	column := "weighted_no"
	if ev.Approved {
		column = "weighted_yes"
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.Proposal).
		UpdateColumn(column, gorm.Expr(column+" + ?", ev.Weight)).Error
}

func handleEventProposalExecuted(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalExecuted(event)
	if ev == nil {
		return decodeErr(event)
	}
	var proposal Proposal
	if err := db.First(&proposal, ev.Proposal).Error; err != nil {
		return fmt.Errorf("get proposal %d: %w", ev.Proposal, err)
	}
	proposal.Executed = true
	proposal.Passed = ev.Passed
	proposal.WeightedYes = ev.WeightedYes
	proposal.WeightedNo = ev.WeightedNo
	proposal.SettleHeight = uint64(height)
	return db.Save(&proposal).Error
}

func handleEventProjectCreated(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProjectCreated(event)
	if ev == nil {
		return decodeErr(event)
	}
	project := Project{
		Address:          ev.Project.Hex(),
		Owner:            ev.Owner.Hex(),
		Name:             ev.Name,
		TargetAmount:     amountString(ev.TargetAmount),
		RaisedAmount:     "0",
		ReleasedAmount:   "0",
		Status:           types.ProjectStatusPending.String(),
		Deadline:         ev.Deadline,
		ApprovalProposal: ev.ApprovalProposal,
		NewHeight:        uint64(height),
	}
	return db.Save(&project).Error
}

func handleEventProjectStatusChanged(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProjectStatusChanged(event)
	if ev == nil {
		return decodeErr(event)
	}
	return db.Model(&Project{}).Where("address = ?", ev.Project.Hex()).Update("status", ev.To.String()).Error
}

func saveFlow(db *gorm.DB, kind string, ev *types.EventValueMoved, height int64) error {
	flow := Flow{
		Kind:    kind,
		Project: ev.Project.Hex(),
		Account: ev.Account.Hex(),
		Amount:  amountString(ev.Amount),
		Height:  uint64(height),
	}
	if err := db.Create(&flow).Error; err != nil {
		return fmt.Errorf("save %s flow: %w", kind, err)
	}
	return nil
}

func handleEventDonation(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventValueMoved(event)
	if ev == nil {
		return decodeErr(event)
	}
	if err := saveFlow(db, FlowDonation, ev, height); err != nil {
		return err
	}
	return db.Model(&Project{}).Where("address = ?", ev.Project.Hex()).Update("raised_amount", amountString(ev.Total)).Error
}

func handleEventFundsReleased(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventValueMoved(event)
	if ev == nil {
		return decodeErr(event)
	}
	if err := saveFlow(db, FlowRelease, ev, height); err != nil {
		return err
	}
	return db.Model(&Project{}).Where("address = ?", ev.Project.Hex()).Update("released_amount", amountString(ev.Total)).Error
}

func handleEventRefund(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventValueMoved(event)
	if ev == nil {
		return decodeErr(event)
	}
	return saveFlow(db, FlowRefund, ev, height)
}

func handleEventTokenRewarded(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventTokenRewarded(event)
	if ev == nil {
		return decodeErr(event)
	}
	return saveFlow(db, FlowReward, &types.EventValueMoved{Account: ev.Donor, Amount: ev.Amount}, height)
}

func handleEventTokenTransfer(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventTokenTransfer(event)
	if ev == nil {
		return decodeErr(event)
	}
	transfer := TokenTransfer{
		Sender:    ev.From.Hex(),
		Recipient: ev.To.Hex(),
		Amount:    amountString(ev.Amount),
		Height:    uint64(height),
	}
	return db.Create(&transfer).Error
}

// IndexBlock applies the events of every successful tx in a block and records
// the height in one transaction. The first failing event rolls the block back.
func (c *ChainIndexer) IndexBlock(ctx context.Context, height int64, txs []*abci.ExecTxResult) (err error) {
	db := c.db.BeginTx(ctx, nil)
	if err = db.Error; err != nil {
		return err
	}
	defer func() {
		if err != nil {
			db.Rollback()
		}
	}()
	for _, res := range txs {
		if res == nil || res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			h, ok := c.eventHandlers[event.Type]
			if !ok {
				continue
			}
			if err = h(db, event, height); err != nil {
				c.logger.Error("index event fail", "height", height, "event", event.Type, "err", err)
				return fmt.Errorf("height %d: %s: %w", height, event.Type, err)
			}
		}
	}
	if err = db.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		return err
	}
	return db.Commit().Error
}

func (c *ChainIndexer) reconnect() {
	if c.Url == "" {
		return
	}
	if hc, ok := c.cli.(*comethttp.HTTP); ok && hc.IsRunning() {
		return
	}
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = cli
}

// Sync indexes every block up to the latest height reported by the node.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	status, err := c.cli.Status(ctx)
	if err != nil {
		c.reconnect()
		return err
	}
	for status.SyncInfo.LatestBlockHeight >= c.Height {
		if err = ctx.Err(); err != nil {
			return err
		}
		c.logger.Debug("indexer syncing", "height", c.Height)
		height := c.Height
		results, err := c.cli.BlockResults(ctx, &height)
		if err != nil {
			c.reconnect()
			return err
		}
		if err = c.IndexBlock(ctx, c.Height, results.TxsResults); err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) getMembers(active bool, page int, pageSize int) ([]Member, uint64, error) {
	var members []Member
	q := c.db.Model(&Member{})
	if active {
		q = q.Where("active = ?", true)
	}
	err := q.Order("added_height desc").Offset(page * pageSize).Limit(pageSize).Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err = q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (c *ChainIndexer) getProposals(project string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	q := c.db.Model(&Proposal{})
	if project != "" {
		q = q.Where("project = ?", project)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err = q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint64, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getVotesByVoter(voter string, page int, pageSize int) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("voter = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getProjects(status string, page int, pageSize int) ([]Project, uint64, error) {
	var projects []Project
	q := c.db.Model(&Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("new_height desc").Offset(page * pageSize).Limit(pageSize).Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err = q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (c *ChainIndexer) getProjectByAddress(address string) (Project, error) {
	var project Project
	err := c.db.Where("address = ?", address).First(&project).Error
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

func (c *ChainIndexer) getFlows(kind string, project string, account string, page int, pageSize int) ([]Flow, uint64, error) {
	var flows []Flow
	q := c.db.Model(&Flow{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if project != "" {
		q = q.Where("project = ?", project)
	}
	if account != "" {
		q = q.Where("account = ?", account)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&flows).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err = q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return flows, total, nil
}

func (c *ChainIndexer) getTokenTransfers(account string, page int, pageSize int) ([]TokenTransfer, error) {
	var transfers []TokenTransfer
	q := c.db.Model(&TokenTransfer{})
	if account != "" {
		q = q.Where("sender = ? OR recipient = ?", account, account)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&transfers).Error
	if err != nil {
		return nil, err
	}
	return transfers, nil
}
