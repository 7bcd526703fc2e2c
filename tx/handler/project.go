package handler

import (
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProjectTxHandler struct {
	daoTxHandler
}

func NewProjectTxHandler(d *dao.DAO, logger cmtlog.Logger) (h *ProjectTxHandler) {
	logger = logger.With("module", "projectTx")
	h = &ProjectTxHandler{}
	h.daoTxHandler = newDaoTxHandler(d, logger, h.apply)
	return
}

func (h *ProjectTxHandler) apply(dctx *dao.Context, btx *tx.Tx) error {
	projects := h.dao.Projects
	switch wtx := btx.Tx.(type) {
	case *tx.RegisterProjectTx:
		_, err := projects.Register(dctx, dao.RegisterProject{
			Name:           wtx.Name,
			Description:    wtx.Description,
			AuditMaterials: wtx.AuditMaterials,
			TargetAmount:   wtx.TargetAmount,
			Duration:       wtx.Duration,
		})
		return err
	case *tx.DonateTx:
		return projects.Donate(dctx, wtx.Project, wtx.Amount)
	case *tx.RequestFundsReleaseTx:
		return projects.RequestFundsRelease(dctx, wtx.Project, wtx.Statement)
	case *tx.UpdateAuditMaterialsTx:
		return projects.UpdateAuditMaterials(dctx, wtx.Project, wtx.AuditMaterials)
	case *tx.ReleaseFundsTx:
		return projects.ReleaseFunds(dctx, wtx.Project)
	case *tx.ClaimRefundTx:
		return projects.ClaimRefund(dctx, wtx.Project)
	default:
		return fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
}
