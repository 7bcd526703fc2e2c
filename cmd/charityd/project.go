package main

import (
	"github.com/calehh/charity-dao/tx"
	"github.com/spf13/cobra"
)

type projectArguments struct {
	txArguments
	Project        string
	Name           string
	Description    string
	AuditMaterials string
	Statement      string
	Target         string
	Amount         string
	Duration       uint64
}

var projectArgs projectArguments

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Register, fund and settle charity projects",
}

var projectRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a project and open its approval proposal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseAmount(projectArgs.Target)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeRegisterProject, &tx.RegisterProjectTx{
			Name:           projectArgs.Name,
			Description:    projectArgs.Description,
			AuditMaterials: projectArgs.AuditMaterials,
			TargetAmount:   target,
			Duration:       projectArgs.Duration,
		})
	},
}

var projectDonateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Donate native value to a fundraising project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := parseAddress("project", projectArgs.Project)
		if err != nil {
			return err
		}
		amount, err := parseAmount(projectArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeDonate, &tx.DonateTx{Project: project, Amount: amount})
	},
}

var projectRequestReleaseCmd = &cobra.Command{
	Use:   "request-release",
	Short: "Ask members to release the raised funds to the owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := parseAddress("project", projectArgs.Project)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeRequestFundsRelease, &tx.RequestFundsReleaseTx{
			Project:   project,
			Statement: projectArgs.Statement,
		})
	},
}

var projectUpdateAuditCmd = &cobra.Command{
	Use:   "update-audit",
	Short: "Replace the audit materials of a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := parseAddress("project", projectArgs.Project)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeUpdateAuditMaterials, &tx.UpdateAuditMaterialsTx{
			Project:        project,
			AuditMaterials: projectArgs.AuditMaterials,
		})
	},
}

var projectReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Retry a pending disbursement of a completed project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := parseAddress("project", projectArgs.Project)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeReleaseFunds, &tx.ReleaseFundsTx{Project: project})
	},
}

var projectRefundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Claim back a donation to a rejected project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := parseAddress("project", projectArgs.Project)
		if err != nil {
			return err
		}
		return sendTx(&projectArgs.txArguments, tx.TxTypeClaimRefund, &tx.ClaimRefundTx{Project: project})
	},
}

func init() {
	txFlags(projectRegisterCmd, &projectArgs.txArguments)
	projectRegisterCmd.Flags().StringVar(&projectArgs.Name, "name", "", "project name")
	projectRegisterCmd.Flags().StringVar(&projectArgs.Description, "description", "", "project description")
	projectRegisterCmd.Flags().StringVar(&projectArgs.AuditMaterials, "audit", "", "audit materials")
	projectRegisterCmd.Flags().StringVar(&projectArgs.Target, "target", "", "fundraising target in base units")
	projectRegisterCmd.Flags().Uint64Var(&projectArgs.Duration, "duration", 0, "fundraising duration in seconds, 0 for none")
	_ = projectRegisterCmd.MarkFlagRequired("name")
	_ = projectRegisterCmd.MarkFlagRequired("target")
	projectCmd.AddCommand(projectRegisterCmd)

	for _, c := range []*cobra.Command{projectDonateCmd, projectRequestReleaseCmd, projectUpdateAuditCmd, projectReleaseCmd, projectRefundCmd} {
		txFlags(c, &projectArgs.txArguments)
		c.Flags().StringVarP(&projectArgs.Project, "project", "p", "", "project address")
		_ = c.MarkFlagRequired("project")
		projectCmd.AddCommand(c)
	}
	projectDonateCmd.Flags().StringVar(&projectArgs.Amount, "amount", "", "donation in base units")
	_ = projectDonateCmd.MarkFlagRequired("amount")
	projectRequestReleaseCmd.Flags().StringVar(&projectArgs.Statement, "statement", "", "use of funds statement")
	projectUpdateAuditCmd.Flags().StringVar(&projectArgs.AuditMaterials, "audit", "", "audit materials")
}
