package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coastalmech/apflow/internal/approval"
	"github.com/coastalmech/apflow/internal/cli"
	"github.com/coastalmech/apflow/internal/common"
	"github.com/coastalmech/apflow/internal/config"
)

func approveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Review pending approval mailboxes",
		Long: `Review candidates a running batch is blocked on. The batch process
waits on its mailbox; this command lists the pending candidates,
records your decision, and unblocks the batch.`,
	}
	cmd.AddCommand(approveMailboxCmd("vendors", "vendor", "Review pending vendor matches"))
	cmd.AddCommand(approveMailboxCmd("po", "po", "Review pending purchase-order identifiers"))
	return cmd
}

func approveMailboxCmd(use, mailbox, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}

			mb := approval.NewMailbox(cfg.MailboxDir, mailbox)
			if !mb.Pending() {
				fmt.Println(cli.FormatInfo(fmt.Sprintf("No pending %s review", mailbox)))
				return nil
			}

			candidates, err := mb.Candidates()
			if err != nil {
				return common.NewUserError("failed to read pending candidates", err)
			}

			reviewer := cli.NewReviewer(os.Stdin, os.Stdout)
			title := fmt.Sprintf("Pending %s review (%d candidates)", mailbox, len(candidates))
			decision, err := reviewer.Review(cmd.Context(), title, candidates)
			if err != nil {
				return common.NewUserError("review aborted", err)
			}

			if err := mb.Decide(decision); err != nil {
				return common.NewUserError("failed to record decision", err)
			}

			if decision.Approved {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Approved %d of %d candidates", len(decision.ApprovedKeys), len(candidates))))
			} else {
				fmt.Println(cli.FormatWarning("All candidates rejected"))
			}
			return nil
		},
	}
}
