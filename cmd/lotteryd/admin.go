package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cocomastoras/automated-lottery/internal/codec"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Craft admin transactions (admin key required)",
	}

	adminAccount := func(c *cobra.Command) (string, error) {
		keyPath, _ := c.Flags().GetString("key")
		kf, err := loadKeyFile(keyPath)
		if err != nil {
			return "", err
		}
		return kf.Account, nil
	}

	claimFees := &cobra.Command{
		Use:   "claim-fees",
		Short: "Sweep accrued fees to the fee sink",
		RunE: func(c *cobra.Command, _ []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			return signAndPrint(c, "admin/claim_fees", codec.AdminClaimFeesTx{Caller: caller})
		},
	}

	freeze := &cobra.Command{
		Use:   "freeze",
		Short: "Freeze entries and new randomness requests",
		RunE: func(c *cobra.Command, _ []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			return signAndPrint(c, "admin/freeze", codec.AdminSetFrozenTx{Caller: caller})
		},
	}

	unfreeze := &cobra.Command{
		Use:   "unfreeze",
		Short: "Lift the freeze",
		RunE: func(c *cobra.Command, _ []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			return signAndPrint(c, "admin/unfreeze", codec.AdminSetFrozenTx{Caller: caller})
		},
	}

	setMinValue := &cobra.Command{
		Use:   "set-min-value <amount>",
		Short: "Change the minimum entry value",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			return signAndPrint(c, "admin/change_min_value", codec.AdminChangeMinValueTx{Caller: caller, MinEntryValue: amount})
		},
	}

	setMaxEntries := &cobra.Command{
		Use:   "set-max-entries <count>",
		Short: "Change the per-round entry cap",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid count: %w", err)
			}
			return signAndPrint(c, "admin/change_max_entries", codec.AdminChangeMaxEntriesTx{Caller: caller, MaxEntries: uint32(n)})
		},
	}

	setFeeSink := &cobra.Command{
		Use:   "set-fee-sink <account>",
		Short: "Change the fee sink account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			caller, err := adminAccount(c)
			if err != nil {
				return err
			}
			return signAndPrint(c, "admin/update_fee_sink", codec.AdminUpdateFeeSinkTx{Caller: caller, FeeSink: args[0]})
		},
	}

	subCmds := []*cobra.Command{claimFees, freeze, unfreeze, setMinValue, setMaxEntries, setFeeSink}
	for _, sc := range subCmds {
		addSignFlags(sc)
		cmd.AddCommand(sc)
	}
	return cmd
}
