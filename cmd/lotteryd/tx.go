package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cocomastoras/automated-lottery/internal/app"
	"github.com/cocomastoras/automated-lottery/internal/codec"
	"github.com/cocomastoras/automated-lottery/internal/oracle"
)

// signAndPrint crafts a signed tx envelope and writes it to stdout as JSON,
// ready to broadcast through the CometBFT RPC (broadcast_tx_commit).
func signAndPrint(cmd *cobra.Command, txType string, payload any) error {
	keyPath, _ := cmd.Flags().GetString("key")
	nonce, _ := cmd.Flags().GetString("nonce")
	if nonce == "" {
		nonce = strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	env := codec.TxEnvelope{Type: txType, Value: value}
	if keyPath != "" {
		kf, err := loadKeyFile(keyPath)
		if err != nil {
			return err
		}
		env.Nonce = nonce
		env.Signer = kf.Account
		msg := app.TxAuthSignBytes(txType, value, nonce, kf.Account)
		env.Sig = ed25519.Sign(ed25519.PrivateKey(kf.PrivKey), msg)
	}

	out, err := json.Marshal(env)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func addSignFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "key file for signing (see 'lotteryd keys new')")
	cmd.Flags().String("nonce", "", "tx nonce (default: current unix nanos)")
}

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Craft signed transactions",
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Register the key file's account and pubkey",
		RunE: func(c *cobra.Command, _ []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			return signAndPrint(c, "auth/register_account", codec.AuthRegisterAccountTx{
				Account: kf.Account,
				PubKey:  kf.PubKey,
			})
		},
	}

	mint := &cobra.Command{
		Use:   "mint <to> <amount>",
		Short: "Devnet faucet mint (unsigned)",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			return signAndPrint(c, "bank/mint", codec.BankMintTx{To: args[0], Amount: amount})
		},
	}

	send := &cobra.Command{
		Use:   "send <to> <amount>",
		Short: "Transfer funds from the key file's account",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			return signAndPrint(c, "bank/send", codec.BankSendTx{From: kf.Account, To: args[0], Amount: amount})
		},
	}

	enter := &cobra.Command{
		Use:   "enter <amount>",
		Short: "Enter the current round",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			return signAndPrint(c, "lotto/enter", codec.LottoEnterTx{Participant: kf.Account, Amount: amount})
		},
	}

	closeRound := &cobra.Command{
		Use:   "close-round",
		Short: "Submit the round maintenance trigger (unsigned)",
		RunE: func(c *cobra.Command, _ []string) error {
			return signAndPrint(c, "lotto/close_round", codec.LottoCloseRoundTx{})
		},
	}

	fulfill := &cobra.Command{
		Use:   "fulfill <request-id>",
		Short: "Fulfill a randomness request (oracle key required)",
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected <request-id>")
			}
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %w", err)
			}
			value, _ := c.Flags().GetString("random-value")
			if value == "" {
				seed, _ := c.Flags().GetString("seed")
				value = oracle.RandomValue([]byte(seed), id).String()
			}
			return signAndPrint(c, "lotto/fulfill_randomness", codec.LottoFulfillRandomnessTx{
				RequestID:   id,
				RandomValue: value,
			})
		},
	}
	fulfill.Flags().String("random-value", "", "explicit base-10 random value (default: derived from --seed)")
	fulfill.Flags().String("seed", "devnet", "seed for deterministic randomness derivation")

	claim := &cobra.Command{
		Use:   "claim <round-id>",
		Short: "Claim winnings for a resolved round",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid round id: %w", err)
			}
			return signAndPrint(c, "lotto/claim_winnings", codec.LottoClaimWinningsTx{RoundID: id, Caller: kf.Account})
		},
	}

	redeemCancelled := &cobra.Command{
		Use:   "redeem-cancelled <round-id>",
		Short: "Redeem the caller's stake from a cancelled round",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid round id: %w", err)
			}
			return signAndPrint(c, "lotto/redeem_cancelled", codec.LottoRedeemCancelledTx{RoundID: id, Caller: kf.Account})
		},
	}

	redeemAll := &cobra.Command{
		Use:   "redeem-all <round-id>...",
		Short: "Batch-settle winnings and refunds across rounds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			keyPath, _ := c.Flags().GetString("key")
			kf, err := loadKeyFile(keyPath)
			if err != nil {
				return err
			}
			ids := make([]uint64, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseUint(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid round id %q: %w", a, err)
				}
				ids = append(ids, id)
			}
			return signAndPrint(c, "lotto/redeem_all", codec.LottoRedeemAllTx{RoundIDs: ids, Caller: kf.Account})
		},
	}

	subCmds := []*cobra.Command{register, mint, send, enter, closeRound, fulfill, claim, redeemCancelled, redeemAll}
	for _, sc := range subCmds {
		addSignFlags(sc)
		cmd.AddCommand(sc)
	}
	return cmd
}
