package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// keyFile is the on-disk key format. Ed25519 raw keys, base64 via encoding/json.
type keyFile struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"`
	PrivKey []byte `json:"privKey"`
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Key management",
	}

	newCmd := &cobra.Command{
		Use:   "new <account> <file>",
		Short: "Generate an Ed25519 keypair for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			kf := keyFile{Account: args[0], PubKey: pub, PrivKey: priv}
			b, err := json.MarshalIndent(kf, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], b, 0o600); err != nil {
				return fmt.Errorf("write key file: %w", err)
			}
			fmt.Printf("wrote key for %q to %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(newCmd)
	return cmd
}

func loadKeyFile(path string) (keyFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return keyFile{}, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return keyFile{}, fmt.Errorf("decode key file: %w", err)
	}
	if len(kf.PrivKey) != ed25519.PrivateKeySize {
		return keyFile{}, fmt.Errorf("key file %s: bad private key length %d", path, len(kf.PrivKey))
	}
	return kf, nil
}
