package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/suite"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Inspect and edit the pinned-peer trust store",
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every pinned device ID",
	RunE:  runTrustList,
}

var trustShowCmd = &cobra.Command{
	Use:   "show <device-id>",
	Short: "Show the pinned trust record for one device",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrustShow,
}

var trustAddCmd = &cobra.Command{
	Use:   "add <device-id> <protocol-public-key-hex>",
	Short: "Pin a peer's protocol signing public key",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrustAdd,
}

var trustRemoveCmd = &cobra.Command{
	Use:   "remove <device-id>",
	Short: "Remove a pinned device",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrustRemove,
}

var trustAddAlgorithm string

func init() {
	trustAddCmd.Flags().StringVar(&trustAddAlgorithm, "algorithm", "ed25519", "signature algorithm the pinned key belongs to: ed25519, mldsa65, or p256_ecdsa")
	trustCmd.AddCommand(trustListCmd, trustShowCmd, trustAddCmd, trustRemoveCmd)
	rootCmd.AddCommand(trustCmd)
}

func runTrustList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openTrustStore(cfg)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}
	ids, err := store.List()
	if err != nil {
		return fmt.Errorf("list trust store: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("(no pinned peers)")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runTrustShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openTrustStore(cfg)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}
	record, ok, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("look up trust record: %w", err)
	}
	if !ok {
		return fmt.Errorf("no trust record pinned for device %q", args[0])
	}
	fmt.Printf("device_id:            %s\n", record.DeviceID)
	fmt.Printf("fingerprint:          %s\n", record.PubKeyFingerprint)
	fmt.Printf("signature_algorithm:  %s\n", record.SignatureAlgorithm)
	fmt.Printf("allows_legacy_fallback: %t\n", record.AllowsLegacyFallback)
	fmt.Printf("updated_at:           %s\n", record.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runTrustAdd(cmd *cobra.Command, args []string) error {
	deviceID, keyHex := args[0], args[1]

	alg := suite.SignatureAlgorithm(trustAddAlgorithm)
	switch alg {
	case suite.SigEd25519, suite.SigMLDSA65, suite.SigP256ECDSA:
	default:
		return fmt.Errorf("unsupported --algorithm %q", trustAddAlgorithm)
	}

	pubKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("decode public key hex: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openTrustStore(cfg)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}

	record := identity.TrustRecord{
		DeviceID:            deviceID,
		PubKeyFingerprint:   identity.Fingerprint(pubKey),
		ProtocolPublicKey:   pubKey,
		SignatureAlgorithm:  alg,
		AllowsLegacyFallback: false,
		UpdatedAt:           time.Now(),
	}
	if err := store.Put(record); err != nil {
		return fmt.Errorf("store trust record: %w", err)
	}

	fmt.Printf("pinned %s (%s)\n", deviceID, record.PubKeyFingerprint)
	return nil
}

func runTrustRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openTrustStore(cfg)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}
	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("delete trust record: %w", err)
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}
