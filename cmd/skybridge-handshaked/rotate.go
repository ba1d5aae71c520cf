package main

import (
	"fmt"

	"github.com/spf13/cobra"

	skcrypto "github.com/skybridge-project/skybridge/crypto"
	"github.com/skybridge-project/skybridge/crypto/rotation"
	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/suite"
)

var rotateAlg string

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate this device's protocol signing key",
	Long: "Rotate generates a new protocol signing key and replaces the\n" +
		"stored one for the given algorithm. It does not notify any peer;\n" +
		"peers that pinned the previous key reject the new one with an\n" +
		"identity mismatch until their trust record for this device is replaced.",
	RunE: runRotate,
}

func init() {
	rotateCmd.Flags().StringVar(&rotateAlg, "algorithm", "ed25519", "protocol signing algorithm to rotate: ed25519 or mldsa65")
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogger(cfg)

	var alg suite.SignatureAlgorithm
	switch rotateAlg {
	case "ed25519":
		alg = suite.SigEd25519
	case "mldsa65":
		alg = suite.SigMLDSA65
	default:
		return fmt.Errorf("unsupported --algorithm %q (want ed25519 or mldsa65)", rotateAlg)
	}

	storage := skcrypto.NewDefaultStorage()
	storageID := "protocol-signing/" + string(alg)

	// Seed the in-memory store from a fresh key so Rotate has a
	// previous key to replace; a real deployment backs storage with
	// whatever key material the running serve process already holds.
	mgr := identity.NewManager(storage, nil)
	if _, _, err := mgr.GetOrCreateProtocolSigningKey(alg); err != nil {
		return fmt.Errorf("prepare key for rotation: %w", err)
	}

	rotator := rotation.NewKeyRotator(storage)
	newKey, err := rotator.Rotate(storageID)
	if err != nil {
		return fmt.Errorf("rotate key: %w", err)
	}

	pub, err := identity.PublicKeyBytes(newKey)
	if err != nil {
		return fmt.Errorf("read rotated public key: %w", err)
	}
	fmt.Printf("rotated %s key; new fingerprint: %s\n", alg, identity.Fingerprint(pub))
	return nil
}
