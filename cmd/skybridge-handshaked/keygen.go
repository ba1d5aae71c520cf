package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/internal/events"
	"github.com/skybridge-project/skybridge/suite"
)

var keygenAlg string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate this device's protocol signing key and print its fingerprint",
	RunE:  runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenAlg, "algorithm", "ed25519", "protocol signing algorithm: ed25519 or mldsa65")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogger(cfg)

	var alg suite.SignatureAlgorithm
	switch keygenAlg {
	case "ed25519":
		alg = suite.SigEd25519
	case "mldsa65":
		alg = suite.SigMLDSA65
	default:
		return fmt.Errorf("unsupported --algorithm %q (want ed25519 or mldsa65)", keygenAlg)
	}

	mgr := newIdentityManager(events.NewLoggingSink(nil))
	pub, _, err := mgr.GetOrCreateProtocolSigningKey(alg)
	if err != nil {
		return fmt.Errorf("generate protocol signing key: %w", err)
	}

	fmt.Printf("algorithm:   %s\n", alg)
	fmt.Printf("fingerprint: %s\n", identity.Fingerprint(pub))

	for _, suiteID := range []suite.ID{suite.X25519Ed25519, suite.MLKEM768MLDSA65, suite.XWingMLDSA} {
		s, lookupErr := suite.Lookup(suiteID)
		if lookupErr != nil {
			continue
		}
		kemPub, kemErr := mgr.GetOrCreateKEMIdentityKey(suiteID)
		if kemErr != nil {
			continue
		}
		fmt.Printf("kem suite %s: %x\n", s.Name, kemPub.PublicKey())
	}

	fmt.Println("\nidentity keys are held in process memory only; rerun keygen after every restart unless this process keeps running as the serve command.")
	return nil
}
