// Command skybridge-handshaked runs (or administers) a single device's
// handshake endpoint: the long-term identity keys, the trust store
// pinning peer identities, and the WebSocket listener that carries
// handshake and post-handshake session frames.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/skybridge-project/skybridge/internal/cryptoinit"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "skybridge-handshaked",
	Short: "Run and administer a skybridge handshake endpoint",
}

func init() {
	// A missing .env is not an error — it's how production deployments
	// without a local override file behave.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory containing environment config files")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
