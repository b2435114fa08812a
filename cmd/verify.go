package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vboot/internal/crypto"
	"github.com/deploymenttheory/go-vboot/internal/kernel"
)

var (
	verifyFirmwareKey string
	verifyDevMode     bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify-kernel [kernel image]",
	Short: "Verify a signed kernel image",
	Long: `Verify-kernel runs the full verification pipeline over a signed kernel
image: magic check, header checksum, firmware-key signature, config
block signature and kernel payload signature. In developer mode the
firmware-key signature check is skipped; everything else still runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("dev") {
			verifyDevMode = config.DevMode
		}
		keyPath := verifyFirmwareKey
		if keyPath == "" {
			keyPath = config.FirmwareKeyPath
		}

		var firmwareKeyBlob []byte
		if keyPath != "" {
			firmwareKeyBlob, err = os.ReadFile(keyPath)
			if err != nil {
				return fmt.Errorf("failed to read firmware key %s: %w", keyPath, err)
			}
		} else if !verifyDevMode {
			return fmt.Errorf("a firmware key is required unless --dev is set")
		}

		blob, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read kernel image %s: %w", args[0], err)
		}

		v := kernel.NewVerifier(crypto.NewDigestProvider(), crypto.NewVerifier())
		if err := v.VerifyKernel(firmwareKeyBlob, blob, verifyDevMode); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		version := kernel.GetLogicalKernelVersion(blob)
		fmt.Printf("%s: OK (key version %d, kernel version %d)\n",
			args[0], version>>16, version&0xFFFF)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFirmwareKey, "firmware-key", "k", "", "path to the firmware public key blob")
	verifyCmd.Flags().BoolVar(&verifyDevMode, "dev", false, "developer mode: skip the firmware-key signature check")
	rootCmd.AddCommand(verifyCmd)
}
