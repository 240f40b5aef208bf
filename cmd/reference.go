/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/reference"
	"github.com/valpere/hingeval/internal/translator"
)

var (
	referenceProvider string
	referenceInput    string
	referenceOutput   string
	referenceDelay    time.Duration
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Fill reference English translations",
	Long: `Translate the base sentence of every triplet that has no reference yet
and store it as reference_en. A failed lookup sets reference_en to null
and records the message in reference_en_error; the next run retries it.

By default Google Translate is used with GOOGLE_APPLICATION_CREDENTIALS or
GOOGLE_API_KEY. Any configured provider may be used instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := referenceSpec(referenceProvider)
		if err != nil {
			return err
		}

		input := firstNonEmpty(referenceInput, cfg.Source)
		output := firstNonEmpty(referenceOutput, cfg.Dataset)
		delay := cfg.ReferenceDelay
		if cmd.Flags().Changed("delay") {
			delay = referenceDelay
		}

		svc, err := translator.New(spec)
		if err != nil {
			return err
		}
		defer closeService(svc)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		stats, err := reference.Run(ctx, input, output, reference.Options{
			Service: svc,
			Config:  translator.ConfigFor(spec),
			Delay:   delay,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Translated: %d\n", stats.Translated)
		fmt.Printf("Failed:     %d\n", stats.Failed)
		fmt.Printf("Skipped:    %d\n", stats.Skipped)
		fmt.Printf("Output:     %s\n", output)
		return nil
	},
}

// referenceSpec resolves the provider for reference lookups. "google" works
// without a config entry.
func referenceSpec(name string) (config.ProviderSpec, error) {
	if spec, ok := cfg.Provider(name); ok {
		return spec, nil
	}
	if name != config.KindGoogle {
		return config.ProviderSpec{}, fmt.Errorf("unknown provider: %s", name)
	}
	return config.ProviderSpec{
		Name:        config.KindGoogle,
		Kind:        config.KindGoogle,
		Credentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		APIKeyEnv:   "GOOGLE_API_KEY",
		Timeout:     30 * time.Second,
	}, nil
}

func init() {
	rootCmd.AddCommand(referenceCmd)

	referenceCmd.Flags().StringVarP(&referenceProvider, "provider", "p", config.KindGoogle, "Provider used for reference lookups")
	referenceCmd.Flags().StringVarP(&referenceInput, "input", "i", "", "Source dataset JSON (default: config source)")
	referenceCmd.Flags().StringVarP(&referenceOutput, "output", "o", "", "Output dataset JSON (default: config dataset)")
	referenceCmd.Flags().DurationVar(&referenceDelay, "delay", reference.DefaultDelay, "Delay between lookups")
}
