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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/hingeval/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.csv> <output.json>",
	Short: "Convert a result table to JSON records",
	Long: `Convert a CSV table into a JSON array with one object per row, keys in
header order. id and triplet_id values become numbers; every other column
stays a string. Malformed rows are skipped with a diagnostic.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == args[1] {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		n, err := convert.Run(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d records to %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
