package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the flow interactively",
	Long:  `Reads lines from stdin, pushes each into the input source column, and streams the derived columns as they compute.`,
	Run: func(cmd *cobra.Command, args []string) {
		source, _ := cmd.Flags().GetString("source")

		eng, err := loadEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing flow: %v\n", err)
			os.Exit(1)
		}

		tui.PrintBanner()
		render := tui.NewRenderer()
		ctx := cmd.Context()

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "/quit" || input == "/exit" {
				break
			}

			if err := eng.Push(ctx, source, input); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}

			run := eng.Run(ctx)
			streamed := make(map[string]bool)
			for ev := range run.Events() {
				switch ev.Kind {
				case domain.EventStart:
					fmt.Printf("\n[%s]\n", ev.Column)
				case domain.EventDelta:
					fmt.Print(ev.Delta)
					streamed[ev.Column] = true
				case domain.EventValue:
					if streamed[ev.Column] {
						fmt.Println()
					} else {
						fmt.Print(render(ev.Value))
					}
				}
			}
			if err := run.Err(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("source", "s", "user", "Source column receiving input lines")
}
