package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the column graph visualization",
	Long:  `Inspects the flow and outputs a Mermaid diagram (graph TD) of the columns and their dependency edges.`,
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := loadEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing flow: %v\n", err)
			os.Exit(1)
		}

		var nodes []graph.Node
		for _, name := range eng.Columns() {
			deps, err := eng.Dependencies(name)
			if err != nil {
				fmt.Printf("Error inspecting graph: %v\n", err)
				os.Exit(1)
			}
			nodes = append(nodes, graph.Node{Name: name, Dependencies: deps})
		}

		fmt.Print(graph.GenerateMermaid(nodes))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
