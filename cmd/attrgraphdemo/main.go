package main

import (
	"fmt"
	"os"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
	"github.com/efebarandurmaz/anvil/internal/attrgraph/export"
	"github.com/efebarandurmaz/anvil/internal/attrgraph/layout"
	"github.com/spf13/cobra"
)

func main() {
	var format string

	rootCmd := &cobra.Command{
		Use:   "attrgraphdemo",
		Short: "Worked examples of the incremental attribute graph",
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [A|B|C|D|E|F]",
		Short: "Run one of the graph's testable-property scenarios",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args[0], format)
		},
	}
	scenarioCmd.Flags().StringVar(&format, "export", "", "also print the final snapshot as dot, mermaid, or json")

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Run every scenario in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
				fmt.Printf("=== Scenario %s ===\n", name)
				if err := runScenario(name, format); err != nil {
					return fmt.Errorf("scenario %s: %w", name, err)
				}
				fmt.Println()
			}
			return nil
		},
	}
	allCmd.Flags().StringVar(&format, "export", "", "also print each scenario's final snapshot as dot, mermaid, or json")

	rootCmd.AddCommand(scenarioCmd, allCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(name, format string) error {
	switch name {
	case "A":
		return scenarioA(format)
	case "B":
		return scenarioB(format)
	case "C":
		return scenarioC(format)
	case "D":
		return scenarioD(format)
	case "E":
		return scenarioE(format)
	case "F":
		return scenarioF(format)
	default:
		return fmt.Errorf("unknown scenario %q (want A-F)", name)
	}
}

func scenarioA(format string) error {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	y := attrgraph.CreateInput(g, "y", 3)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + y.Read(g)
	})

	result := sum.Read(g)
	fmt.Printf("sum = %d\n", result)
	return printSnapshot(g, format)
}

func scenarioB(format string) error {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	y := attrgraph.CreateInput(g, "y", 3)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + y.Read(g)
	})
	fmt.Printf("sum = %d\n", sum.Read(g))

	x.Write(g, 10)
	fmt.Println("wrote x := 10")
	fmt.Printf("sum = %d\n", sum.Read(g))
	return printSnapshot(g, format)
}

func scenarioC(format string) error {
	g := attrgraph.New(nil)
	a := attrgraph.CreateInput(g, "a", 1)
	b := attrgraph.CreateRule(g, "b", func(g *attrgraph.Graph) int { return a.Read(g) * 2 })
	c := attrgraph.CreateRule(g, "c", func(g *attrgraph.Graph) int { return b.Read(g) + 1 })

	fmt.Printf("c = %d\n", c.Read(g))
	a.Write(g, 5)
	fmt.Println("wrote a := 5")
	fmt.Printf("c = %d\n", c.Read(g))
	return printSnapshot(g, format)
}

func scenarioD(format string) error {
	g := attrgraph.New(nil)
	a := attrgraph.CreateInput(g, "a", 1)
	b := attrgraph.CreateRule(g, "b", func(g *attrgraph.Graph) int { return a.Read(g) + 1 })
	c := attrgraph.CreateRule(g, "c", func(g *attrgraph.Graph) int { return a.Read(g) + 2 })
	d := attrgraph.CreateRule(g, "d", func(g *attrgraph.Graph) int { return b.Read(g) + c.Read(g) })

	fmt.Printf("d = %d\n", d.Read(g))
	a.Write(g, 10)
	fmt.Println("wrote a := 10")
	fmt.Printf("d = %d\n", d.Read(g))

	gv := g.Snapshot()
	fmt.Printf("edge count = %d\n", len(gv.Edges))
	return printSnapshot(g, format)
}

func scenarioE(format string) error {
	var trace []string
	obs := func(note string, g *attrgraph.Graph) {
		trace = append(trace, note)
	}
	g := attrgraph.New(obs)
	x := attrgraph.CreateInput(g, "x", 2)
	y := attrgraph.CreateInput(g, "y", 3)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + y.Read(g)
	})

	sum.Read(g)
	fmt.Println("observer trace:")
	for _, note := range trace {
		fmt.Printf("  %s\n", note)
	}
	return printSnapshot(g, format)
}

func scenarioF(format string) error {
	g := attrgraph.New(nil)
	tree := layout.Build(g, layout.Size{W: 200, H: 100})

	body1 := tree.Body.Read(g)
	fmt.Printf("body frame (before) = %+v\n", body1)

	tree.Root.Write(g, layout.Size{W: 300, H: 100})
	fmt.Println("wrote size.width := 300")

	body2 := tree.Body.Read(g)
	fmt.Printf("body frame (after)  = %+v\n", body2)

	if body1 == body2 {
		return fmt.Errorf("expected two distinct frame values, got identical frames")
	}
	return printSnapshot(g, format)
}

func printSnapshot(g *attrgraph.Graph, format string) error {
	if format == "" {
		return nil
	}
	gv := g.Snapshot()
	switch format {
	case "dot":
		fmt.Println(export.DOT(gv))
	case "mermaid":
		fmt.Println(export.Mermaid(gv))
	case "json":
		out, err := export.JSON(gv)
		if err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		fmt.Println(string(out))
	default:
		return fmt.Errorf("unknown export format %q (want dot, mermaid, or json)", format)
	}
	return nil
}
