package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/joho/godotenv"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/loader"
	"github.com/jusunglee/mrt-go/internal/logger"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
	"github.com/jusunglee/mrt-go/pkg/router"
)

func newApp() *cli.App {
	return &cli.App{
		Name:        "railroute",
		Usage:       "fastest itineraries over staged rail networks",
		Description: "Loads network_<stage>.yml files from a directory and answers route queries",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "networks",
				Usage:   "directory holding the network files",
				EnvVars: []string{"NETWORK_DIR"},
			},
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "network stage to query, defaults to the only loaded one",
			},
			&cli.StringFlag{
				Name:    "transfers",
				Value:   "strict",
				Usage:   "handling of one-directional transfers: strict or mirror",
				EnvVars: []string{"TRANSFER_POLICY"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "debug logging and raw search dumps",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "CONSOLE",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},

		Before: func(c *cli.Context) error {
			_ = godotenv.Load()
			logger.Setup(strings.ToUpper(c.String("log-format")), c.Bool("debug"))
			return nil
		},

		Commands: []*cli.Command{
			routeCommand(),
			batchCommand(),
			stationsCommand(),
			validateCommand(),
		},
	}
}

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "print the fastest itinerary between two station codes",
		ArgsUsage: "START END",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "walk", Usage: "allow walking links"},
			&cli.BoolFlag{Name: "json", Usage: "print the itinerary as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("route needs a START and an END station code", 2)
			}
			start, end := c.Args().Get(0), c.Args().Get(1)

			g, err := loadNetwork(c)
			if err != nil {
				return err
			}

			if c.Bool("debug") {
				res, err := search.FindPath(c.Context, g, start, end, search.Options{AllowWalking: c.Bool("walk")})
				if err == nil {
					pretty.Fprintf(c.App.ErrWriter, "%# v\n", res)
				}
			}

			it, err := router.FindRoute(c.Context, g, start, end, c.Bool("walk"))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return writeJSON(c.App.Writer, it.ConvertToResponse())
			}
			printItinerary(c.App.Writer, it)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "route every query of a CSV file with start,end,allow_walking columns",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "concurrent searches"},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("batch needs a query file", 2)
			}

			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			var queries []models.RouteQuery
			if err := gocsv.Unmarshal(f, &queries); err != nil {
				return fmt.Errorf("reading queries: %w", err)
			}

			config := router.DefaultConfig()
			config.NetworkDir = c.String("dir")
			config.TransferPolicy = c.String("transfers")
			config.MaxWorkers = c.Int("workers")
			client, err := router.NewLocal(config)
			if err != nil {
				return err
			}
			defer client.Close()

			network, err := pickNetwork(c, client.GetNetworks())
			if err != nil {
				return err
			}

			results, err := client.FindRoutes(c.Context, network, queries)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return writeJSON(c.App.Writer, results)
			}
			for _, r := range results {
				if r.Error != "" {
					fmt.Fprintf(c.App.Writer, "%s -> %s: %s\n", r.Query.Start, r.Query.End, r.Error)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s -> %s: %s\n", r.Query.Start, r.Query.End, formatDuration(r.Itinerary.Duration))
			}
			return nil
		},
	}
}

func stationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stations",
		Usage: "list the stations of a network",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "line", Usage: "only stations of this line"},
		},
		Action: func(c *cli.Context) error {
			g, err := loadNetwork(c)
			if err != nil {
				return err
			}

			stations := g.Stations()
			if line := c.String("line"); line != "" {
				var ok bool
				if stations, ok = g.StationsByLine(strings.ToUpper(line)); !ok {
					return fmt.Errorf("line %s not found in %s", line, g.Name())
				}
			}
			for _, st := range stations {
				fmt.Fprintf(c.App.Writer, "%-6s %s\n", st.Code, st.Name)
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "build every network stage and report construction errors",
		Action: func(c *cli.Context) error {
			dir := c.String("dir")
			policy, err := graph.ParseTransferPolicy(c.String("transfers"))
			if err != nil {
				return err
			}

			stages, err := loader.Stages(dir)
			if err != nil {
				return err
			}
			if len(stages) == 0 {
				return fmt.Errorf("no network files in %s", dir)
			}
			coords, err := loader.LoadCoordinatesFile(filepath.Join(dir, loader.CoordinatesFile))
			if err != nil {
				return err
			}

			failed := 0
			for _, stage := range stages {
				data, err := loader.LoadStage(dir, stage, coords)
				if err == nil {
					var g *graph.Graph
					if g, err = graph.Build(data, graph.Options{Transfers: policy}); err == nil {
						fmt.Fprintf(c.App.Writer, "%s: ok (%d stations, %d segments, lines %s)\n",
							stage, len(g.Stations()), g.SegmentCount(), strings.Join(g.Lines(), " "))
						continue
					}
				}
				failed++
				fmt.Fprintf(c.App.Writer, "%s: %v\n", stage, err)
			}

			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d networks failed", failed, len(stages)), 1)
			}
			return nil
		},
	}
}

// loadNetwork builds every stage in --dir and returns the selected one
func loadNetwork(c *cli.Context) (*graph.Graph, error) {
	policy, err := graph.ParseTransferPolicy(c.String("transfers"))
	if err != nil {
		return nil, err
	}

	graphs, err := loader.LoadDir(c.Context, c.String("dir"), graph.Options{Transfers: policy}, 0)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(graphs))
	for name := range graphs {
		names = append(names, name)
	}
	network, err := pickNetwork(c, names)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("network", network).Msg("Selected network")
	return graphs[network], nil
}

func pickNetwork(c *cli.Context, available []string) (string, error) {
	if name := c.String("network"); name != "" {
		for _, n := range available {
			if n == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("network %s not found in %s", name, c.String("dir"))
	}
	if len(available) != 1 {
		return "", fmt.Errorf("%d networks loaded, choose one with --network", len(available))
	}
	return available[0], nil
}

func printItinerary(w io.Writer, it *models.Itinerary) {
	for _, line := range it.Directions() {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Total time: %s\n", formatDuration(it.Duration))

	if d := it.Distance; d != nil {
		fmt.Fprintf(w, "Distance: %.2f km travelled, %.2f km direct", d.PathMetres/1000, d.HaversineMetres/1000)
		if d.Circuity != nil {
			fmt.Fprintf(w, ", circuity %.2f", *d.Circuity)
		}
		fmt.Fprintln(w)
	}
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%ds (%dm %02ds)", seconds, seconds/60, seconds%60)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
