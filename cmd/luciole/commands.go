package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/config"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

func swarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Run a simulated swarm with the live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			f := swarmFlags{}
			f.noTUI, _ = cmd.Flags().GetBool("no-tui")
			f.nodes, _ = cmd.Flags().GetInt("nodes")
			f.scenario, _ = cmd.Flags().GetString("scenario")
			f.seed, _ = cmd.Flags().GetUint64("seed")
			if cmd.Flags().Changed("loss") {
				loss, _ := cmd.Flags().GetFloat64("loss")
				f.loss = &loss
			}
			return executeSwarm(configPath, f)
		},
	}
	cmd.Flags().Bool("no-tui", false, "stream events to stdout instead of the dashboard")
	cmd.Flags().Int("nodes", 0, "override swarm.nodes (0 = use config)")
	cmd.Flags().String("scenario", "", "override swarm.scenario with a YAML timeline")
	cmd.Flags().Uint64("seed", 0, "override swarm.seed (0 = use config)")
	cmd.Flags().Float64("loss", 0, "override radio.loss, the bus drop probability")
	return cmd
}

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run one firefly on the UDP radio",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			id, _ := cmd.Flags().GetInt("id")
			address, _ := cmd.Flags().GetString("address")
			return executeNode(configPath, id, address)
		},
	}
	cmd.Flags().Int("id", 0, "node id used in logs and the journal")
	cmd.Flags().String("address", "", "override radio.address (host:port)")
	return cmd
}

func remoteCmd() *cobra.Command {
	valid := append(protocol.Names(), "a", "b")
	cmd := &cobra.Command{
		Use:       "remote <" + strings.Join(valid, "|") + ">",
		Short:     "Broadcast one coordination code over UDP",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			address, _ := cmd.Flags().GetString("address")
			return executeRemote(configPath, args[0], address)
		},
	}
	cmd.Flags().String("address", "", "override radio.address (host:port)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise the latest session journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return showStatus(configPath)
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold a luciole project (config, scenarios dir)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			created, err := config.ScaffoldProject(dir)
			fmt.Print(formatScaffoldResult(created))
			return err
		},
	}
}

// formatScaffoldResult lists the created paths, or says nothing was needed.
func formatScaffoldResult(created []string) string {
	if len(created) == 0 {
		return "All files already exist — nothing to create.\n"
	}
	var b strings.Builder
	for _, path := range created {
		fmt.Fprintf(&b, "Created %s\n", path)
	}
	return b.String()
}
