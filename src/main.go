package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"noctrace/src/misc"
	"noctrace/src/simulator/noc"
)

var (
	configPath  string
	tracePath   string
	outDir      string
	label       string
	verbose     bool
	dumpDetail  bool
)

func main() {
	root := &cobra.Command{
		Use:   "noctrace",
		Short: "Behavior-driven NoC accelerator simulator",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to the YAML hardware-description config")
	root.Flags().StringVar(&tracePath, "trace", "", "path to a single JSON task trace (task id 0); omit to load task_config_path_list from the config instead")
	root.Flags().StringVar(&outDir, "out", ".", "directory to write run artifacts into")
	root.Flags().StringVar(&label, "label", "run", "label used in the run artifact filename")
	root.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	root.Flags().BoolVar(&dumpDetail, "dump-detail", false, "also write a gob-encoded per-communication/per-wire detail dump")
	_ = root.MarkFlagRequired("config")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		misc.SetLogLevel(logrus.DebugLevel)
	}
	logger := misc.NewComponentLogger("main")

	config, err := misc.LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	behaviors, err := loadBehaviors(config)
	if err != nil {
		return err
	}

	built, err := noc.Build(config, behaviors)
	if err != nil {
		return err
	}

	logger.Infof("simulating %d tiles, %d communications", len(built.Tiles), len(built.Comms))

	started := time.Now()
	simulatedEnd, err := built.Array.Run()
	if err != nil {
		logger.Errorf("simulation failed: %v", err)
		return err
	}
	wallClock := time.Since(started).Seconds()

	if err := built.Array.CheckFinish(); err != nil {
		logger.Errorf("post-run invariant check failed: %v", err)
		return err
	}

	// The simulated clock counts nanoseconds (bandwidth is bits per ns);
	// the summary reports milliseconds.
	path, err := noc.WriteSummary(outDir, label, config.MappingStrategy, config.ScheduleStrategy, config.PathGenerator, wallClock, simulatedEnd/1e6)
	if err != nil {
		return err
	}
	logger.Infof("wrote summary to %s", path)

	if dumpDetail {
		detailPath := fmt.Sprintf("%s/detail_%s_%s_%s_%s.gob", outDir, label, config.MappingStrategy, config.ScheduleStrategy, config.PathGenerator)
		commInfo := noc.CollectCommunicationInfo(built.Comms)
		wireInfo := noc.CollectWireRanges(built.WireNetwork.Wires())
		if err := noc.DumpDetail(detailPath, commInfo, wireInfo); err != nil {
			return err
		}
		logger.Infof("wrote detail dump to %s", detailPath)
	}
	return nil
}

// loadBehaviors resolves the full, flattened, multi-task behavior list
// noc.Build expects (§3, §6). --trace, when given, loads a single trace as
// task id 0; otherwise every entry of task_config_path_list is loaded in
// order, that entry's index in the list becoming its task id, and every
// task's behaviors are concatenated into one flattened list.
func loadBehaviors(config *misc.Config) ([]noc.TileBehavior, error) {
	if tracePath != "" {
		raw, err := os.ReadFile(tracePath)
		if err != nil {
			return nil, misc.NewConfigError("read trace file %s: %v", tracePath, err)
		}
		return noc.DecodeTaskTraceForTask(raw, 0)
	}
	if len(config.TaskConfigPathList) == 0 {
		return nil, misc.NewConfigError("no trace supplied: pass --trace or set task_config_path_list in the config")
	}

	var all []noc.TileBehavior
	for taskID, path := range config.TaskConfigPathList {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, misc.NewConfigError("read task trace file %s: %v", path, err)
		}
		behaviors, err := noc.DecodeTaskTraceForTask(raw, taskID)
		if err != nil {
			return nil, err
		}
		all = append(all, behaviors...)
	}
	return all, nil
}
