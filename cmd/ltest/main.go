// Command ltest drives the linearizability checking engine against one
// of the built-in reference targets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thanhhung97/ltest/checker"
	"github.com/thanhhung97/ltest/examples/blockingqueue"
	"github.com/thanhhung97/ltest/examples/queue"
	"github.com/thanhhung97/ltest/examples/register"
	"github.com/thanhhung97/ltest/internal/config"
	"github.com/thanhhung97/ltest/report"
	"github.com/thanhhung97/ltest/scheduler"
	"github.com/thanhhung97/ltest/task"
)

var rootCmd = &cobra.Command{
	Use:   "ltest",
	Short: "Linearizability checker for concurrent data structure targets",
	Long:  "ltest drives a target through many scheduled interleavings and checks each resulting history against a reference sequential specification.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default .ltest.yaml)")
	rootCmd.PersistentFlags().Int("threads", 0, "override configured thread count")
	rootCmd.PersistentFlags().Int("rounds", 0, "override configured round count")
	rootCmd.PersistentFlags().Int("step-budget", 0, "override configured per-round step budget")
	rootCmd.PersistentFlags().Int64("seed", 0, "override configured random seed")

	rootCmd.AddCommand(runCmd)
}

var targets = map[string]func() scheduler.Config{
	"register": func() scheduler.Config {
		return scheduler.Config{
			NewTarget: func() any { return &register.Register{} },
			Builders: func(thread int) []*task.Builder {
				return []*task.Builder{register.AddBuilder(), register.AddBuilder(), register.GetBuilder()}
			},
		}
	},
	"buggy-register": func() scheduler.Config {
		return scheduler.Config{
			NewTarget: func() any { return &register.BuggyRegister{} },
			Builders: func(thread int) []*task.Builder {
				return []*task.Builder{register.BuggyAddBuilder(), register.BuggyAddBuilder(), register.BuggyGetBuilder()}
			},
		}
	},
	"queue": func() scheduler.Config {
		return scheduler.Config{
			NewTarget: func() any { return &queue.Queue{} },
			Builders: func(thread int) []*task.Builder {
				if thread == 0 {
					return []*task.Builder{queue.PushBuilder(1), queue.PushBuilder(2)}
				}
				return []*task.Builder{queue.PopBuilder(), queue.PopBuilder()}
			},
		}
	},
	"buggy-queue": func() scheduler.Config {
		return scheduler.Config{
			NewTarget: func() any { return &queue.BuggyQueue{} },
			Builders: func(thread int) []*task.Builder {
				if thread == 0 {
					return []*task.Builder{queue.BuggyPushBuilder(1), queue.BuggyPopBuilder()}
				}
				return []*task.Builder{queue.BuggyPushBuilder(2), queue.BuggyPopBuilder()}
			},
		}
	},
	"blocking-queue": func() scheduler.Config {
		return scheduler.Config{
			NewTarget: func() any { return &blockingqueue.BlockingQueue{} },
			Builders: func(thread int) []*task.Builder {
				if thread == 0 {
					return []*task.Builder{blockingqueue.PutBuilder(1), blockingqueue.PutBuilder(2)}
				}
				return []*task.Builder{blockingqueue.TakeBuilder(), blockingqueue.TakeBuilder()}
			},
		}
	},
}

var runCmd = &cobra.Command{
	Use:       "run [target]",
	Short:     "Run the engine against a built-in target",
	ValidArgs: []string{"register", "buggy-register", "queue", "buggy-queue", "blocking-queue"},
	Args:      cobra.ExactValidArgs(1),
	RunE:      runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	run, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("threads"); v > 0 {
		run.Threads = v
	}
	if v, _ := cmd.Flags().GetInt("rounds"); v > 0 {
		run.Rounds = v
	}
	if v, _ := cmd.Flags().GetInt("step-budget"); v > 0 {
		run.StepBudget = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		run.Seed = v
	}

	target := args[0]
	newCfg, ok := targets[target]
	if !ok {
		return fmt.Errorf("ltest: unknown target %q", target)
	}
	cfg := newCfg()
	cfg.Threads = run.Threads
	cfg.Rounds = run.Rounds
	cfg.StepBudget = run.StepBudget
	cfg.Seed = run.Seed

	spec := specFor(target)
	res := scheduler.New(cfg, spec).Run()

	if err := report.WriteResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}

	if code := report.ExitCode(res); code != 0 {
		os.Exit(code)
	}
	return nil
}

func specFor(target string) *checker.Spec {
	switch target {
	case "register", "buggy-register":
		return register.Spec()
	case "blocking-queue":
		return blockingqueue.Spec()
	default:
		return queue.Spec()
	}
}

func main() {
	Execute()
}
