package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/history"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/tasks"
)

var (
	version = "0.3.0"
	commit  = ""
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// NewRootCmd builds the command tree. All command output goes to outW so
// tests can capture it.
func NewRootCmd(outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskgridgo",
		Short: "taskgridgo runs dependency-driven analysis pipelines locally",
		Long: "taskgridgo expands a root task into its dependency graph, skips tasks\n" +
			"whose output artifacts already exist, and executes the rest with a\n" +
			"bounded worker pool.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)

	cmd.PersistentFlags().String("config", "", "Path to the pipeline config file (HCL).")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")
	cmd.PersistentFlags().String("log-format", "text", "Log output format: text or json.")
	cmd.PersistentFlags().Int("workers", 0, "Worker pool size; 0 uses the default.")

	cmd.AddCommand(newRunCmd(outW))
	cmd.AddCommand(newTasksCmd(outW))
	cmd.AddCommand(newHistoryCmd(outW))
	cmd.AddCommand(newVersionCmd(outW))
	return cmd
}

func newRunCmd(outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run TASK [KEY=VALUE...]",
		Short: "Run a task and everything it depends on",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			file, err := config.Load(cfgPath)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			rootKind := args[0]
			params, err := ParseParams(args[1:])
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			// Config-file defaults sit under explicit CLI parameters.
			merged := make(map[string]string)
			for k, v := range file.DefaultsFor(rootKind) {
				merged[k] = v
			}
			for k, v := range params {
				merged[k] = v
			}

			scheduler, _ := cmd.Flags().GetString("scheduler")
			appCfg, err := app.NewConfig(app.Config{
				RootKind:  rootKind,
				Params:    merged,
				Scheduler: scheduler,
				Workers:   intSetting(cmd, "workers", file.Workers),
				LogLevel:  stringSetting(cmd, "log-level", file.LogLevel),
				LogFormat: stringSetting(cmd, "log-format", file.LogFormat),
				DataDir:   stringSetting(cmd, "data-dir", file.DataDir),
				FigureDir: stringSetting(cmd, "figure-dir", file.FigureDir),
				HistoryDB: stringSetting(cmd, "history-db", file.HistoryDB),
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			a := app.New(outW, appCfg)
			rep, err := a.Run(cmd.Context())
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			if code := rep.ExitCode(); code != 0 {
				return &ExitError{Code: code, Message: "pipeline finished with failures"}
			}
			return nil
		},
	}

	cmd.Flags().String("scheduler", app.SchedulerLocal, "Scheduling mode; only 'local' is supported.")
	cmd.Flags().String("data-dir", "", "Directory for data artifacts (default out/data).")
	cmd.Flags().String("figure-dir", "", "Directory for rendered figures (default out/figures).")
	cmd.Flags().String("history-db", "", "SQLite file recording run history; empty disables it.")
	return cmd
}

func newTasksCmd(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the registered task kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New()
			tasks.New(artifact.Roots{Data: "out/data", Figures: "out/figures"}).Register(reg)
			for _, kind := range reg.Kinds() {
				fmt.Fprintln(outW, kind)
			}
			return nil
		},
	}
}

func newHistoryCmd(outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			file, err := config.Load(cfgPath)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			dbPath := stringSetting(cmd, "db", file.HistoryDB)
			if dbPath == "" {
				return &ExitError{Code: 2, Message: "no history database configured (use --db or history_db in the config file)"}
			}
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := history.Open(dbPath)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			for _, r := range runs {
				fmt.Fprintf(outW, "%s  %-8s %-40s %s (%d tasks)\n",
					r.Started.Format("2006-01-02 15:04:05"), r.Status, r.Root, r.ID, r.Tasks)
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite history file to read.")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list.")
	return cmd
}

func newVersionCmd(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if commit != "" {
				fmt.Fprintf(outW, "taskgridgo %s (%s)\n", version, commit)
				return
			}
			fmt.Fprintf(outW, "taskgridgo %s\n", version)
		},
	}
}

// ParseParams converts KEY=VALUE arguments into a parameter map. Duplicate
// keys are rejected so a typo cannot silently shadow an earlier value.
func ParseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected KEY=VALUE", arg)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("parameter %q given twice", key)
		}
		params[key] = value
	}
	return params, nil
}

// stringSetting resolves a flag against its config-file counterpart: an
// explicitly set flag wins, otherwise a non-empty file value, otherwise the
// flag default.
func stringSetting(cmd *cobra.Command, name, fileValue string) string {
	flagValue, _ := cmd.Flags().GetString(name)
	if flagChanged(cmd, name) || fileValue == "" {
		return flagValue
	}
	return fileValue
}

func intSetting(cmd *cobra.Command, name string, fileValue int) int {
	flagValue, _ := cmd.Flags().GetInt(name)
	if flagChanged(cmd, name) || fileValue == 0 {
		return flagValue
	}
	return fileValue
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Changed
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f.Changed
	}
	return false
}
