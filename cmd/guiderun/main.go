package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/guiderun/guiderun/internal/config"
	"github.com/guiderun/guiderun/internal/executor"
	"github.com/guiderun/guiderun/internal/parser"
	"github.com/guiderun/guiderun/internal/render"
	"github.com/guiderun/guiderun/internal/runner"
	"github.com/guiderun/guiderun/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "guiderun",
	Short: "Executable, verifiable Markdown tutorials",
	Long: `Write. Generate. Run.

guiderun turns annotated Markdown documents into executable tutorials:
code blocks marked with gr-run are executed and validated, blocks marked
with gr-file are written to disk, and the whole document doubles as a
regression test for your CLI workflows.`,
	SilenceUsage: true,
}

var execCmd = &cobra.Command{
	Use:   "exec <tutorial>",
	Short: "Execute a tutorial from a Markdown file, YAML file, or URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

var renderCmd = &cobra.Command{
	Use:   "render <tutorial.yaml>",
	Short: "Render a YAML tutorial to annotated Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var workflowCmd = &cobra.Command{
	Use:   "workflow <tutorial.yaml>",
	Short: "Generate a GitHub Actions workflow for a tutorial",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflow,
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a sample tutorial",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.PersistentFlags().String("verbosity", "", "Verbosity level: quiet, normal, verbose, debug")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Minimal output (shorthand for --verbosity quiet)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity (-v, -vv)")
	rootCmd.PersistentFlags().Bool("debug", false, "Maximum output (shorthand for --verbosity debug)")
	rootCmd.PersistentFlags().String("format", "", "Output format: text or jsonl")

	execCmd.Flags().Int("step", 0, "Run a single step by number (default: all steps)")
	execCmd.Flags().Bool("ci", false, "CI mode: stop the run at the first failed block")
	execCmd.Flags().StringArray("var", nil, "Initial variable as NAME=VALUE (repeatable)")
	execCmd.Flags().String("workdir", "", "Base working directory for the run")
	execCmd.Flags().Bool("allow-outside", false, "Allow file operations outside the working directory")
	execCmd.Flags().Bool("guided", false, "Step through the tutorial interactively")

	renderCmd.Flags().StringP("output", "o", "", "Output Markdown file (default: stdout)")
	renderCmd.Flags().StringP("template", "t", "", "Custom template file")

	workflowCmd.Flags().StringP("output", "o", "", "Output workflow YAML file (default: stdout)")
	workflowCmd.Flags().StringP("template", "t", "", "Custom template file")

	initCmd.Flags().StringP("output", "o", "", "Output directory (default: tutorials/)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing tutorial file")

	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("format"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// applyOutputFlags resolves verbosity and format from the persistent flags
func applyOutputFlags(cmd *cobra.Command) {
	if level, _ := cmd.Flags().GetString("verbosity"); level != "" {
		config.SetVerbosity(config.VerbosityFromString(level))
	} else if debug, _ := cmd.Flags().GetBool("debug"); debug {
		config.SetVerbosity(config.VerbosityDebug)
	} else if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		config.SetVerbosity(config.VerbosityQuiet)
	} else if count, _ := cmd.Flags().GetCount("verbose"); count > 0 {
		if count >= 3 {
			config.SetVerbosity(config.VerbosityDebug)
		} else {
			config.SetVerbosity(config.VerbosityVerbose)
		}
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		config.SetOutputFormat(format)
	}
}

// loadTutorial parses a tutorial from a URL, a YAML authoring file, or a
// Markdown file.
func loadTutorial(source string) (*parser.Tutorial, error) {
	p := parser.NewParser()

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.ParseURL(source)
	}

	if strings.HasSuffix(source, ".yaml") || strings.HasSuffix(source, ".yml") {
		doc, err := render.LoadTutorial(source)
		if err != nil {
			return nil, err
		}
		markdown, err := render.Markdown(doc, "")
		if err != nil {
			return nil, err
		}
		return p.Parse(markdown, source), nil
	}

	return p.ParseFile(source)
}

func runExec(cmd *cobra.Command, args []string) error {
	applyOutputFlags(cmd)

	tutorial, err := loadTutorial(args[0])
	if err != nil {
		return err
	}

	vars, err := parseVarFlags(cmd)
	if err != nil {
		return err
	}

	workdir, _ := cmd.Flags().GetString("workdir")
	if workdir == "" {
		workdir = config.GetWorkdir()
	}
	allowOutside, _ := cmd.Flags().GetBool("allow-outside")
	if !allowOutside {
		allowOutside = config.GetAllowOutside()
	}

	exec := executor.NewExecutor(workdir, executor.NewVariableStore(vars), allowOutside)

	if guided, _ := cmd.Flags().GetBool("guided"); guided {
		return ui.RunGuided(tutorial, exec)
	}

	step, _ := cmd.Flags().GetInt("step")
	ci, _ := cmd.Flags().GetBool("ci")

	r := runner.New(exec, runner.Options{
		Step:   step,
		CI:     ci,
		Format: config.GetOutputFormat(),
		Out:    os.Stdout,
	})
	report, err := r.Run(context.Background(), tutorial)
	if err != nil {
		return err
	}
	if !report.Success() {
		return fmt.Errorf("tutorial failed: %d of %d blocks failed", report.Failed, report.Failed+report.Passed)
	}
	return nil
}

func parseVarFlags(cmd *cobra.Command) (map[string]string, error) {
	pairs, _ := cmd.Flags().GetStringArray("var")
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q (expected NAME=VALUE)", pair)
		}
		vars[name] = value
	}
	return vars, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := render.LoadTutorial(args[0])
	if err != nil {
		return err
	}
	templatePath, _ := cmd.Flags().GetString("template")
	markdown, err := render.Markdown(doc, templatePath)
	if err != nil {
		return err
	}
	return writeOutput(cmd, markdown, "Rendered to: %s\n")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	doc, err := render.LoadTutorial(args[0])
	if err != nil {
		return err
	}
	templatePath, _ := cmd.Flags().GetString("template")
	workflow, err := render.Workflow(doc, args[0], templatePath)
	if err != nil {
		return err
	}
	return writeOutput(cmd, workflow, "Generated workflow: %s\n")
}

// writeOutput writes rendered text to the -o file, or stdout when unset
func writeOutput(cmd *cobra.Command, content, doneFormat string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf(doneFormat, output)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	name := "getting-started"
	if len(args) > 0 {
		name = args[0]
	}
	outputDir, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	path, err := render.Scaffold(name, outputDir, force)
	if err != nil {
		return err
	}

	fmt.Printf("Created tutorial: %s\n\n", path)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit the tutorial: %s\n", path)
	fmt.Printf("  2. Render to Markdown: guiderun render %s\n", path)
	fmt.Printf("  3. Execute the tutorial: guiderun exec %s\n", path)
	fmt.Printf("  4. Generate a CI workflow: guiderun workflow %s\n", path)
	return nil
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
