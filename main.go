package main

import (
	"fmt"
	"os"

	"github.com/sdcio/yang-schema-compiler/compile"
	"github.com/sdcio/yang-schema-compiler/xpath"
	"github.com/sdcio/yang-schema-compiler/xpath/grammars/expr"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yang-compile",
		Short: "Compile YANG modules into a resolved schema",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: $HOME/.yang-compile.yaml)")
	root.PersistentFlags().Bool("debug", false, "enable verbose logging")

	cobra.OnInitialize(func() {
		initConfig(root)
	})

	root.AddCommand(newBuildCmd(), newXpathCmd())
	return root
}

func initConfig(root *cobra.Command) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".yang-compile")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("YANG_COMPILE")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}

	if debug, _ := root.PersistentFlags().GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}
}

func newBuildCmd() *cobra.Command {
	var (
		capsLocation string
		skipUnknown  bool
		strict       bool
		warnings     bool
	)

	cmd := &cobra.Command{
		Use:   "build <dir> [dir...]",
		Short: "Compile every YANG module found under the given directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &compile.Config{
				YangLocations: compile.YangDirs(args...),
				CapsLocation:  capsLocation,
				SkipUnknown:   skipUnknown,
			}

			if warnings {
				_, warns, err := compile.CompileDirWithWarnings(nil, cfg)
				for _, w := range warns {
					fmt.Fprintln(cmd.OutOrStdout(), w.String())
				}
				return reportCompileErr(err, strict)
			}

			_, err := compile.CompileDir(nil, cfg)
			return reportCompileErr(err, strict)
		},
	}

	cmd.Flags().StringVar(&capsLocation, "features-dir", compile.DefaultCapsLocation,
		"directory of enabled-feature marker files")
	cmd.Flags().BoolVar(&skipUnknown, "skip-unknown", false,
		"tolerate unresolved imports/includes instead of failing the run")
	cmd.Flags().BoolVar(&strict, "strict", false,
		"exit non-zero on any diagnostic, not only system errors")
	cmd.Flags().BoolVar(&warnings, "warnings", false,
		"also run the XPath warning pass and print its findings")

	return cmd
}

// reportCompileErr prints every diagnostic latched during compilation (see
// compile.DiagnosticList) and decides the process exit status: a system
// diagnostic always fails the run, a semantic one only fails it under
// --strict.
func reportCompileErr(err error, strict bool) error {
	if err == nil {
		return nil
	}
	dl, ok := err.(compile.DiagnosticList)
	if !ok {
		return err
	}
	for _, d := range dl {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	if dl.HasSystemError() || strict {
		return fmt.Errorf("%d diagnostic(s), compilation failed", len(dl))
	}
	return nil
}

func newXpathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xpath <expr>",
		Short: "Build and print the instruction tape for an XPath expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printXpathMachine(args[0])
		},
	}
}

// printXpathMachine parses exprStr as a standalone must/when expression,
// builds its instruction tape via the same ProgBuilder used for schema
// validation, and prints it - useful for inspecting how a must/when/leafref
// expression compiles without running it against a live schema tree.
func printXpathMachine(exprStr string) error {
	prgBldr := xpath.NewProgBuilder(exprStr)
	lexer := expr.NewExprLex(exprStr, prgBldr, nil)

	lexer.Parse()
	prog, err := lexer.CreateProgram(exprStr)
	if err != nil {
		return err
	}

	xpm := xpath.NewMachine(exprStr, prog, "exprMachine")
	fmt.Println(xpm.PrintMachine())
	return nil
}
