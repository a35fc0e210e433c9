package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/noisemachine/internal/config"
	"github.com/satindergrewal/noisemachine/internal/noise"
	"github.com/satindergrewal/noisemachine/internal/observability"
	"github.com/satindergrewal/noisemachine/internal/soundfile"
)

const banner = "\n*** noisemachine ***\nA noise generator which generates clips of white, pink and red noise\n\n"

// app carries state shared by the command tree after PersistentPreRunE.
type app struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func usage(maxDuration int) string {
	return fmt.Sprintf(`usage: noisemachine <outfile> <type> <duration> <samplerate>
where type =:
       0 = white
       1 = pink
       2 = red (brown)
duration   = length of outfile in seconds (0 to %d)
samplerate = sample rate of outfile in Hz
outfile    = one of %v

`, maxDuration, soundfile.SupportedExtensions)
}

// usageError asks execute to print the usage text after the message.
type usageError struct {
	err         error
	maxDuration int
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "noisemachine <outfile> <type> <duration> <samplerate>",
		Short:   "Render white, pink or red noise to a sound file",
		Version: Version,

		// Counted in RunE so the usage text can quote the configured bound.
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(a.cfgFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.InitializeLogger(cfg.Logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				return &usageError{
					err:         fmt.Errorf("%w: got %d, want 4", noise.ErrArgumentCount, len(args)),
					maxDuration: a.cfg.Synth.MaxDuration,
				}
			}
			return a.render(cmd.OutOrStdout(), args)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./noisemachine.yaml)")
	// Positional arguments may be negative numbers; stop flag parsing at the first one.
	cmd.Flags().SetInterspersed(false)
	cmd.SetVersionTemplate("noisemachine {{.Version}}\n")

	cmd.AddCommand(newServeCmd(a))
	return cmd
}

// render synthesizes one clip and writes it to outfile. Every argument is
// validated before any sample buffer is allocated.
func (a *app) render(out io.Writer, args []string) error {
	outfile := args[0]
	fmt.Fprint(out, banner)

	lim := noise.Limits{MaxDuration: a.cfg.Synth.MaxDuration, MaxSampleRate: a.cfg.Synth.MaxSampleRate}
	req, err := noise.ParseRequest(args[1], args[2], args[3], lim)
	if err != nil {
		return err
	}
	format, err := soundfile.FormatFromPath(outfile)
	if err != nil {
		return err
	}

	src := noise.NewSource(a.cfg.Synth.Seed)
	a.logger.Debug("Random source ready", zap.Uint64("seed", src.Seed()))

	fmt.Fprintf(out, "Generating %s Noise...\n\n", req.Type)
	clip, err := noise.NewSynthesizer(src, lim, a.logger).Synthesize(req)
	if err != nil {
		return err
	}

	if err := soundfile.WriteFile(outfile, soundfile.Props{SampleRate: req.SampleRate, Format: format}, clip.Samples); err != nil {
		return err
	}

	a.logger.Info("Clip written",
		zap.String("path", outfile),
		zap.Stringer("format", format),
		zap.Stringer("type", req.Type),
		zap.Int("frames", len(clip.Samples)),
		zap.Int("sample_rate", req.SampleRate),
		zap.Uint64("seed", src.Seed()))
	fmt.Fprintf(out, "%s Noise Generated!\n\n", req.Type)
	return nil
}

// execute runs the command tree and maps the outcome to an exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer observability.Sync()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error! %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprint(stderr, usage(ue.maxDuration))
		}
		return 1
	}
	return 0
}
