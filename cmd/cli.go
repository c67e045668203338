package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sightread/internal/config"
	"sightread/pkg/build"
)

// ParseArgs loads the configuration file, layers command-line flags on
// top and returns the validated configuration. One-off subcommands
// (list, reset) set Config.Command instead of running the trainer.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	// The config file must load before flags bind so flag defaults
	// reflect the file; the path flag itself is pre-scanned.
	configPath := configPathFromArgs(os.Args[1:])
	options, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Terminal sight-reading trainer with microphone pitch detection",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all saved progress",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "reset"
		},
	}
	rootCmd.AddCommand(resetCmd)

	var dummyConfigPath string
	rootCmd.PersistentFlags().StringVar(&dummyConfigPath, "config", "",
		"Path to config.yaml")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.InputDevice, "device", "d", options.Audio.InputDevice,
		"Input device ID. Use the 'list' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.FramesPerBuffer, "frames-per-buffer", "b", options.Audio.FramesPerBuffer,
		"The number of frames per analysis buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use low latency mode for real-time processing")

	// Practice configuration
	rootCmd.PersistentFlags().StringVarP(&options.Session.Clef, "clef", "c", options.Session.Clef,
		"Clef to practice (treble or bass)")
	rootCmd.PersistentFlags().StringVarP(&options.Session.KeySignature, "key", "k", options.Session.KeySignature,
		"Key signature (C, G, D, A, E, F, Bb, Eb)")
	rootCmd.PersistentFlags().StringVarP(&options.Pitch.Algorithm, "algorithm", "a", options.Pitch.Algorithm,
		"Pitch detection algorithm (autocorrelation or yin)")

	// Recording configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record the practice session to a WAV file")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options.Debug {
		options.LogLevel = "debug"
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// configPathFromArgs pre-scans for --config so the file loads before
// cobra parses the remaining flags.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, "--config=") {
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}
