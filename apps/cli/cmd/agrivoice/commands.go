package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"agrivoice/packages/go/backend/di"
	"agrivoice/packages/go/backend/i18n"
	"agrivoice/packages/go/backend/media"
	"agrivoice/packages/go/backend/session"
)

type globalFlags struct {
	configPath string
	logLevel   string
	language   string
}

type containerFactory func(ctx context.Context, flags globalFlags, opts ...di.ContainerOption) (*di.Container, error)

type cli struct {
	flags   globalFlags
	factory containerFactory
}

func newRootCommand(factory containerFactory) *cobra.Command {
	c := &cli{factory: factory}

	root := &cobra.Command{
		Use:           "agrivoice",
		Short:         "Multilingual voice assistant for farmers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.flags.configPath, "config", "", "YAML config file (default: built-in defaults and AGRIVOICE_* env)")
	root.PersistentFlags().StringVar(&c.flags.logLevel, "log-level", "", "log level (default warn)")
	root.PersistentFlags().StringVarP(&c.flags.language, "lang", "l", "", "language to switch to before running (en, hi, pa)")

	root.AddCommand(
		c.languagesCmd(),
		c.languageCmd(),
		c.translateCmd(),
		c.askCmd(),
		c.listenCmd(),
		c.speakCmd(),
	)
	return root
}

// withContainer builds the services for one command and applies --lang.
func (c *cli) withContainer(cmd *cobra.Command, fn func(*di.Container) error, opts ...di.ContainerOption) (err error) {
	ctx := cmd.Context()
	container, err := c.factory(ctx, c.flags, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := container.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if c.flags.language != "" {
		if err := container.Localizer.SetLanguage(ctx, i18n.LanguageCode(c.flags.language)); err != nil {
			return err
		}
	}
	return fn(container)
}

func (c *cli) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd, func(container *di.Container) error {
				current := container.Localizer.CurrentLanguage()
				out := cmd.OutOrStdout()
				for _, d := range container.Localizer.Languages() {
					marker := " "
					if d.Code == current {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %-3s %-10s %s\n", marker, d.Code, d.EnglishName, d.DisplayName)
				}
				return nil
			})
		},
	}
}

func (c *cli) languageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "language [code]",
		Short: "Show or change the remembered language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd, func(container *di.Container) error {
				if len(args) == 1 {
					if err := container.Localizer.SetLanguage(cmd.Context(), i18n.LanguageCode(args[0])); err != nil {
						return err
					}
				}
				d := container.Localizer.CurrentDescriptor()
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", d.Code, d.DisplayName)
				return nil
			})
		},
	}
}

func (c *cli) translateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate KEY [name=value...]",
		Short: "Resolve a translation key in the current language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return c.withContainer(cmd, func(container *di.Container) error {
				fmt.Fprintln(cmd.OutOrStdout(), container.Localizer.T(args[0], params))
				return nil
			})
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a typed question and hear the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd, func(container *di.Container) error {
				if err := container.Orchestrator.Ask(cmd.Context(), strings.Join(args, " ")); err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), container.Localizer, container.Orchestrator.Session())
				return nil
			})
		},
	}
}

func (c *cli) listenCmd() *cobra.Command {
	var audioPath string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run the full voice pipeline on a recorded question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []di.ContainerOption
			if audioPath != "" {
				opts = append(opts, di.WithMicrophone(media.NewFileMicrophone(audioPath)))
			}
			return c.withContainer(cmd, func(container *di.Container) error {
				ctx := cmd.Context()
				orch := container.Orchestrator
				if err := orch.StartListening(ctx); err != nil {
					printSession(cmd.OutOrStdout(), container.Localizer, orch.Session())
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), container.Localizer.T("voice.listening", nil))

				err := orch.StopListening(ctx)
				printSession(cmd.OutOrStdout(), container.Localizer, orch.Session())
				return err
			}, opts...)
		},
	}
	cmd.Flags().StringVar(&audioPath, "audio", "", "WAV file to use as the recorded question")
	return cmd
}

func (c *cli) speakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speak TEXT",
		Short: "Read text aloud in the current language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withContainer(cmd, func(container *di.Container) error {
				return container.Orchestrator.Speak(cmd.Context(), strings.Join(args, " "))
			})
		},
	}
}

type translator interface {
	T(key string, params map[string]any) string
}

func printSession(out io.Writer, tr translator, s session.VoiceSession) {
	if s.Transcript != "" {
		fmt.Fprintln(out, tr.T("voice.youAsked", map[string]any{"question": s.Transcript}))
	}
	if s.Response != "" {
		fmt.Fprintln(out, s.Response)
	}
	if s.Fallback {
		fmt.Fprintln(out, tr.T("common.offline", nil))
	}
	if s.Error != "" {
		fmt.Fprintln(out, s.Error)
	}
}

func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q must look like name=value", pair)
		}
		params[name] = value
	}
	return params, nil
}
