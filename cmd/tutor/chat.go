package main

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the tutor in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal UI owns stdout.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return errors.Wrap(err, "open log file")
				}
				defer f.Close()
				out = f
			}
			logger.SetOutput(out)

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			sess := a.registry.Create()
			if key := a.cfg.LLM.APIKeyFromEnv(); key != "" {
				sess.SetCredential(key)
			}
			return tui.Run(sess)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}
