package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/mcpserver"
	"github.com/comigor/tutor-go/internal/tutor"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tutor as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			logger.SetOutput(os.Stderr)

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			sess := a.registry.Create()
			if key := a.cfg.LLM.APIKeyFromEnv(); key != "" {
				sess.SetCredential(key)
			}
			persona := tutor.SystemInstruction(a.cfg.LLM.SystemPrompt)
			return mcpserver.New(sess, persona, version).ServeStdio()
		},
	}
}
