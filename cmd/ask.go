package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/config"
)

func newAskCmd() *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question through the full pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			log, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			ctx := context.Background()
			p, err := buildPipeline(ctx, cfg, nil, log)
			if err != nil {
				return err
			}
			defer p.close()

			sessionID := sessionFlag
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			answer := p.manager.HandleQuery(ctx, sessionID, strings.Join(args, " "))
			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionFlag, "session", "s", "", "session id to continue (default: a throwaway session)")
	return cmd
}
