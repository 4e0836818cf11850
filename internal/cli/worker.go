package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume index build jobs from RabbitMQ",
	Long: `Runs chunking and indexing for every job queued through POST /api/v1/index/jobs.
Needs rabbitmq.url (or RABBITMQ_URL). Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.StartWorker(ctx); err != nil {
		return err
	}
	cmd.Printf("Waiting for index jobs on %s\n", a.Config.RabbitMQ.IndexJobQueue)
	<-ctx.Done()
	return nil
}
