package cli

import (
	"github.com/spf13/cobra"

	"gopherai-rag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the document in the terminal",
	Long: `Opens an interactive chat. Each question is answered from the index; type
/reload after rebuilding the index and /quit to leave. When no API key is
configured the chat asks for one first.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	a.LoadIndex(ctx)

	return tui.Run(ctx, tui.Config{
		Engine:  a.Engine,
		NeedKey: !a.Generator.HasCredential(),
		UseKey: func(key string) tui.Engine {
			a.UseAPIKey(key)
			a.LoadIndex(ctx)
			return a.Engine
		},
	})
}
