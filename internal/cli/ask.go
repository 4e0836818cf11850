package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gopherai-rag/internal/app"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/ragerr"
)

var (
	askStream    bool
	askPromptKey bool
	askJSON      bool
	askSources   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer one question from the indexed document",
	Long: `Embeds the question, retrieves the most similar chunks from the index and
asks the LLM to answer from them. The API key is read from LLM_API_KEY
(or GOOGLE_API_KEY), or typed in with --prompt-key.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.Flags().BoolVar(&askPromptKey, "prompt-key", false, "type the API key instead of reading it from the environment")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer and sources as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "list the retrieved chunks after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, func(cfg *config.Config) error {
		if !askPromptKey {
			return nil
		}
		key, err := readKey(cmd)
		if err != nil {
			return err
		}
		cfg.LLM.APIKey = key
		return nil
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	var answer *app.Answer
	if askStream && !askJSON {
		answer, err = a.Engine.AskStream(ctx, args[0], func(chunk string) error {
			cmd.Print(chunk)
			return nil
		})
		if err == nil {
			cmd.Println()
		}
	} else {
		answer, err = a.Engine.Ask(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	if !askStream {
		cmd.Println(answer.Text)
	}
	if askSources {
		printSources(cmd, answer)
	}
	return nil
}

func printSources(cmd *cobra.Command, answer *app.Answer) {
	cmd.Println()
	cmd.Println("Sources:")
	for i, h := range answer.Sources {
		snippet := strings.Join(strings.Fields(h.Text), " ")
		if r := []rune(snippet); len(r) > 80 {
			snippet = string(r[:80]) + "..."
		}
		cmd.Printf("  [%d] %s p.%d (distance %.3f) %s\n", i+1, h.Metadata.Source, h.Metadata.Page, h.Distance, snippet)
	}
}

// readKey reads the API key without echo on a terminal, or as one line otherwise.
func readKey(cmd *cobra.Command) (string, error) {
	cmd.PrintErr("API key: ")
	defer cmd.PrintErrln()

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("read api key failed: %w", err)
		}
		return validKey(string(raw))
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read api key failed: %w", err)
	}
	return validKey(line)
}

func validKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", fmt.Errorf("%w: no api key entered", ragerr.ErrAuthentication)
	}
	return key, nil
}
