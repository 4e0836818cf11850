package cli

import (
	"github.com/spf13/cobra"

	"gopherai-rag/internal/app"
	"gopherai-rag/internal/config"
)

var chunkOut string

var chunkCmd = &cobra.Command{
	Use:   "chunk [document]",
	Short: "Split a document into overlapping chunks",
	Long: `Extracts the text of a PDF (or .txt/.md file), splits it into overlapping
windows and writes them to the chunk file as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkOut, "out", "o", "", "chunk file to write (default paths.chunk_file)")
	rootCmd.AddCommand(chunkCmd)
}

// runChunk needs only the chunking settings, so it never touches the embedder
// or any backing service.
func runChunk(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv(cmd, func(cfg *config.Config) error {
		if len(args) == 1 {
			cfg.Paths.Document = args[0]
		}
		if chunkOut != "" {
			cfg.Paths.ChunkFile = chunkOut
		}
		return nil
	})
	if err != nil {
		return err
	}

	svc := app.NewChunkService(cfg.Chunk.Size, cfg.Chunk.Overlap, log.With("component", "chunker"))
	chunks, err := svc.Run(commandContext(cmd), cfg.Paths.Document, cfg.Paths.ChunkFile)
	if err != nil {
		return err
	}
	cmd.Printf("Wrote %d chunks from %s to %s\n", len(chunks), cfg.Paths.Document, cfg.Paths.ChunkFile)
	return nil
}
