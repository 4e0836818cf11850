package cli

import (
	"github.com/spf13/cobra"

	"gopherai-rag/internal/config"
)

var indexChunks string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the chunks and build the vector index",
	Long: `Embeds every chunk of the chunk file and replaces the stored index. If any
chunk fails to embed, nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexChunks, "chunks", "", "chunk file to read (default paths.chunk_file)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, func(cfg *config.Config) error {
		if indexChunks != "" {
			cfg.Paths.ChunkFile = indexChunks
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer a.Close()

	idx, err := a.Indexer.BuildFromFile(commandContext(cmd), a.Config.Paths.ChunkFile)
	if err != nil {
		return err
	}
	m := idx.Manifest()
	cmd.Printf("Indexed %d chunks with %s (dimension %d) into %s\n", m.Count, m.Embedder, m.Dimension, a.Store.Describe())
	return nil
}
