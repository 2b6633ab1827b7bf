package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tarjim/tarjim/internal/extract"
	"github.com/tarjim/tarjim/internal/job"
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Enqueue a document for processing by a worker",
	Long: `Submit creates a queued job in the job store and prints its id. A
running worker picks the job up and advances it through the pipeline;
poll it with "tarjim jobs <id>".

Examples:
  tarjim submit scan.pdf
  tarjim submit contract.docx --engine ensemble --batch-size 16`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String("engine", "", "OCR engine (paddle, tesseract, ensemble)")
	submitCmd.Flags().String("source-lang", "", "source language tag (e.g. ara_Arab)")
	submitCmd.Flags().String("target-lang", "", "target language tag (e.g. eng_Latn)")
	submitCmd.Flags().Int("batch-size", 0, "translation batch size")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	inputFile := args[0]
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}
	fileType := extract.DetectFileType(inputFile)
	if fileType == extract.FileTypeUnknown {
		return fmt.Errorf("unsupported file type: %s", inputFile)
	}

	// The worker may run from a different directory; store an absolute
	// source path.
	absPath, err := filepath.Abs(inputFile)
	if err != nil {
		return err
	}

	engine, _ := cmd.Flags().GetString("engine")
	sourceLang, _ := cmd.Flags().GetString("source-lang")
	targetLang, _ := cmd.Flags().GetString("target-lang")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	cfg := GetConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	j := job.New(absPath, string(fileType), jobConfig(cfg, engine, sourceLang, targetLang, batchSize))
	if err := store.Create(cmd.Context(), j); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	fmt.Println(j.ID)
	return nil
}
