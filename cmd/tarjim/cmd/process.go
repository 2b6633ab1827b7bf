package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/extract"
	"github.com/tarjim/tarjim/internal/job"
	"github.com/tarjim/tarjim/internal/translate"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Process a document end to end in this process",
	Long: `Process runs the full pipeline synchronously: extraction (with OCR
where pages need it), Arabic text normalization, batch translation and
statistics. The job record passes through the same states as it would
under a worker; the translated document is written to --output or
stdout.

Examples:
  tarjim process scan.pdf
  tarjim process report.docx --format yaml --output report.yaml
  tarjim process photo.jpg --engine tesseract --target-lang eng_Latn`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("engine", "", "OCR engine (paddle, tesseract, ensemble)")
	processCmd.Flags().String("source-lang", "", "source language tag (e.g. ara_Arab)")
	processCmd.Flags().String("target-lang", "", "target language tag (e.g. eng_Latn)")
	processCmd.Flags().Int("batch-size", 0, "translation batch size")
	processCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text, csv)")
	processCmd.Flags().StringP("output", "o", "", "write translated document to file (default stdout)")
	processCmd.Flags().String("source-output", "", "also write the extracted source document to file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputFile := args[0]
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}
	if ft := extract.DetectFileType(inputFile); ft == extract.FileTypeUnknown {
		return fmt.Errorf("unsupported file type: %s", inputFile)
	}

	engine, _ := cmd.Flags().GetString("engine")
	sourceLang, _ := cmd.Flags().GetString("source-lang")
	targetLang, _ := cmd.Flags().GetString("target-lang")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")
	sourceOutput, _ := cmd.Flags().GetString("source-output")

	cfg := GetConfig()
	store := job.NewMemStore()
	defer func() { _ = store.Close() }()

	trCfg := cfg.Translate
	trCfg.Progress = translate.NewConsoleProgressCallback(os.Stderr, "Translating: ")
	runner, ocrReg := buildRunner(cfg, store, trCfg)
	defer func() { _ = ocrReg.Close() }()

	ctx := cmd.Context()
	j := job.New(inputFile, string(extract.DetectFileType(inputFile)),
		jobConfig(cfg, engine, sourceLang, targetLang, batchSize))
	if err := store.Create(ctx, j); err != nil {
		return err
	}

	// Claim through the store so the in-process run passes through the
	// same job-record states as a worker run.
	claimed, err := store.Claim(ctx)
	if err != nil {
		return err
	}
	if err := runner.Execute(ctx, claimed); err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	finished, err := store.Get(ctx, j.ID)
	if err != nil {
		return err
	}

	if sourceOutput != "" {
		if err := writeDocument(finished.SourceDoc, format, sourceOutput); err != nil {
			return err
		}
	}
	if err := writeDocument(finished.TranslatedDoc, format, outputFile); err != nil {
		return err
	}

	if finished.Stats != nil {
		fmt.Fprintf(os.Stderr, "Pages: %d  Blocks: %d  Characters: %d -> %d\n",
			finished.Stats.Source.TotalPages,
			finished.Stats.Source.TotalBlocks,
			finished.Stats.Source.TotalCharacters,
			finished.Stats.Translated.TotalCharacters)
	}
	return nil
}

// writeDocument renders a document and writes it to path, or stdout when
// path is empty.
func writeDocument(doc *document.Document, format, path string) error {
	var (
		out string
		err error
	)
	switch format {
	case "json":
		out, err = document.ToJSON(doc)
	case "yaml":
		out, err = document.ToYAML(doc)
	case "text":
		out, err = document.ToPlainText(doc)
	case "csv":
		out, err = document.ToCSV(doc)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Println(out)
		return nil
	}
	return os.WriteFile(path, []byte(out), 0o600)
}
