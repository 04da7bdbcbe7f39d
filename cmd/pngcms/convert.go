package main

import (
	"fmt"
	"io"

	"github.com/davesmith10/pngcms/internal/pipeline"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Re-encode a PNG with new depth, compression or interlacing",
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringP("input", "i", "", "Input PNG file, file:// URI or - for stdin")
	convertCmd.Flags().StringP("output", "o", "", "Output PNG file, file:// URI or - for stdout")
	addSaveFlags(convertCmd)
	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	if err := checkSaver(outputPath); err != nil {
		return err
	}
	save, err := saveOptions(cmd)
	if err != nil {
		return err
	}

	in, err := pipeline.OpenInput(inputPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	inputData, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	result, err := pipeline.Run(cmd.Context(), inputData, pipeline.Options{Save: save})
	if err != nil {
		return fmt.Errorf("conversion: %w", err)
	}

	out, err := pipeline.OpenOutput(outputPath)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	if _, err := out.Write(result.Data); err != nil {
		out.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if outputPath != "-" {
		fmt.Printf("Converted %dx%d %s → %s\n", result.SrcWidth, result.SrcHeight, result.SrcInfo.Format, result.DstFormat)
		fmt.Printf("Input:  %s (%d bytes)\n", inputPath, len(inputData))
		fmt.Printf("Output: %s (%d bytes)\n", outputPath, len(result.Data))
	}
	return nil
}
