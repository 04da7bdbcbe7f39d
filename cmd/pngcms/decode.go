package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davesmith10/pngcms/internal/pipeline"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a PNG to raw rows (+ JSON sidecar)",
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().StringP("input", "i", "", "Input PNG file, file:// URI or - for stdin")
	decodeCmd.Flags().StringP("output", "o", "", "Output raw file")
	decodeCmd.Flags().String("format", "", "Requested pixel format, e.g. \"R'G'B'A u16\"")
	decodeCmd.MarkFlagRequired("input")
	decodeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(decodeCmd)
}

type rawMeta struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     string `json:"format"`
	ByteOrder  string `json:"byte_order"`
	ColorSpace string `json:"color_space"`
	Source     string `json:"source"`
	ICCProfile string `json:"icc_profile,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")

	if _, err := registry.LoaderForPath(inputPath); err != nil && inputPath != "-" {
		logger.Warn("input has no PNG extension, decoding anyway", "input", inputPath)
	}

	opts := pipeline.LoadOptions{Logger: logger}
	if formatName != "" {
		f, err := pixfmt.Parse(formatName)
		if err != nil {
			return err
		}
		opts.Target = &f
	}

	img, info, err := pipeline.Load(cmd.Context(), inputPath, opts)
	if err != nil {
		return err
	}

	// Raw rows are written big-endian whatever the host order.
	out := img.Format
	out.Order = binary.BigEndian
	raw := make([]byte, 0, img.Height*out.RowBytes(img.Width))
	row := make([]byte, out.RowBytes(img.Width))
	for y := 0; y < img.Height; y++ {
		if err := img.GetRow(y, out, row); err != nil {
			return err
		}
		raw = append(raw, row...)
	}
	if err := os.WriteFile(outputPath, raw, 0644); err != nil {
		return fmt.Errorf("writing raw rows: %w", err)
	}

	// Write JSON sidecar
	meta := rawMeta{
		Width:      img.Width,
		Height:     img.Height,
		Format:     out.String(),
		ByteOrder:  "big",
		ColorSpace: info.Space.String(),
		Source:     info.Source.String(),
	}
	if info.ICC != nil {
		iccPath := strings.TrimSuffix(outputPath, ".raw") + ".icc"
		if err := os.WriteFile(iccPath, info.ICC, 0644); err != nil {
			return fmt.Errorf("writing ICC profile: %w", err)
		}
		meta.ICCProfile = iccPath
	}
	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	metaPath := strings.TrimSuffix(outputPath, ".raw") + ".json"
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}

	fmt.Printf("Decoded %dx%d %s → %s (%d bytes)\n", img.Width, img.Height, out, outputPath, len(raw))
	fmt.Printf("Sidecar: %s\n", metaPath)
	return nil
}
