package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/ir"
	"github.com/davesmith10/pngcms/internal/pipeline"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode raw rows to PNG",
	RunE:  runEncode,
}

func init() {
	encodeCmd.Flags().StringP("input", "i", "", "Input raw file")
	encodeCmd.Flags().StringP("output", "o", "", "Output PNG file, file:// URI or - for stdout")
	encodeCmd.Flags().String("format", "R'G'B' u8", "Pixel format of the raw rows")
	encodeCmd.Flags().String("order", "big", "Byte order of 16-bit raw samples (big, little)")
	encodeCmd.Flags().String("icc", "", "ICC profile describing the samples")
	encodeCmd.Flags().Int("width", 0, "Image width")
	encodeCmd.Flags().Int("height", 0, "Image height")
	addSaveFlags(encodeCmd)
	encodeCmd.MarkFlagRequired("input")
	encodeCmd.MarkFlagRequired("output")
	encodeCmd.MarkFlagRequired("width")
	encodeCmd.MarkFlagRequired("height")
	rootCmd.AddCommand(encodeCmd)
}

// addSaveFlags adds the PNG writer settings shared by encode and convert.
func addSaveFlags(cmd *cobra.Command) {
	cmd.Flags().Int("compression", 3, "Deflate level (1-9)")
	cmd.Flags().Int("depth", 16, "Output bit depth (8 or 16)")
	cmd.Flags().Bool("interlace", false, "Write an Adam7 interlaced PNG")
	cmd.Flags().String("intent", "relative", "sRGB rendering intent (perceptual, relative, saturation, absolute)")
}

func saveOptions(cmd *cobra.Command) (pipeline.SaveOptions, error) {
	compression, _ := cmd.Flags().GetInt("compression")
	depth, _ := cmd.Flags().GetInt("depth")
	interlace, _ := cmd.Flags().GetBool("interlace")
	intentStr, _ := cmd.Flags().GetString("intent")

	intent, err := color.ParseIntent(intentStr)
	if err != nil {
		return pipeline.SaveOptions{}, err
	}
	return pipeline.SaveOptions{
		Compression: compression,
		BitDepth:    depth,
		Interlace:   interlace,
		Intent:      &intent,
		Logger:      logger,
	}, nil
}

func checkSaver(outputPath string) error {
	if outputPath == "-" {
		return nil
	}
	_, err := registry.SaverForPath(outputPath)
	return err
}

func runEncode(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	orderName, _ := cmd.Flags().GetString("order")
	iccPath, _ := cmd.Flags().GetString("icc")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	if err := checkSaver(outputPath); err != nil {
		return err
	}
	opts, err := saveOptions(cmd)
	if err != nil {
		return err
	}

	f, err := pixfmt.Parse(formatName)
	if err != nil {
		return err
	}
	switch orderName {
	case "big":
		f.Order = binary.BigEndian
	case "little":
		f.Order = binary.LittleEndian
	default:
		return fmt.Errorf("unknown byte order %q (want big or little)", orderName)
	}

	if iccPath != "" {
		icc, err := color.LoadProfile(iccPath)
		if err != nil {
			return err
		}
		space, err := color.FromICC(icc)
		if err != nil {
			return fmt.Errorf("using ICC profile %s: %w", iccPath, err)
		}
		f.Space = space
	}

	pixels, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	expected := height * f.RowBytes(width)
	if len(pixels) != expected {
		return fmt.Errorf("expected %d bytes for %dx%d %s, got %d", expected, width, height, f, len(pixels))
	}

	img := &ir.Image{Width: width, Height: height, Format: f, Pix: pixels}
	if err := pipeline.Save(cmd.Context(), outputPath, img, opts); err != nil {
		return err
	}

	if outputPath != "-" {
		fmt.Printf("Encoded %dx%d %s → %s\n", width, height, f, outputPath)
	}
	return nil
}
