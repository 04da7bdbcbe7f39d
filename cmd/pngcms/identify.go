package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/png"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [file...]",
	Short: "Inspect PNG header, pixel format and color space",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIdentify,
}

func init() {
	identifyCmd.Flags().Int("jobs", 4, "Files inspected in parallel")
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	jobs, _ := cmd.Flags().GetInt("jobs")

	reports := make([]string, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(jobs, 1))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := png.InspectFile(path, logger)
			if err != nil {
				return fmt.Errorf("inspecting %s: %w", path, err)
			}
			var sb strings.Builder
			writeReport(&sb, path, info)
			reports[i] = sb.String()
			return nil
		})
	}
	err := g.Wait()

	// Reports come out in argument order whatever finished first.
	for _, r := range reports {
		if r != "" {
			fmt.Print(r)
		}
	}
	return err
}

func writeReport(w io.Writer, path string, info *png.ImageInfo) {
	fmt.Fprintf(w, "File:        %s\n", path)
	fmt.Fprintf(w, "Dimensions:  %d x %d\n", info.Width, info.Height)
	fmt.Fprintf(w, "Color type:  %s, %d bit\n", png.ColorTypeName(info.ColorType), info.BitDepth)
	fmt.Fprintf(w, "Interlaced:  %t\n", info.Interlaced)
	fmt.Fprintf(w, "Transparency: %t\n", info.HasTRNS)
	fmt.Fprintf(w, "Pixel format: %s\n", info.Format)
	fmt.Fprintf(w, "Color space: %s (from %s)\n", info.Space, info.Source)
	if st, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "File size:   %d bytes (%.1f MB)\n", st.Size(), float64(st.Size())/(1024*1024))
	}

	if info.ICC != nil {
		pi, err := color.ParseProfileInfo(info.ICC)
		if err != nil {
			fmt.Fprintf(w, "ICC profile: %q present (%d bytes) but invalid: %v\n", info.ProfileName, len(info.ICC), err)
		} else {
			fmt.Fprintf(w, "ICC profile: %q, %d bytes\n", info.ProfileName, len(info.ICC))
			fmt.Fprintf(w, "  Version:     %s\n", pi.Version)
			fmt.Fprintf(w, "  Color space: %s\n", color.ColorSpaceName(pi.ColorSpace))
			fmt.Fprintf(w, "  PCS:         %s\n", color.ColorSpaceName(pi.PCS))
			fmt.Fprintf(w, "  Class:       %s\n", color.ProfileClassName(pi.Class))
		}
	} else {
		fmt.Fprintln(w, "ICC profile: none")
	}
	fmt.Fprintln(w)
}
