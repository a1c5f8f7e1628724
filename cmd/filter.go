package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/exifscope/internal/utils"
	"github.com/sw33tLie/exifscope/pkg/filter"
	"github.com/sw33tLie/exifscope/pkg/pick"
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Copy the photos matching a metadata filter into a new dated folder",
	Long: `Scan a photo tree, keep the photos whose metadata matches every given filter and copy
them into <output-root>/<YYYY-MM-DD>_<prompt>. Photos without a usable capture
timestamp are counted as skipped.

Examples:
  exifscope filter -p "Seoul trip" --date-from 2024-01-01 --date-to 2024-01-31
  exifscope filter -p "night shots" --time-from 20:00 --time-to 23:59 --iso-min 1600
  exifscope filter -p "Namsan" --center 37.5512,126.9882 --radius 500 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		src, err := newSource(stringSetting(cmd, "extractor", "extractor"), stringSetting(cmd, "exiftool", "exiftool.path"))
		if err != nil {
			return err
		}

		r := &runner{source: src, dryRun: dryRun}
		if !noHistory && !dryRun {
			db, dbPath, err := openHistory()
			if err != nil {
				utils.Log.Warnf("Run history disabled: %v", err)
			} else {
				defer db.Close()
				r.db, r.dbPath = db, dbPath
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := r.Run(ctx, req)
		if err != nil {
			if jsonOut {
				printJSON(os.Stdout, map[string]string{"error": err.Error()})
			}
			return err
		}

		if jsonOut {
			return printJSON(os.Stdout, report)
		}
		printReport(os.Stdout, report, dryRun)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	addFilterFlags(filterCmd)
}

func addFilterFlags(c *cobra.Command) {
	c.Flags().StringP("prompt", "p", "", "Short description used to name the output folder (required)")
	c.Flags().String("mode", "", "Operation mode, only \"copy\" is supported")
	c.Flags().StringP("base-dir", "b", "", "Photo tree to scan (default is ~/Pictures, else the working directory)")
	c.Flags().StringP("output-root", "o", "", "Where the dated folder is created (default is ~/Desktop, else the base dir)")
	c.Flags().String("extractor", "", "Metadata extractor: exiftool or native (default from config, exiftool)")
	c.Flags().String("exiftool", "", "Path to the exiftool binary")

	c.Flags().String("filter-json", "", "Filter as a JSON object; individual flags override its fields")
	c.Flags().String("date-from", "", "Earliest capture date, inclusive (YYYY-MM-DD)")
	c.Flags().String("date-to", "", "Latest capture date, inclusive (YYYY-MM-DD)")
	c.Flags().String("time-from", "", "Earliest time of day, inclusive (HH:MM)")
	c.Flags().String("time-to", "", "Latest time of day, inclusive (HH:MM)")
	c.Flags().Float64("iso-min", 0, "Minimum ISO")
	c.Flags().Float64("iso-max", 0, "Maximum ISO")
	c.Flags().String("artist", "", "Case-insensitive substring of the artist/creator")
	c.Flags().String("make", "", "Case-insensitive substring of the camera make")
	c.Flags().String("model", "", "Case-insensitive substring of the camera model")
	c.Flags().String("bbox", "", "Bounding box as minLon,minLat,maxLon,maxLat")
	c.Flags().String("center", "", "Circle center as lat,lon (requires --radius)")
	c.Flags().Float64("radius", 0, "Circle radius in meters (requires --center)")
	c.Flags().Float64("alt-min", 0, "Minimum altitude in meters")
	c.Flags().Float64("alt-max", 0, "Maximum altitude in meters")

	c.Flags().Bool("dry-run", false, "Only report what would be copied")
	c.Flags().Bool("json", false, "Print the report as JSON")
	c.Flags().Bool("no-history", false, "Do not record this run in the history database")
}

// stringSetting returns the flag value when set, else the config key.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

// requestFromFlags builds the request from flags, config and defaults.
func requestFromFlags(cmd *cobra.Command) (pick.Request, error) {
	prompt, _ := cmd.Flags().GetString("prompt")
	mode, _ := cmd.Flags().GetString("mode")

	req := pick.Request{
		BaseDir:    stringSetting(cmd, "base-dir", "base_dir"),
		OutputRoot: stringSetting(cmd, "output-root", "output_root"),
		Prompt:     prompt,
		Mode:       mode,
	}
	if req.BaseDir == "" {
		req.BaseDir = utils.DefaultBaseDir()
	}

	spec, err := specFromFlags(cmd)
	if err != nil {
		return req, err
	}
	req.Spec = spec
	return req, nil
}

func specFromFlags(cmd *cobra.Command) (filter.Spec, error) {
	var spec filter.Spec
	flags := cmd.Flags()

	if raw, _ := flags.GetString("filter-json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			return spec, &pick.ValidationError{Field: "filter-json", Err: err}
		}
	}

	if flags.Changed("date-from") || flags.Changed("date-to") {
		if spec.DateRange == nil {
			spec.DateRange = &filter.DateRange{}
		}
		setString(cmd, "date-from", &spec.DateRange.From)
		setString(cmd, "date-to", &spec.DateRange.To)
	}

	if flags.Changed("time-from") || flags.Changed("time-to") {
		if spec.TimeOfDay == nil {
			spec.TimeOfDay = &filter.TimeWindow{}
		}
		setString(cmd, "time-from", &spec.TimeOfDay.From)
		setString(cmd, "time-to", &spec.TimeOfDay.To)
	}

	spec.ISO = rangeFlags(cmd, spec.ISO, "iso-min", "iso-max")
	spec.Altitude = rangeFlags(cmd, spec.Altitude, "alt-min", "alt-max")

	setString(cmd, "artist", &spec.Artist)

	if flags.Changed("make") || flags.Changed("model") {
		if spec.Camera == nil {
			spec.Camera = &filter.Camera{}
		}
		setString(cmd, "make", &spec.Camera.Make)
		setString(cmd, "model", &spec.Camera.Model)
	}

	if flags.Changed("bbox") || flags.Changed("center") || flags.Changed("radius") {
		if spec.Location == nil {
			spec.Location = &filter.Location{}
		}
		if flags.Changed("bbox") {
			v, _ := flags.GetString("bbox")
			vals, err := parseFloats(v, 4)
			if err != nil {
				return spec, &pick.ValidationError{Field: "bbox", Err: err}
			}
			bbox := [4]float64{vals[0], vals[1], vals[2], vals[3]}
			spec.Location.BBox = &bbox
		}
		if flags.Changed("center") {
			v, _ := flags.GetString("center")
			vals, err := parseFloats(v, 2)
			if err != nil {
				return spec, &pick.ValidationError{Field: "center", Err: err}
			}
			spec.Location.Center = &filter.Point{Lat: vals[0], Lon: vals[1]}
		}
		if flags.Changed("radius") {
			radius, _ := flags.GetFloat64("radius")
			spec.Location.RadiusM = &radius
		}
	}

	return spec, nil
}

func setString(cmd *cobra.Command, flag string, dst *string) {
	if cmd.Flags().Changed(flag) {
		*dst, _ = cmd.Flags().GetString(flag)
	}
}

func rangeFlags(cmd *cobra.Command, r *filter.Range, minFlag, maxFlag string) *filter.Range {
	flags := cmd.Flags()
	if !flags.Changed(minFlag) && !flags.Changed(maxFlag) {
		return r
	}
	if r == nil {
		r = &filter.Range{}
	}
	if flags.Changed(minFlag) {
		v, _ := flags.GetFloat64(minFlag)
		r.Min = &v
	}
	if flags.Changed(maxFlag) {
		v, _ := flags.GetFloat64(maxFlag)
		r.Max = &v
	}
	return r
}

// parseFloats parses exactly n comma separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		vals[i] = v
	}
	return vals, nil
}
