package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sw33tLie/exifscope/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the filter as an HTTP JSON endpoint",
	Long: `Start an HTTP server so that other tools can run the filter:

  POST /api/filter      request JSON in, report JSON out
  GET  /api/runs        recorded runs (limit, since, status query parameters)
  GET  /api/runs/{id}   one run with its copied files
  GET  /api/stats       run counts per status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("bind")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		src, err := newSource(stringSetting(cmd, "extractor", "extractor"), stringSetting(cmd, "exiftool", "exiftool.path"))
		if err != nil {
			return err
		}

		r := &runner{source: src}
		if !noHistory {
			db, dbPath, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()
			r.db, r.dbPath = db, dbPath
		}

		srv := server.New(r.db, r.Run, stringSetting(cmd, "username", "server.username"), stringSetting(cmd, "password", "server.password"))
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", "127.0.0.1:9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().String("extractor", "", "Metadata extractor: exiftool or native (default from config, exiftool)")
	serveCmd.Flags().String("exiftool", "", "Path to the exiftool binary")
	serveCmd.Flags().Bool("no-history", false, "Do not record runs; the history endpoints return 404")
}
