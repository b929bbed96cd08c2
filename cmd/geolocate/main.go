// Command geolocate prints the GPS position and street address embedded in a photo.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/geo"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		baseURL   string
		userAgent string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "geolocate <image>",
		Short: "Reverse-geocode the GPS EXIF tags of a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Geocoder.BaseURL
			}
			if userAgent == "" {
				userAgent = cfg.Geocoder.UserAgent
			}
			if timeout <= 0 {
				timeout = cfg.Geocoder.Timeout()
			}

			var result geo.Result
			f, err := os.Open(args[0])
			if err != nil {
				result = geo.Result{Error: err.Error()}
			} else {
				defer f.Close()
				client := geo.NewNominatimClient(baseURL, userAgent, timeout, nil)
				result = geo.Locate(cmd.Context(), f, client)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&baseURL, "geocoder-url", "", "Nominatim base URL (default GEOCODER_BASE_URL)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent sent to the geocoder (default GEOCODER_USER_AGENT)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "geocoder request timeout (default GEOCODER_TIMEOUT_SECONDS)")
	return cmd
}
