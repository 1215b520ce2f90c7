// Command profile writes the effective query profile to a JSON file that
// can be edited and loaded back through QUERY_PROFILE_PATH.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"steelprice/server/config"
	"steelprice/server/internal/logging"
)

func main() {
	out := flag.String("out", "query_profile.json", "file to write the query profile to")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(cfg)

	if *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.SaveQueryProfile(*out, cfg.Query); err != nil {
		logger.WithError(err).Fatal("Failed to write query profile")
	}
	logger.WithFields(logrus.Fields{
		"path":              *out,
		"exclusion_markers": cfg.Query.ExclusionMarkers,
	}).Info("Wrote query profile")
}
