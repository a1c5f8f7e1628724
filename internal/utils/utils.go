package utils

import (
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// DefaultBaseDir is ~/Pictures when it exists, otherwise the working
// directory.
func DefaultBaseDir() string {
	if home, err := homedir.Dir(); err == nil {
		if dir := filepath.Join(home, "Pictures"); IsDir(dir) {
			return dir
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// DefaultOutputRoot is ~/Desktop when it exists, otherwise baseDir.
func DefaultOutputRoot(baseDir string) string {
	if home, err := homedir.Dir(); err == nil {
		if dir := filepath.Join(home, "Desktop"); IsDir(dir) {
			return dir
		}
	}
	return baseDir
}

// ExpandPath resolves a leading ~ in p.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
