package pick

// Report summarises one filter-and-copy pass.
type Report struct {
	Scanned            int      `json:"scanned"`
	Matched            int      `json:"matched"`
	SkippedMissingMeta int      `json:"skipped_missing_meta"`
	OutputDir          string   `json:"output_dir"`
	Files              []string `json:"files"`
}

// tally accumulates counts during a pass. Matched is derived from files.
type tally struct {
	scanned int
	skipped int
	files   []string
}

func (t *tally) report(outputDir string) *Report {
	files := make([]string, len(t.files))
	copy(files, t.files)
	return &Report{
		Scanned:            t.scanned,
		Matched:            len(files),
		SkippedMissingMeta: t.skipped,
		OutputDir:          outputDir,
		Files:              files,
	}
}
