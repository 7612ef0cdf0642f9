package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/loopsmith/loopsmith/internal/audio"
	"github.com/loopsmith/loopsmith/internal/cli"
	"github.com/loopsmith/loopsmith/internal/config"
	"github.com/loopsmith/loopsmith/internal/logging"
	"github.com/loopsmith/loopsmith/internal/pipeline"
	"github.com/loopsmith/loopsmith/internal/ui"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface. Pointer fields are overrides:
// when left unset, the YAML config (or the stock defaults) win.
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	Logs    bool   `help:"Save a processing report next to each output file"`
	Analyze bool   `help:"Measure files and print a report without writing output"`
	Jobs    int    `short:"j" default:"1" help:"Number of files to process concurrently"`

	InputDir  string `type:"existingdir" help:"Directory to scan recursively for audio files"`
	OutputDir string `type:"path" help:"Directory for processed files (default: alongside each input)"`

	TrimThreshold *float64 `placeholder:"DB" help:"Silence trim threshold in dBFS"`
	MinSilence    *int     `placeholder:"MS" help:"Minimum silence run to trim in ms"`

	NoGate        bool     `help:"Disable the noise gate"`
	GateThreshold *float64 `placeholder:"DB" help:"Gate threshold in dB"`
	GateReduction *float64 `placeholder:"DB" help:"Gate reduction depth in dB"`
	GateWindow    *float64 `placeholder:"MS" help:"Gate envelope window in ms"`
	GateAttack    *float64 `placeholder:"MS" help:"Gate attack time in ms"`
	GateRelease   *float64 `placeholder:"MS" help:"Gate release time in ms"`

	Xfade        *int `placeholder:"MS" help:"Loop crossfade duration in ms (0 disables)"`
	NoSeamless   bool `help:"Use independent head/tail fades instead of a seamless blend"`
	Mirror       bool `help:"Write the blended seam to the loop start as well"`
	PreNormalize bool `help:"Level-match seam ends before blending"`

	TargetLufs *float64 `placeholder:"LUFS" help:"Normalisation target in LUFS"`
	PeakNorm   bool     `help:"Normalise to peak level instead of loudness"`
	MaxPeak    *float64 `placeholder:"DB" help:"Peak ceiling in dBFS"`

	NoStabilize    bool     `help:"Disable loop seam stabilisation"`
	TargetDuration *float64 `placeholder:"SEC" help:"Force output to an exact duration in seconds"`

	Files []string `arg:"" name:"files" help:"Audio files or directories to process" type:"path" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("loopsmith"),
		kong.Description("Seamless loop and loudness mastering for audio clips"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Load YAML config when given; flags override its values below
	var fileCfg *config.Config
	if cliArgs.Config != "" {
		var err error
		fileCfg, err = config.Load(cliArgs.Config)
		if err != nil {
			cli.PrintError(fmt.Sprintf("Config: %v", err))
			os.Exit(1)
		}
		if err := config.Validate(fileCfg); err != nil {
			cli.PrintError(fmt.Sprintf("Config: %v", err))
			os.Exit(1)
		}
	}

	pipeCfg := buildPipelineConfig(cliArgs, fileCfg)

	inputDir := cliArgs.InputDir
	outputDir := cliArgs.OutputDir
	if fileCfg != nil {
		if inputDir == "" {
			inputDir = fileCfg.InputDir
		}
		if outputDir == "" {
			outputDir = fileCfg.OutputDir
		}
	}

	jobs, err := collectInputs(cliArgs.Files, inputDir)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if len(jobs) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	if cliArgs.Analyze {
		runAnalyze(jobs)
		return
	}

	runBatch(jobs, outputDir, pipeCfg, cliArgs.Logs, cliArgs.Jobs)
}

// buildPipelineConfig layers CLI flag overrides on top of the YAML config,
// which itself layers on top of the stock defaults.
func buildPipelineConfig(cliArgs *CLI, fileCfg *config.Config) pipeline.Config {
	cfg := fileCfg.Pipeline()

	if cliArgs.TrimThreshold != nil {
		cfg.TrimThresholdDB = *cliArgs.TrimThreshold
	}
	if cliArgs.MinSilence != nil {
		cfg.MinSilenceMs = *cliArgs.MinSilence
	}

	if cliArgs.NoGate {
		cfg.EnableNoiseReduction = false
	}
	if cliArgs.GateThreshold != nil {
		cfg.GateThresholdDB = *cliArgs.GateThreshold
	}
	if cliArgs.GateReduction != nil {
		cfg.GateReductionDB = *cliArgs.GateReduction
	}
	if cliArgs.GateWindow != nil {
		cfg.GateWindowMs = *cliArgs.GateWindow
	}
	if cliArgs.GateAttack != nil {
		cfg.GateAttackMs = *cliArgs.GateAttack
	}
	if cliArgs.GateRelease != nil {
		cfg.GateReleaseMs = *cliArgs.GateRelease
	}

	if cliArgs.Xfade != nil {
		cfg.XfadeDurationMs = *cliArgs.Xfade
	}
	if cliArgs.NoSeamless {
		cfg.EnforceSeamlessLoop = false
	}
	if cliArgs.Mirror {
		cfg.MirrorLoopStart = true
	}
	if cliArgs.PreNormalize {
		cfg.PreNormalize = true
	}

	if cliArgs.TargetLufs != nil {
		cfg.TargetLevel = *cliArgs.TargetLufs
	}
	if cliArgs.PeakNorm {
		cfg.UsePeakNorm = true
	}
	if cliArgs.MaxPeak != nil {
		cfg.MaxPeakDbfs = *cliArgs.MaxPeak
	}

	if cliArgs.NoStabilize {
		cfg.EnableStabilization = false
	}
	if cliArgs.TargetDuration != nil {
		cfg.TargetDurationSec = *cliArgs.TargetDuration
	}

	return cfg
}

// fileJob pairs an input path with its path relative to the scan root, used
// to mirror directory structure under --output-dir.
type fileJob struct {
	InputPath string
	Rel       string
}

// collectInputs expands the positional arguments and --input-dir into a
// sorted, de-duplicated list of audio files.
func collectInputs(args []string, inputDir string) ([]fileJob, error) {
	var jobs []fileJob
	seen := make(map[string]bool)

	add := func(path, rel string) {
		if !seen[path] {
			seen[path] = true
			jobs = append(jobs, fileJob{InputPath: path, Rel: rel})
		}
	}

	scanDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isSupported(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			add(path, rel)
			return nil
		})
	}

	if inputDir != "" {
		if err := scanDir(inputDir); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", inputDir, err)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if err := scanDir(arg); err != nil {
				return nil, fmt.Errorf("scanning %s: %w", arg, err)
			}
			continue
		}
		if !isSupported(arg) {
			return nil, fmt.Errorf("unsupported file type: %s", arg)
		}
		add(arg, filepath.Base(arg))
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].InputPath < jobs[j].InputPath })
	return jobs, nil
}

// isSupported reports whether path has a recognised audio extension.
func isSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range audio.SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// outputPathFor derives the processed filename. With an output directory the
// input's relative path is mirrored beneath it; otherwise the file lands
// alongside its input.
func outputPathFor(job fileJob, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(job.InputPath), filepath.Ext(job.InputPath))
	name := stem + "_processed.wav"

	if outputDir == "" {
		return filepath.Join(filepath.Dir(job.InputPath), name)
	}
	relDir := filepath.Dir(job.Rel)
	if relDir == "." {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(outputDir, relDir, name)
}

// runAnalyze measures each file and prints a console report without writing
// any output files.
func runAnalyze(jobs []fileJob) {
	src := audio.FileSource{}

	for _, job := range jobs {
		model := ui.NewAnalysisModel()
		p := tea.NewProgram(model)

		go func(path string) {
			p.Send(ui.AnalysisStartMsg{FilePath: path})

			buf, rate, err := src.Read(path)
			if err != nil {
				p.Send(ui.AnalysisCompleteMsg{Error: err})
				return
			}
			a := pipeline.Analyze(buf, rate)
			p.Send(ui.AnalysisCompleteMsg{Analysis: &a})
		}(job.InputPath)

		final, err := p.Run()
		if err != nil {
			cli.PrintError(fmt.Sprintf("UI error: %v", err))
			os.Exit(1)
		}

		if m, ok := final.(ui.AnalysisModel); ok {
			if m.Error != nil {
				cli.PrintError(fmt.Sprintf("%s: %v", job.InputPath, m.Error))
				continue
			}
			if m.Analysis != nil {
				logging.DisplayAnalysisResults(os.Stdout, job.InputPath, *m.Analysis)
			}
		}
	}
}

// runBatch processes the files through the mastering pipeline with a bounded
// worker pool, streaming progress into the TUI.
func runBatch(jobs []fileJob, outputDir string, cfg pipeline.Config, logs bool, workers int) {
	if workers < 1 {
		workers = 1
	}

	inputs := make([]string, len(jobs))
	for i, job := range jobs {
		inputs[i] = job.InputPath
	}
	model := ui.NewModel(inputs)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		var g errgroup.Group
		g.SetLimit(workers)

		for i, job := range jobs {
			i, job := i, job
			g.Go(func() error {
				processFile(p, i, job, outputDir, cfg, logs)
				return nil
			})
		}

		g.Wait()
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// processFile runs one file through decode, pipeline, and encode, reporting
// progress and outcome to the TUI. Failures are reported per file rather
// than aborting the batch.
func processFile(p *tea.Program, index int, job fileJob, outputDir string, cfg pipeline.Config, logs bool) {
	startTime := time.Now()

	p.Send(ui.FileStartMsg{
		FileIndex: index,
		FileName:  job.InputPath,
	})

	src := audio.FileSource{}
	buf, rate, err := src.Read(job.InputPath)
	if err != nil {
		p.Send(ui.FileCompleteMsg{FileIndex: index, Error: err})
		return
	}

	var inputAnalysis pipeline.Analysis
	if logs {
		inputAnalysis = pipeline.Analyze(buf, rate)
	}

	cfg.Observer = func(stage string, done, total int) {
		p.Send(ui.ProgressMsg{
			FileIndex: index,
			Stage:     stage,
			Done:      done,
			Total:     total,
		})
	}

	out, result := pipeline.Process(buf, rate, cfg)

	outputPath := outputPathFor(job, outputDir)
	sink := audio.WAVSink{}
	if err := sink.Write(out, rate, outputPath); err != nil {
		p.Send(ui.FileCompleteMsg{FileIndex: index, Error: err})
		return
	}

	if logs {
		outputAnalysis := pipeline.Analyze(out, rate)
		reportData := logging.ReportData{
			InputPath:  job.InputPath,
			OutputPath: outputPath,
			StartTime:  startTime,
			EndTime:    time.Now(),
			Result:     result,
			Config:     cfg,
			Input:      &inputAnalysis,
			Output:     &outputAnalysis,
		}
		if err := logging.GenerateReport(reportData); err != nil {
			p.Send(ui.FileCompleteMsg{
				FileIndex:  index,
				OutputPath: outputPath,
				Result:     result,
				Error:      fmt.Errorf("report: %w", err),
			})
			return
		}
	}

	p.Send(ui.FileCompleteMsg{
		FileIndex:  index,
		OutputPath: outputPath,
		Result:     result,
	})
}
