// Command video2markdown turns a video or audio file into an illustrated
// Markdown document: it transcribes the audio, selects and describes key
// frames, structures the content into chapters and writes the rendered
// document with its images to storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imchangchang/video2markdown/config"
	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/llm"
	llmollama "github.com/imchangchang/video2markdown/llm/ollama"
	llmopenai "github.com/imchangchang/video2markdown/llm/openai"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/pipeline"
	"github.com/imchangchang/video2markdown/prompt"
	"github.com/imchangchang/video2markdown/provider"
	"github.com/imchangchang/video2markdown/render"
	"github.com/imchangchang/video2markdown/storage"
	storagelocal "github.com/imchangchang/video2markdown/storage/local"
	storages3 "github.com/imchangchang/video2markdown/storage/s3"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/transcription"
	"github.com/imchangchang/video2markdown/transcription/whisper"
	"github.com/imchangchang/video2markdown/transcription/whispercpp"
	"github.com/imchangchang/video2markdown/version"
	"github.com/imchangchang/video2markdown/vision"
	visionopenai "github.com/imchangchang/video2markdown/vision/openai"
)

const serviceName = "video2markdown"

type flags struct {
	configFile  string
	envFile     string
	title       string
	language    string
	workDir     string
	bypassCache bool
	showUsage   bool
	showVersion bool
}

func main() {
	var f flags
	flag.StringVar(&f.configFile, "config", "", "Path to config.yml (searched in standard locations when empty)")
	flag.StringVar(&f.envFile, "env", "", "Path to .env file (searched in standard locations when empty)")
	flag.StringVar(&f.title, "title", "", "Document title override (defaults to the input file name)")
	flag.StringVar(&f.language, "language", "", "Speech language hint, e.g. zh or en (auto-detect when empty)")
	flag.StringVar(&f.workDir, "work-dir", "", "Scratch directory for audio and frames (temp dir per run when empty)")
	flag.BoolVar(&f.bypassCache, "no-cache", false, "Ignore cached transcriptions and re-transcribe")
	flag.BoolVar(&f.showUsage, "usage", true, "Print the token usage report after the run")
	flag.BoolVar(&f.showVersion, "version", false, "Print version information and exit")
	flag.Parse()

	if f.showVersion {
		fmt.Println(serviceName, version.GetFullVersion())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <media-file>\n", serviceName)
		flag.PrintDefaults()
		os.Exit(2)
	}
	mediaPath := flag.Arg(0)

	cfg := &AppConfig{}
	var loadOpts []config.LoaderOption
	if f.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(f.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, loadOpts...); err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}
	cfg.ApplyDefaults()
	if f.language != "" {
		cfg.Transcription.Language = f.language
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(2)
	}

	logger.Init(cfg.Logging)
	log := logger.Get("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := buildRunner(ctx, cfg, f)
	if err != nil {
		log.Error("setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	res, err := runner.Run(ctx, mediaPath)
	if err != nil {
		log.Error("run failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	fmt.Println("document:", res.OutputKey)
	if res.Degraded() {
		for _, d := range res.Degradations {
			fmt.Printf("degraded stage %s: %s\n", d.Stage, d.Reason)
		}
	}
	if f.showUsage {
		fmt.Print(res.Usage.Report(cfg.Pricing))
	}
}

// buildRunner wires every pipeline dependency from the loaded configuration.
func buildRunner(ctx context.Context, cfg *AppConfig, f flags) (*pipeline.Runner, error) {
	log := logger.Get(serviceName)

	decoder, err := media.NewFFmpegDecoder(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	store, err := storage.New(cfg.Storage, storageProviderConfig(cfg.Storage), log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	client := storage.NewByteClient(store)

	transcriber, err := selectTranscriber(ctx, cfg.Transcription, log)
	if err != nil {
		return nil, err
	}

	llms := llm.NewManager()
	llms.Register(llmopenai.ProviderName, llmopenai.Factory())
	llms.Register(llmollama.ProviderName, llmollama.Factory())
	llmSettings := cfg.LLM.Settings
	if cfg.LLM.Provider == llmopenai.ProviderName {
		llmSettings = withAPIKeyFromEnv(llmSettings)
	}
	if err := llms.Initialize(ctx, cfg.LLM.Provider, llmSettings); err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if err := llms.SetDefault(cfg.LLM.Provider); err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	textModel, err := llms.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	prompts := prompt.NewStore(cfg.Pipeline.PromptDir)

	var visionStage *vision.Stage
	if cfg.Vision.Enabled {
		visions := vision.NewRegistry()
		visions.RegisterFactory(visionopenai.ProviderName, visionopenai.Factory())
		visionSettings := cfg.Vision.Settings
		if cfg.Vision.Provider == visionopenai.ProviderName {
			visionSettings = withAPIKeyFromEnv(visionSettings)
		}
		vp, err := visions.Create(cfg.Vision.Provider, visionSettings)
		if err != nil {
			return nil, fmt.Errorf("vision provider: %w", err)
		}
		visionStage = vision.NewStage(cfg.visionStageConfig(), vp, prompts, decoder)
	}

	deps := pipeline.Deps{
		Decoder:     decoder,
		Transcriber: transcriber,
		Cache:       transcription.NewCache(client, transcription.WithBypass(f.bypassCache)),
		Optimizer:   transcript.NewOptimizer(textModel, prompts, cfg.LLM.Model),
		Vision:      visionStage,
		Assembler:   document.NewAssembler(document.AssemblerConfig{Model: cfg.LLM.Model, ChunkRunes: cfg.Pipeline.ChunkRunes}, textModel, prompts),
		Writer:      render.NewWriter(client),
	}

	return pipeline.NewRunner(cfg.pipelineConfig(f.title, f.workDir), deps)
}

// selectTranscriber initializes the configured speech-to-text backend plus
// its optional fallback, then picks the first healthy one in priority order.
// A typical setup runs whisper.cpp locally with the HTTP sidecar as backup.
func selectTranscriber(ctx context.Context, cfg TranscriptionConfig, log *logger.Logger) (transcription.Provider, error) {
	priority := []string{cfg.Provider}
	if cfg.Fallback != "" && cfg.Fallback != cfg.Provider {
		priority = append(priority, cfg.Fallback)
	}

	manager := transcription.NewManager(transcription.WithSelector(
		&provider.PrioritySelector[transcription.Provider]{Priority: priority},
	))
	manager.Register(whispercpp.ProviderName, whispercpp.Factory())
	manager.Register(whisper.ProviderName, whisper.Factory())

	if err := manager.Initialize(ctx, cfg.Provider, cfg.Settings); err != nil {
		return nil, fmt.Errorf("transcription provider: %w", err)
	}
	for _, name := range priority[1:] {
		if err := manager.Initialize(ctx, name, cfg.FallbackSettings); err != nil {
			return nil, fmt.Errorf("transcription fallback: %w", err)
		}
	}

	transcriber, err := manager.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcription provider: %w", err)
	}
	if transcriber.Name() != cfg.Provider {
		log.Warn("primary transcription provider unavailable, using fallback", map[string]interface{}{
			"primary":  cfg.Provider,
			"selected": transcriber.Name(),
		})
	}
	return transcriber, nil
}

// withAPIKeyFromEnv fills api_key from OPENAI_API_KEY when the config map
// does not set it. The .env file has already been loaded at this point.
func withAPIKeyFromEnv(settings map[string]any) map[string]any {
	if _, ok := settings["api_key"]; ok {
		return settings
	}
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return settings
	}
	out := make(map[string]any, len(settings)+1)
	for k, v := range settings {
		out[k] = v
	}
	out["api_key"] = key
	return out
}

// storageProviderConfig maps the flat storage section onto the selected
// backend's own config type.
func storageProviderConfig(cfg storage.Config) any {
	switch cfg.Provider {
	case storage.ProviderS3:
		return &storages3.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}
	default:
		return &storagelocal.Config{BasePath: cfg.BasePath}
	}
}
