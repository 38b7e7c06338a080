package main

// Run one analysis against a local resume without the API:
//   go run ./cmd/prompttest -resume cv.pdf -title "Backend Dev" -jd jd.txt

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-analyzer/internal/cache"
	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/fingerprint"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf, docx or txt)")
	jdPath := flag.String("jd", "", "Path to job description file (optional)")
	jobTitle := flag.String("title", "", "Job title (optional)")
	userID := flag.String("user", "cli", "User id used for the printed cache key")
	outPath := flag.String("out", "", "Path to write the JSON result (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	fileName := filepath.Base(*resumePath)
	mimeType := extract.DetectType("", fileName, resumeBytes)
	if !extract.Allowed(mimeType) {
		exitErr(fmt.Sprintf("unsupported resume file type: %s", filepath.Ext(*resumePath)))
	}

	resumeText, err := extract.Text(ctx, resumeBytes, mimeType, fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	jobDescription := ""
	if strings.TrimSpace(*jdPath) != "" {
		jdBytes, err := os.ReadFile(*jdPath)
		if err != nil {
			exitErr(fmt.Sprintf("read job description: %v", err))
		}
		jobDescription = string(jdBytes)
	}

	client, err := buildClient(ctx, cfg, *provider, *model)
	if err != nil {
		exitErr(err.Error())
	}

	fp := fingerprint.Generator{NormalizeResume: cfg.CacheNormalizeResume}
	key := cache.Key(*userID, fp.Resume(resumeText), fp.Job(*jobTitle, jobDescription))
	_, _ = fmt.Fprintf(os.Stderr, "cache key: %s\n", key)

	analyzer := llm.NewAnalyzer(client, client.Model(), time.Second)
	out := analyzer.Analyze(ctx, llm.AnalyzeInput{
		ResumeText:     resumeText,
		JobTitle:       *jobTitle,
		JobDescription: jobDescription,
	})
	if out.Fallback {
		_, _ = fmt.Fprintf(os.Stderr, "fallback result: %s\n", out.Result.ErrorMessage)
	}

	pretty, err := prettyJSON(out.Raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
	if out.Fallback {
		os.Exit(2)
	}
}

type modelClient interface {
	llm.Client
	Model() string
}

func buildClient(ctx context.Context, cfg config.Config, provider, model string) (modelClient, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, model)
	case "", "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
