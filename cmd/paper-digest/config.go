// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "paper-digest/0.1"
	defaultDataDir   = "data"
)

// loadPipelineConfig assembles the full pipeline configuration from the
// config file, environment, and loaded secrets, applying defaults.
func loadPipelineConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	cfg.Crawl = types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Categories: viper.GetStringSlice("crawl.categories"),
		MaxPapers:  viper.GetInt("crawl.max_papers"),
		DataDir:    dataDir(),
	}
	if t := viper.GetDuration("crawl.timeout"); t > 0 {
		cfg.Crawl.Timeout = t
	}
	if cfg.Crawl.MaxPapers <= 0 {
		cfg.Crawl.MaxPapers = 200
	}
	if len(cfg.Crawl.Categories) == 0 {
		cfg.Crawl.Categories = []string{"cs.CV", "cs.CL", "cs.LG"}
	}

	keywords, err := parseKeywords(viper.Get("match.keywords"))
	if err != nil {
		return cfg, err
	}
	cfg.Match = types.MatchConfig{
		Keywords:  keywords,
		Threshold: 0.5,
		TopK:      viper.GetInt("match.top_k"),
	}
	if viper.IsSet("match.threshold") {
		cfg.Match.Threshold = viper.GetFloat64("match.threshold")
	}

	cfg.LLM = types.LLMConfig{
		Model:      viper.GetString("llm.model"),
		APIKey:     secretDefault("llm-api-key", viper.GetString("llm.api_key")),
		BaseURL:    viper.GetString("llm.base_url"),
		BatchSize:  viper.GetInt("llm.batch_size"),
		MaxRetries: viper.GetInt("llm.max_retries"),
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "deepseek-chat"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.deepseek.com"
	}

	cfg.Email = types.EmailConfig{
		SMTPServer: viper.GetString("email.smtp_server"),
		SMTPPort:   viper.GetInt("email.smtp_port"),
		Sender:     viper.GetString("email.sender"),
		Password:   secretDefault("smtp-password", viper.GetString("email.password")),
		Recipients: viper.GetStringSlice("email.recipients"),
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}

	return cfg, nil
}

// dataDir resolves the base data directory: --data-dir flag, then
// config, then "data".
func dataDir() string {
	if d, _ := rootCmd.PersistentFlags().GetString("data-dir"); d != "" {
		return d
	}
	if d := viper.GetString("crawl.data_dir"); d != "" {
		return d
	}
	return defaultDataDir
}

// parseKeywords normalizes the keyword config into weighted form. The
// config may supply a map of keyword to weight, or a list whose items
// are plain strings (weight 1.0) or single-entry weighted maps:
//
//	keywords:
//	  - diffusion
//	  - transformer: 2.0
func parseKeywords(raw any) (map[string]float64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]float64, len(v))
		for k, val := range v {
			w, err := asWeight(val)
			if err != nil {
				return nil, fmt.Errorf("keyword %q: %w", k, err)
			}
			out[k] = w
		}
		return out, nil
	case []any:
		out := make(map[string]float64, len(v))
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				out[entry] = 1.0
			case map[string]any:
				for k, val := range entry {
					w, err := asWeight(val)
					if err != nil {
						return nil, fmt.Errorf("keyword %q: %w", k, err)
					}
					out[k] = w
				}
			default:
				return nil, fmt.Errorf("keyword entry %v: expected string or map", item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("match.keywords: expected list or map, got %T", raw)
	}
}

func asWeight(val any) (float64, error) {
	switch w := val.(type) {
	case float64:
		return w, nil
	case int:
		return float64(w), nil
	default:
		return 0, fmt.Errorf("expected numeric weight, got %T", val)
	}
}
