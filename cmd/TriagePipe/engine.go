package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/directory"
	"github.com/BTreeMap/TriagePipe/internal/extract"
	"github.com/BTreeMap/TriagePipe/internal/flow"
	"github.com/BTreeMap/TriagePipe/internal/genai"
	"github.com/BTreeMap/TriagePipe/internal/knowledge"
	"github.com/BTreeMap/TriagePipe/internal/lexicon"
	"github.com/BTreeMap/TriagePipe/internal/referral"
	"github.com/BTreeMap/TriagePipe/internal/selector"
	"github.com/BTreeMap/TriagePipe/internal/store"
)

// app is a fully wired engine plus whatever must be closed with it.
type app struct {
	engine  *flow.Engine
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// buildEngine wires the dialogue engine from configuration. A missing or broken
// model is not fatal: the engine runs offline.
func buildEngine(config Config) (*app, error) {
	rt := &app{}
	var engineOpts []flow.Option

	var nb *classifier.NaiveBayes
	featureKeys := lexicon.DefaultKeys()
	if loaded, err := classifier.LoadFile(config.ModelPath); err != nil {
		slog.Warn("Classifier unavailable, running offline", "error", err, "model_path", config.ModelPath)
	} else {
		nb = loaded
		featureKeys = nb.Features()
		engineOpts = append(engineOpts, flow.WithClassifier(nb))
		slog.Info("Classifier loaded", "model_path", config.ModelPath, "features", len(nb.Features()), "classes", len(nb.Classes()))
	}

	lex, err := buildLexicon(config.LexiconPath, featureKeys)
	if err != nil {
		return nil, err
	}

	extractOpts := []extract.Option{extract.WithThreshold(config.MatchThreshold)}
	if config.LLMFallback {
		client, err := genai.NewClient(genai.WithAPIKey(config.OpenAIKey))
		if err != nil {
			slog.Warn("LLM fallback requested but unavailable", "error", err)
		} else {
			extractOpts = append(extractOpts, extract.WithInterpreter(client))
			slog.Info("LLM symptom fallback enabled")
		}
	}
	engineOpts = append(engineOpts, flow.WithExtractor(extract.New(lex, extractOpts...)))

	switch config.Selector {
	case "importance":
		if nb == nil {
			slog.Warn("Importance selector needs a model, using random")
			break
		}
		engineOpts = append(engineOpts, flow.WithSelector(selector.NewImportance(lex.Keys(), nb.Importance())))
	case "random":
	default:
		slog.Warn("Unknown selector, using random", "selector", config.Selector)
	}

	engineOpts = append(engineOpts, flow.WithSessionStore(store.NewInMemorySessionStore(
		store.WithMaxSessions(config.MaxSessions),
		store.WithSessionTTL(config.SessionTTL),
	)))

	if config.DatabaseURL != "" {
		cat, err := store.OpenCatalog(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		rt.closers = append(rt.closers, cat)
		engineOpts = append(engineOpts, flow.WithReferrer(referral.New(cat)), flow.WithKnowledge(cat))
		slog.Info("Serving doctors and disease knowledge from catalog", "dsn_type", store.DetectDSNType(config.DatabaseURL))
	} else {
		engineOpts = append(engineOpts, flow.WithKnowledge(knowledge.LoadFiles(config.DescriptionsCSV, config.PrecautionsCSV)))
		if config.DoctorsCSV == "" {
			slog.Warn("No doctor directory configured, referrals will find no doctors")
			engineOpts = append(engineOpts, flow.WithReferrer(referral.New(nil)))
		} else if dir, err := directory.LoadFile(config.DoctorsCSV); err != nil {
			slog.Warn("Doctor directory unavailable", "error", err, "path", config.DoctorsCSV)
			engineOpts = append(engineOpts, flow.WithReferrer(referral.New(nil)))
		} else {
			engineOpts = append(engineOpts, flow.WithReferrer(referral.New(dir)))
		}
	}

	rt.engine = flow.NewEngine(lex, engineOpts...)
	return rt, nil
}

func buildLexicon(path string, featureKeys []string) (*lexicon.Lexicon, error) {
	if path == "" {
		lex, err := lexicon.Default(featureKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to build default lexicon: %w", err)
		}
		return lex, nil
	}
	lex, err := lexicon.Load(path, featureKeys)
	if err != nil {
		return nil, err
	}
	slog.Info("Lexicon loaded", "path", path, "entries", lex.Len())
	return lex, nil
}
