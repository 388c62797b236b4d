package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"ragpipe/internal/chunker"
	"ragpipe/internal/config"
	"ragpipe/internal/corpus"
	"ragpipe/internal/domain"
	embopenai "ragpipe/internal/embedding/openai"
	"ragpipe/internal/embedding/tfidf"
	"ragpipe/internal/loader"
	"ragpipe/internal/pipeline"
	"ragpipe/internal/retriever"
	"ragpipe/internal/retriever/qdrant"
	synthlocal "ragpipe/internal/synthesizer/local"
	synthopenai "ragpipe/internal/synthesizer/openai"
	"ragpipe/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		mode    string
		query   string
		csvPath string
		k       int
		cutoff  float64
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragpipe/config.yaml if not provided)")
	flag.StringVar(&mode, "mode", "tui", "Mode: index, ask, keywords, tui")
	flag.StringVar(&query, "query", "", "Query for ask/keywords modes")
	flag.StringVar(&csvPath, "csv", "", "CSV file to index (rows of the configured column become documents)")
	flag.IntVar(&k, "k", 0, "Number of chunks to retrieve (0 uses the config default)")
	flag.Float64Var(&cutoff, "cutoff", math.NaN(), "Minimum similarity score, applied after top-k")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	emb := buildEmbedder(cfg)

	switch mode {
	case "index":
		runIndex(cfg, emb, csvPath, flag.Args())
	case "ask", "keywords", "tui":
		runQuery(cfg, emb, mode, query, k, cutoff)
	default:
		log.Fatal("unknown mode", "mode", mode)
	}
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatal("openai embedder config missing")
		}
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatal("openai embedder init failed", "err", err)
		}
		return client
	default:
		log.Fatal("unknown embedder", "type", cfg.Embedder.Type)
	}
	return nil
}

func buildChunker(cfg *config.AppConfig) domain.Chunker {
	switch cfg.Chunker.Type {
	case "sentence", "":
		return chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatal("unknown chunker", "type", cfg.Chunker.Type)
	}
	return nil
}

func buildSynthesizer(cfg *config.AppConfig, keywords bool) domain.Synthesizer {
	switch cfg.Synthesizer.Type {
	case "local", "":
		if keywords {
			return synthlocal.NewKeyworder(cfg.Synthesizer.MaxKeywords)
		}
		return synthlocal.NewAnswerer(cfg.Synthesizer.MaxSentences)
	case "openai":
		if cfg.Synthesizer.OpenAI == nil {
			log.Fatal("openai synthesizer config missing")
		}
		client, err := synthopenai.NewClient(synthopenai.Config{
			BaseURL:   cfg.Synthesizer.OpenAI.BaseURL,
			APIKeyEnv: cfg.Synthesizer.OpenAI.APIKeyEnv,
			Model:     cfg.Synthesizer.OpenAI.Model,
			Timeout:   time.Duration(cfg.Synthesizer.OpenAI.TimeoutSecs) * time.Second,
			Keywords:  keywords,
		})
		if err != nil {
			log.Fatal("openai synthesizer init failed", "err", err)
		}
		return client
	default:
		log.Fatal("unknown synthesizer", "type", cfg.Synthesizer.Type)
	}
	return nil
}

func runIndex(cfg *config.AppConfig, emb domain.Embedder, csvPath string, inputs []string) {
	var documents []domain.Document
	var err error
	if csvPath != "" {
		documents, err = loader.LoadCSV(csvPath, cfg.Corpus.CSVColumn)
	} else {
		if len(inputs) == 0 {
			fmt.Println("Usage: ragpipe -mode index [-csv jobs.csv | file1.txt file2.pdf ...]")
			os.Exit(1)
		}
		documents, err = loader.LoadDocuments(inputs)
	}
	if err != nil {
		log.Fatal("load documents failed", "err", err)
	}

	c, err := corpus.Build(documents, buildChunker(cfg), emb)
	if err != nil {
		log.Fatal("corpus build failed", "err", err)
	}
	if err := corpus.Persist(c, cfg.Corpus.Path); err != nil {
		log.Fatal("corpus persist failed", "err", err)
	}
	if cfg.Retriever.Type == "qdrant" {
		q := qdrantRetriever(cfg)
		if err := q.Index(c); err != nil {
			log.Fatal("qdrant index failed", "err", err)
		}
		log.Info("qdrant collection updated", "collection", cfg.Retriever.Qdrant.Collection)
	}
}

func runQuery(cfg *config.AppConfig, emb domain.Embedder, mode, query string, k int, cutoff float64) {
	c, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		log.Fatal("corpus load failed", "path", cfg.Corpus.Path, "err", err)
	}
	if c.EmbedderName() != emb.Name() {
		log.Warn("corpus was built with a different embedder", "corpus", c.EmbedderName(), "configured", emb.Name())
	}
	// Local embedders rebuild their vocabulary from the corpus texts; remote
	// ones treat Prepare as a no-op.
	texts := make([]string, 0, c.Len())
	for _, ch := range c.Chunks() {
		texts = append(texts, ch.Text)
	}
	if err := emb.Prepare(texts); err != nil {
		log.Fatal("embedder prepare failed", "err", err)
	}

	var ret domain.Retriever
	switch cfg.Retriever.Type {
	case "local", "":
		ret = retriever.NewLocal(c)
	case "qdrant":
		ret = qdrantRetriever(cfg)
	default:
		log.Fatal("unknown retriever", "type", cfg.Retriever.Type)
	}

	opts := []pipeline.Option{pipeline.WithMaxContextChars(cfg.Pipeline.MaxContextChars)}
	if !math.IsNaN(cutoff) {
		opts = append(opts, pipeline.WithCutoff(cutoff))
	} else if cfg.Pipeline.ScoreCutoff != nil {
		opts = append(opts, pipeline.WithCutoff(*cfg.Pipeline.ScoreCutoff))
	}

	switch mode {
	case "ask":
		if query == "" {
			log.Fatal("ask mode requires -query")
		}
		p := pipeline.New(emb, ret, buildSynthesizer(cfg, false), opts...)
		if k <= 0 {
			k = cfg.Pipeline.AnswerK
		}
		ans, err := p.Answer(query, k)
		if err != nil {
			log.Fatal("answer failed", "err", err)
		}
		printAnswer(ans)
	case "keywords":
		if query == "" {
			log.Fatal("keywords mode requires -query")
		}
		p := pipeline.New(emb, ret, buildSynthesizer(cfg, true), opts...)
		if k <= 0 {
			k = cfg.Pipeline.KeywordK
		}
		terms, ans, err := p.Keywords(query, k)
		if err != nil {
			log.Fatal("keyword extraction failed", "err", err)
		}
		for _, term := range terms {
			fmt.Println(term)
		}
		printSources(ans)
	case "tui":
		p := pipeline.New(emb, ret, buildSynthesizer(cfg, false), opts...)
		if k <= 0 {
			k = cfg.Pipeline.AnswerK
		}
		m := tui.New(p, k)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal("tui failed", "err", err)
		}
	}
}

func qdrantRetriever(cfg *config.AppConfig) *qdrant.Retriever {
	if cfg.Retriever.Qdrant == nil {
		log.Fatal("qdrant config missing")
	}
	return qdrant.New(qdrant.Config{
		URL:        cfg.Retriever.Qdrant.URL,
		APIKey:     cfg.Retriever.Qdrant.APIKey,
		Collection: cfg.Retriever.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Retriever.Qdrant.TimeoutSecs) * time.Second,
	})
}

func printAnswer(ans domain.Answer) {
	fmt.Println(ans.Text)
	printSources(ans)
}

func printSources(ans domain.Answer) {
	if ans.NoContext {
		fmt.Println("\n(no supporting context was found)")
		return
	}
	fmt.Println("\nSources:")
	for _, r := range ans.Cited {
		fmt.Printf("  %s#%d  score=%.3f\n", r.Chunk.Source.Path, r.Chunk.Source.Index, r.Score)
	}
}
