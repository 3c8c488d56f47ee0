// Command ask answers one question from the command line, the way the API
// does, and optionally verifies the answer against retrieved evidence.
//
//	ask [-k 4] [-verify] [-timeout 2m] "question"
//	ask -ping
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/triage/internal/answers"
	"github.com/JaimeStill/triage/internal/api"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/generation"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/internal/retrieval"
)

func main() {
	var (
		k       = flag.Int("k", 0, "Number of chunks to retrieve (0 uses retrieval.default_k)")
		verify  = flag.Bool("verify", false, "Verify the answer and print the report as JSON")
		ping    = flag.Bool("ping", false, "Check LLM connectivity and exit")
		timeout = flag.Duration("timeout", 2*time.Minute, "Overall time limit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *ping {
		reply, err := generation.Ping(ctx, infra.Generator)
		if err != nil {
			log.Fatal("llm ping failed:", err)
		}
		fmt.Println("llm ping ok:", reply)
		return
	}

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, `usage: ask [-k N] [-verify] [-timeout D] "question"`)
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed:", err)
	}
	infra.Lifecycle.WaitForStartup()
	if err := infra.Lifecycle.StartupErr(); err != nil {
		infra.Logger.Warn("startup incomplete, answers may degrade", "error", err)
	}
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	domain := api.NewDomain(api.NewRuntime(cfg, infra))

	env := domain.Router.Answer(ctx, question, *k)
	fmt.Println(env.String())

	if !*verify {
		return
	}

	collection, ok := verifyCollection(env)
	if !ok {
		fmt.Fprintln(os.Stderr, "nothing to verify:", env.Outcome)
		return
	}

	report := domain.Verifier.VerifyIn(ctx, question, env.Text, cfg.Retrieval.ClampK(*k), collection)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal("encode report:", err)
	}
	fmt.Println(string(out))
}

// verifyCollection checks an answer against the collection it was drawn from.
func verifyCollection(env answers.Envelope) (retrieval.Collection, bool) {
	if env.Outcome == answers.OutcomeError {
		return "", false
	}
	switch env.Visibility {
	case answers.Internal:
		return retrieval.Internal, true
	case answers.Public:
		return retrieval.Public, true
	}
	return "", false
}
