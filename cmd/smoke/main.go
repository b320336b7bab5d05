// Command smoke drives generate, fill and export end to end against a mock
// AI service and a local headless Chrome.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"resume-studio/internal/adapter/repository"
	"resume-studio/internal/model"
	"resume-studio/internal/usecase"
	"resume-studio/pkg/ai"
	"resume-studio/pkg/infrastructure"

	"github.com/google/uuid"
)

func mockAI() *httptest.Server {
	draft := map[string]interface{}{
		"fields": map[string]interface{}{
			"name":     "Test User",
			"headline": "Engineer",
			"email":    "t@example.com",
			"website":  "example.com",
			"summary":  "Builds data pipelines and the teams that run them.",
		},
		"sections": map[string]interface{}{
			"experience": []map[string]interface{}{{
				"exp-company":     "Acme",
				"exp-role":        "Engineer",
				"exp-period":      2021,
				"exp-description": []string{"Cut pipeline latency in half", "Led the deployment rework"},
			}},
			"skills": []map[string]interface{}{{"skill-name": "Go"}, {"skill-name": "Postgres"}},
		},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		if err := json.Unmarshal(body, &req); err != nil || req["input"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out, _ := json.Marshal(draft)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"agent": "mock", "output": "```json\n" + string(out) + "\n```"})
	}))
}

func main() {
	chrome := flag.String("chrome", os.Getenv("CHROME_PATH"), "chrome executable")
	outDir := flag.String("out", "resume-data", "artifact directory")
	showText := flag.Bool("text", false, "print the text layer of the exported pdf")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := mockAI()
	defer srv.Close()

	templates, err := repository.NewTemplatesRepo(nil)
	if err != nil {
		fail(log, "templates", err)
	}
	renderer := infrastructure.NewChromedpRenderer(*chrome)
	processor := usecase.NewProcessor(usecase.Deps{
		Documents: repository.NewDocumentsRepo(nil),
		Templates: templates,
		Profiles:  repository.NewProfileAggregator(nil),
		Drafter:   ai.NewClient(srv.URL, "english"),
		Renderer:  renderer,
		OpenProbe: func(ctx context.Context) (usecase.HeightProbe, error) {
			tab, err := renderer.OpenTab(ctx)
			if err != nil {
				return nil, err
			}
			return tab, nil
		},
	}, usecase.Options{OutputDir: *outDir, Logger: log})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	doc, err := processor.Generate(ctx, usecase.GenerateRequest{
		UserID: uuid.MustParse("9136d765-327d-4cf3-bf1c-98aa1449e52d"),
		Prompt: "backend engineer with data pipeline experience",
		Mode:   usecase.ModeData,
	})
	if err != nil {
		fail(log, "generate", err)
	}

	data, err := processor.ExtractData(ctx, doc.ID)
	if err != nil {
		fail(log, "extract", err)
	}
	data.Sections[model.SectionCertifications] = []model.Item{{model.FieldCertName: "Certified Kubernetes Administrator"}}
	if _, err := processor.Fill(ctx, doc.ID, data); err != nil {
		fail(log, "fill", err)
	}

	res, err := processor.Export(ctx, doc.ID)
	if err != nil {
		fail(log, "export", err)
	}
	fmt.Printf("exported %s: %d pages (%d in pdf), %d pagination moves\n", res.PDFPath, res.Pages, res.PDFPages, res.Moves)

	if *showText {
		text, err := infrastructure.PDFText(res.PDF)
		if err != nil {
			fail(log, "pdf text", err)
		}
		fmt.Println(text)
	}
}

func fail(log *slog.Logger, step string, err error) {
	log.Error("smoke run failed", "step", step, "error", err)
	os.Exit(1)
}
