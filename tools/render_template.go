package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"resume-studio/internal/adapter/repository"
	"resume-studio/internal/render"
	"resume-studio/internal/transform"
)

// Renders a built-in template filled with its sample data, for eyeballing
// layouts without a browser round trip.
func main() {
	id := flag.String("template", "classic", "template id")
	out := flag.String("out", filepath.Join("resume-data", "generated"), "output directory")
	measure := flag.Bool("measure", false, "render pages without fixed height")
	flag.Parse()

	templates, err := repository.NewTemplatesRepo(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load templates: %v\n", err)
		os.Exit(2)
	}
	tpl, err := templates.Get(context.Background(), *id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "template %s: %v\n", *id, err)
		os.Exit(2)
	}
	doc, err := transform.Inject(tpl.Content, tpl.Sample)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inject sample: %v\n", err)
		os.Exit(2)
	}
	html, err := render.HTML(doc, render.Options{Title: tpl.Name, Measure: *measure})
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(2)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create out: %v\n", err)
		os.Exit(2)
	}
	outFile := filepath.Join(*out, "template_"+tpl.ID+".html")
	if err := os.WriteFile(outFile, []byte(html), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("wrote %s\n", outFile)
}
