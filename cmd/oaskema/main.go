package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	oaskema "github.com/reoring/oaskema"
	"github.com/reoring/oaskema/i18n"
	"github.com/reoring/oaskema/internal/docscan"
	"github.com/reoring/oaskema/loader"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:])
	case "resolve":
		resolveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "oaskema CLI\n\nUsage:\n  oaskema validate -schema doc.yaml -data value.json [-name Schema] [-lang en]\n  oaskema resolve -schema doc.yaml\n\nNotes:\n  - Schema documents and data files may be JSON or YAML.\n  - External $refs are loaded relative to the schema document's directory.\n  - validate exits 1 when the value does not conform.")
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemaPath, dataPath, name, lang string
	fs.StringVar(&schemaPath, "schema", "", "schema document (JSON or YAML)")
	fs.StringVar(&dataPath, "data", "", "value to validate (JSON or YAML)")
	fs.StringVar(&name, "name", "", "validate against this named schema instead of the root")
	fs.StringVar(&lang, "lang", "", "message language (en, ja)")
	_ = fs.Parse(args)
	if schemaPath == "" || dataPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	if lang != "" {
		i18n.SetLanguage(lang)
	}

	ctx := context.Background()
	s, doc := loadSchema(ctx, schemaPath, name)
	for _, w := range doc.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		fatalf("reading data: %v", err)
	}
	v, err := decodeData(data)
	if err != nil {
		fatalf("decoding data: %v", err)
	}

	msgs := oaskema.Errors(ctx, s, v)
	if len(msgs) == 0 {
		fmt.Println("ok")
		return
	}
	for _, m := range msgs {
		fmt.Println(m)
	}
	os.Exit(1)
}

func resolveCmd(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "schema document (JSON or YAML)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	doc := loadDocument(ctx, schemaPath)
	for _, w := range doc.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if doc.Root() != nil {
		fmt.Println("root: ok")
	}
	for _, n := range doc.Names() {
		fmt.Println("schema:", n)
	}
}

func loadDocument(ctx context.Context, schemaPath string) *oaskema.Document {
	dir := filepath.Dir(schemaPath)
	doc, err := oaskema.ParseDocument(ctx, filepath.Base(schemaPath), oaskema.ResolveOpt{Loader: loader.Dir(dir)})
	if err != nil {
		fatalf("resolving %s: %v", schemaPath, err)
	}
	return doc
}

func loadSchema(ctx context.Context, schemaPath, name string) (*oaskema.Schema, *oaskema.Document) {
	doc := loadDocument(ctx, schemaPath)
	if name != "" {
		s, ok := doc.Schema(name)
		if !ok {
			fatalf("schema %q not found in %s", name, schemaPath)
		}
		return s, doc
	}
	s := doc.Root()
	if s == nil {
		fatalf("%s has no root schema; use -name", schemaPath)
	}
	return s, doc
}

// decodeData reads a value to validate, JSON first and YAML as the fallback,
// the same order schema documents take.
func decodeData(data []byte) (any, error) {
	v, jerr := docscan.DecodeValue(data)
	if jerr == nil {
		return v, nil
	}
	v, yerr := docscan.DecodeYAML(data)
	if yerr == nil {
		return v, nil
	}
	return nil, fmt.Errorf("neither JSON (%v) nor YAML (%v)", jerr, yerr)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
