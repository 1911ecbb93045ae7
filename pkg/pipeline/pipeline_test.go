package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/extract"
	"github.com/inkgraph/backend/pkg/ocr"
	"github.com/inkgraph/backend/pkg/structure"
)

type fakeExtractor struct {
	results map[string]extract.Result
	errs    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, file extract.File, _ ocr.Config) (extract.Result, error) {
	if err := f.errs[file.Name]; err != nil {
		return extract.Result{}, err
	}
	return f.results[file.Name], nil
}

type fakeStructurer struct {
	result common.StructuredText
	got    string
}

func (f *fakeStructurer) Structure(_ context.Context, text string, _ structure.Options) common.StructuredText {
	f.got = text
	out := f.result
	if out.CleanText == "" {
		out.CleanText = text
	}
	if out.Relations == nil {
		out.Relations = [][]string{}
	}
	return out
}

func TestProcessNoFiles(t *testing.T) {
	c := New(&fakeExtractor{}, &fakeStructurer{})
	if _, err := c.Process(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for empty file list")
	}
}

func TestProcessFullPipeline(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"scan.pdf": {
				Text:            "Photosynthesis converts light into energy.\nChlorophyll absorbs light.",
				Pages:           2,
				ImagesProcessed: 2,
				EngineUsed:      ocr.EngineCloud,
			},
		},
	}
	structurer := &fakeStructurer{
		result: common.StructuredText{
			Bullets: []common.Bullet{
				{Text: "Photosynthesis", Children: []common.Bullet{{Text: "Chlorophyll"}}},
			},
			Concepts:  []string{"photosynthesis", "chlorophyll"},
			Relations: [][]string{{"photosynthesis", "chlorophyll"}},
			FromModel: true,
			Provider:  "gemini",
		},
	}

	c := New(extractor, structurer)
	resp, err := c.Process(context.Background(), []extract.File{{Name: "scan.pdf", Data: []byte("x")}}, Options{
		User: "alex",
		TopK: 5,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if resp.NoTextDetected {
		t.Fatal("text was detected but flagged as missing")
	}
	if !strings.Contains(resp.Text, "Photosynthesis") {
		t.Fatalf("Text = %q", resp.Text)
	}
	if len(resp.Keyphrases) != 2 || resp.Keyphrases[0].Phrase != "Photosynthesis" {
		t.Fatalf("Keyphrases = %v", resp.Keyphrases)
	}
	if resp.Mindmap.Empty() {
		t.Fatal("mindmap empty despite bullets")
	}
	if resp.Flowchart.Empty() {
		t.Fatal("flowchart empty despite relations")
	}
	if resp.Meta.OCREngine != "cloud" || resp.Meta.LLMProvider != "gemini" {
		t.Fatalf("Meta = %+v", resp.Meta)
	}
	if resp.Meta.Pages != 2 || resp.Meta.ImagesProcessed != 2 {
		t.Fatalf("Meta = %+v", resp.Meta)
	}
	if resp.Meta.User != "alex" {
		t.Fatalf("Meta.User = %q", resp.Meta.User)
	}
	if len(resp.Meta.Files) != 1 || resp.Meta.Files[0].Error != "" {
		t.Fatalf("Files = %+v", resp.Meta.Files)
	}
}

func TestProcessCleansTextBeforeStructuring(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"notes.txt": {Text: "an exam-\nple of text", Pages: 1, EngineUsed: ocr.EngineNone},
		},
	}
	structurer := &fakeStructurer{}
	c := New(extractor, structurer)

	if _, err := c.Process(context.Background(), []extract.File{{Name: "notes.txt", Data: []byte("x")}}, Options{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(structurer.got, "example") {
		t.Fatalf("structurer received uncleaned text: %q", structurer.got)
	}
}

func TestProcessPartialFileFailure(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"good.txt": {Text: "Working notes about entropy. Entropy measures disorder.", Pages: 1, EngineUsed: ocr.EngineNone},
		},
		errs: map[string]error{
			"bad.bin": errors.New("corrupt file"),
		},
	}
	c := New(extractor, &fakeStructurer{})

	resp, err := c.Process(context.Background(), []extract.File{
		{Name: "good.txt", Data: []byte("x")},
		{Name: "bad.bin", Data: []byte("x")},
	}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(resp.Meta.Files) != 2 {
		t.Fatalf("Files = %+v", resp.Meta.Files)
	}
	var failed *FileStatus
	for i := range resp.Meta.Files {
		if resp.Meta.Files[i].Name == "bad.bin" {
			failed = &resp.Meta.Files[i]
		}
	}
	if failed == nil || failed.Error == "" {
		t.Fatalf("failed file not reported: %+v", resp.Meta.Files)
	}
	if !strings.Contains(resp.Text, "entropy") {
		t.Fatalf("good file text lost: %q", resp.Text)
	}
}

func TestProcessUnsupportedFormatFailsRequest(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"good.txt": {Text: "Readable notes.", Pages: 1, EngineUsed: ocr.EngineNone},
		},
		errs: map[string]error{
			"junk.bin": extract.ErrUnsupportedFormat,
		},
	}
	c := New(extractor, &fakeStructurer{})

	_, err := c.Process(context.Background(), []extract.File{
		{Name: "good.txt", Data: []byte("x")},
		{Name: "junk.bin", Data: []byte("x")},
	}, Options{})
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want unsupported format", err)
	}
}

func TestProcessAllFilesFail(t *testing.T) {
	extractor := &fakeExtractor{
		errs: map[string]error{"bad.bin": errors.New("nope")},
	}
	c := New(extractor, &fakeStructurer{})
	if _, err := c.Process(context.Background(), []extract.File{{Name: "bad.bin", Data: []byte("x")}}, Options{}); err == nil {
		t.Fatal("expected error when every file fails")
	}
}

func TestProcessNoTextDetected(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"blank.pdf": {Pages: 3, ImagesProcessed: 3, EngineUsed: ocr.EngineNone},
		},
	}
	c := New(extractor, &fakeStructurer{})

	resp, err := c.Process(context.Background(), []extract.File{{Name: "blank.pdf", Data: []byte("x")}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !resp.NoTextDetected {
		t.Fatal("NoTextDetected not set")
	}
	if resp.Meta.LLMProvider != "none" {
		t.Fatalf("LLMProvider = %q", resp.Meta.LLMProvider)
	}
	if resp.Meta.Pages != 3 {
		t.Fatalf("Pages = %d", resp.Meta.Pages)
	}
}

func TestProcessRawExcerptIsCapped(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"big.txt": {Text: strings.Repeat("entropy and order. ", 200), Pages: 1, EngineUsed: ocr.EngineNone},
		},
	}
	c := New(extractor, &fakeStructurer{})

	resp, err := c.Process(context.Background(), []extract.File{{Name: "big.txt", Data: []byte("x")}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := len([]rune(resp.Meta.RawExcerpt)); got > 500 {
		t.Fatalf("RawExcerpt length = %d, want <= 500", got)
	}
}

func TestProcessFlowchartFallsBackWithoutRelations(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]extract.Result{
			"notes.txt": {
				Text:       "Mitochondria produce energy. Energy powers cells.",
				Pages:      1,
				EngineUsed: ocr.EngineNone,
			},
		},
	}
	structurer := &fakeStructurer{
		result: common.StructuredText{
			Concepts:  []string{"mitochondria", "energy", "cells"},
			FromModel: true,
			Provider:  "gemini",
		},
	}
	c := New(extractor, structurer)

	resp, err := c.Process(context.Background(), []extract.File{{Name: "notes.txt", Data: []byte("x")}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Flowchart.Empty() {
		t.Fatal("flowchart empty despite SVO and cooccurrence fallbacks")
	}
}
