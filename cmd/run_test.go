package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ziadkadry99/krishi-mitra/internal/datauri"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
	"github.com/ziadkadry99/krishi-mitra/internal/progress"
)

type echoInvoker struct {
	calls atomic.Int32
}

func (e *echoInvoker) Invoke(ctx context.Context, name string, input map[string]any) (*pipeline.Result, error) {
	e.calls.Add(1)
	q, _ := input["question"].(string)
	if q == "" {
		return nil, &pipeline.UpstreamError{Service: "mock", Err: io.ErrUnexpectedEOF}
	}
	return &pipeline.Result{Flow: name, Output: map[string]any{"advice": "re: " + q}}, nil
}

func TestReadInput(t *testing.T) {
	in, err := readInput(`{"question":"When to sow?"}`)
	if err != nil || in["question"] != "When to sow?" {
		t.Fatalf("inline: %v %v", in, err)
	}

	path := filepath.Join(t.TempDir(), "in.json")
	os.WriteFile(path, []byte(`{"lat":18.5}`), 0644)
	in, err = readInput("@" + path)
	if err != nil || in["lat"] != 18.5 {
		t.Fatalf("file: %v %v", in, err)
	}

	if in, err := readInput(""); err != nil || len(in) != 0 {
		t.Errorf("empty: %v %v", in, err)
	}
	if _, err := readInput(`[1]`); err == nil {
		t.Error("expected error for non-object input")
	}
}

func TestAttachFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	png := []byte("\x89PNG\r\n\x1a\n0000")
	os.WriteFile(path, png, 0644)

	input := map[string]any{}
	if err := attachFiles(input, []string{"photoDataUri=" + path}); err != nil {
		t.Fatal(err)
	}
	d, err := datauri.Parse(input["photoDataUri"].(string))
	if err != nil {
		t.Fatal(err)
	}
	if d.MIMEType != "image/png" || !bytes.Equal(d.Data, png) {
		t.Errorf("got %s %q", d.MIMEType, d.Data)
	}

	if err := attachFiles(input, []string{"no-equals"}); err == nil {
		t.Error("expected error for malformed pair")
	}
}

func TestRunBatch(t *testing.T) {
	batch := strings.Join([]string{
		`{"question":"one"}`,
		``,
		`{"question":""}`,
		`not json`,
		`{"question":"four"}`,
	}, "\n")

	inv := &echoInvoker{}
	var out, log bytes.Buffer
	failed, err := runBatch(context.Background(), inv, "crop-advice", strings.NewReader(batch), &out, 2, progress.NewCIReporter(&log))
	if err != nil {
		t.Fatal(err)
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if inv.calls.Load() != 3 {
		t.Errorf("invoked %d times, want 3", inv.calls.Load())
	}

	var lines []batchLine
	dec := json.NewDecoder(&out)
	for dec.More() {
		var l batchLine
		if err := dec.Decode(&l); err != nil {
			t.Fatal(err)
		}
		lines = append(lines, l)
	}
	if len(lines) != 4 {
		t.Fatalf("got %d output lines", len(lines))
	}
	if lines[0].Line != 1 || lines[0].Output["advice"] != "re: one" {
		t.Errorf("line 1 = %+v", lines[0])
	}
	if lines[1].Line != 3 || lines[1].Kind != pipeline.KindUpstream {
		t.Errorf("line 3 = %+v", lines[1])
	}
	if lines[2].Line != 4 || lines[2].Kind != pipeline.KindValidation {
		t.Errorf("line 4 = %+v", lines[2])
	}
	if lines[3].Line != 5 || lines[3].Output["advice"] != "re: four" {
		t.Errorf("line 5 = %+v", lines[3])
	}
	if !strings.Contains(log.String(), "Batch complete: 2 ok, 2 failed") {
		t.Errorf("progress log = %q", log.String())
	}
}

func TestWriteAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := writeAudio(map[string]any{"audio": datauri.Encode("audio/wav", []byte("RIFF"))}, path); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(path); string(b) != "RIFF" {
		t.Errorf("wrote %q", b)
	}
	if err := writeAudio(map[string]any{}, path); err == nil {
		t.Error("expected error when output has no audio")
	}
}
