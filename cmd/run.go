package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/krishi-mitra/internal/datauri"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
	"github.com/ziadkadry99/krishi-mitra/internal/progress"
)

var (
	runInput       string
	runBatchFile   string
	runAttach      []string
	runAudioOut    string
	runConcurrency int
)

var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Run a flow once, or over a JSONL batch of inputs",
	Long: `Runs a flow with a JSON input and prints the output as JSON.

  krishi run crop-advice --input '{"question":"When should I sow wheat?"}'
  krishi run disease-id --attach photoDataUri=leaf.jpg
  krishi run text-to-speech --input @tts.json --audio-out reply.wav
  krishi run crop-advice --batch questions.jsonl > answers.jsonl

In batch mode each line of the file is one input object and each output line
carries the input line number, the output or the error kind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		svc, err := newFlowService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		name := args[0]

		if runBatchFile != "" {
			f, err := os.Open(runBatchFile)
			if err != nil {
				return fmt.Errorf("opening batch file: %w", err)
			}
			defer f.Close()
			failed, err := runBatch(cmd.Context(), svc, name, f, os.Stdout, runConcurrency, progress.NewReporter())
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d batch item(s) failed", failed)
			}
			return nil
		}

		input, err := readInput(runInput)
		if err != nil {
			return err
		}
		if err := attachFiles(input, runAttach); err != nil {
			return err
		}

		res, err := svc.Invoke(cmd.Context(), name, input)
		if err != nil {
			return fmt.Errorf("%s: %w", pipeline.KindOf(err), err)
		}
		if runAudioOut != "" {
			if err := writeAudio(res.Output, runAudioOut); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Output)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "flow input as JSON, or @file to read it from a file")
	runCmd.Flags().StringVar(&runBatchFile, "batch", "", "JSONL file with one flow input per line")
	runCmd.Flags().StringArrayVar(&runAttach, "attach", nil, "field=path: load a local file into a data URI field")
	runCmd.Flags().StringVar(&runAudioOut, "audio-out", "", "write the audio output of text-to-speech to this file")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "parallel flow runs in batch mode")
	rootCmd.AddCommand(runCmd)
}

// flowInvoker is the part of flows.Service the run command needs.
type flowInvoker interface {
	Invoke(ctx context.Context, name string, input map[string]any) (*pipeline.Result, error)
}

// readInput parses an inline JSON object or, with a leading @, a file.
func readInput(s string) (map[string]any, error) {
	input := map[string]any{}
	if s == "" {
		return input, nil
	}
	data := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	return input, nil
}

// attachFiles sets each field=path pair as a data URI built from the file.
func attachFiles(input map[string]any, pairs []string) error {
	for _, pair := range pairs {
		field, path, ok := strings.Cut(pair, "=")
		if !ok || field == "" || path == "" {
			return fmt.Errorf("invalid --attach %q: want field=path", pair)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		input[field] = datauri.Encode(http.DetectContentType(data), data)
	}
	return nil
}

func writeAudio(output map[string]any, path string) error {
	uri, _ := output["audio"].(string)
	if uri == "" {
		return errors.New("flow output has no audio")
	}
	d, err := datauri.Parse(uri)
	if err != nil {
		return fmt.Errorf("decoding audio: %w", err)
	}
	return os.WriteFile(path, d.Data, 0644)
}

// batchLine is one line of batch output.
type batchLine struct {
	Line   int                `json:"line"`
	Output map[string]any     `json:"output,omitempty"`
	Error  string             `json:"error,omitempty"`
	Kind   pipeline.ErrorKind `json:"kind,omitempty"`
}

// runBatch runs flow name once per non-blank input line, at most concurrency
// at a time, and writes results to w in input order. A failed item does not
// stop the others; the number of failures is returned.
func runBatch(ctx context.Context, svc flowInvoker, name string, r io.Reader, w io.Writer, concurrency int, reporter progress.Reporter) (int, error) {
	type item struct {
		line  int
		input map[string]any
		err   error
	}
	var items []item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 32<<20)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		it := item{line: n, input: map[string]any{}}
		if err := json.Unmarshal([]byte(text), &it.input); err != nil {
			it.err = fmt.Errorf("line %d is not a JSON object: %w", n, err)
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading batch: %w", err)
	}

	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]batchLine, len(items))
	reporter.Start(len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, it := range items {
		g.Go(func() error {
			out := batchLine{Line: it.line}
			err := it.err
			if err == nil {
				var res *pipeline.Result
				if res, err = svc.Invoke(gctx, name, it.input); err == nil {
					out.Output = res.Output
				}
			}
			if err != nil {
				out.Error = err.Error()
				out.Kind = pipeline.KindOf(err)
				if it.err != nil {
					out.Kind = pipeline.KindValidation
				}
			}
			results[i] = out
			reporter.Done(fmt.Sprintf("line %d", it.line), err != nil)
			return nil
		})
	}
	_ = g.Wait()
	reporter.Finish()

	failed := 0
	enc := json.NewEncoder(w)
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return failed, fmt.Errorf("writing batch output: %w", err)
		}
	}
	return failed, nil
}
