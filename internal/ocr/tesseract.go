package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Fragment is one recognized word.
type Fragment struct {
	Text       string
	Confidence float64 // 0..1
	Line       int     // reading-order index of the text line holding the word
}

// Recognizer turns a PNG image into text fragments. Implementations must be
// safe for concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) ([]Fragment, error)
}

type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "chi_sim+eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// Tesseract wraps the tesseract CLI. Each call spawns its own process and
// shares no mutable state, so one instance serves concurrent pages.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

// NewTesseract builds a recognizer. With a nil runner the binary is looked up
// on PATH and commands are executed for real.
func NewTesseract(cfg TesseractConfig, runner Runner, logger *slog.Logger) (*Tesseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "chi_sim+eng"
	}
	if runner == nil {
		if _, err := exec.LookPath(cfg.Binary); err != nil {
			return nil, fmt.Errorf("tesseract not available: %w", err)
		}
		runner = ExecRunner{Logger: logger}
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, png []byte) ([]Fragment, error) {
	f, err := os.CreateTemp("", "biddocs-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(png); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D] tsv
	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.args(f.Name())...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w: %s", err, truncate(string(errb), 512))
	}
	return parseTSV(out)
}

func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return append(args, "tsv")
}

// tsv columns: level page_num block_num par_num line_num word_num left top width height conf text
const (
	tsvLevel = 0
	tsvPage  = 1
	tsvBlock = 2
	tsvPar   = 3
	tsvLine  = 4
	tsvConf  = 10
	tsvText  = 11
	tsvCols  = 12

	wordLevel = "5"
)

func parseTSV(out []byte) ([]Fragment, error) {
	var frags []Fragment
	line := -1
	lastKey := ""

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 64<<10), 4<<20)
	first := true
	for sc.Scan() {
		if first { // header
			first = false
			continue
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < tsvCols || cols[tsvLevel] != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[tsvText])
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[tsvConf], 64)
		if err != nil || conf < 0 {
			continue
		}
		key := strings.Join(cols[tsvPage:tsvLine+1], "/")
		if key != lastKey {
			line++
			lastKey = key
		}
		frags = append(frags, Fragment{Text: text, Confidence: conf / 100, Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tesseract output: %w", err)
	}
	return frags, nil
}
