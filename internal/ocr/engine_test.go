package ocr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

type fakePage struct {
	n       int
	dpi     float64
	err     error
	renders int
}

func (p *fakePage) Number() int { return p.n }

func (p *fakePage) RenderPNG(dpi float64) ([]byte, error) {
	p.dpi = dpi
	p.renders++
	if p.err != nil {
		return nil, p.err
	}
	return []byte("png"), nil
}

type recognizerFunc func(ctx context.Context, png []byte) ([]Fragment, error)

func (f recognizerFunc) Recognize(ctx context.Context, png []byte) ([]Fragment, error) {
	return f(ctx, png)
}

func staticFactory(r Recognizer) RecognizerFactory {
	return func() (Recognizer, error) { return r, nil }
}

func TestRecognizeFiltersLowConfidence(t *testing.T) {
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		return []Fragment{
			{Text: "投标", Confidence: 0.9, Line: 0},
			{Text: "须知", Confidence: 0.8, Line: 0},
			{Text: "噪点", Confidence: 0.2, Line: 0},
			{Text: "Section", Confidence: 0.95, Line: 1},
			{Text: "A", Confidence: 0.5, Line: 1},
			{Text: "###", Confidence: 0.1, Line: 2},
		}, nil
	})
	e := NewEngineWithFactory(Config{MinConfidence: 0.5, Timeout: time.Second}, staticFactory(rec), nil)
	page := &fakePage{n: 3}

	res := e.RecognizePage(context.Background(), page)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "投标须知\nSection A", res.Text)
	assert.Equal(t, 144.0, page.dpi)
}

func TestRecognizeTimeoutReturnsMarker(t *testing.T) {
	cancelled := make(chan struct{})
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		<-ctx.Done()
		close(cancelled)
		return []Fragment{{Text: "too late", Confidence: 1}}, nil
	})
	e := NewEngineWithFactory(Config{Timeout: 50 * time.Millisecond}, staticFactory(rec), nil)

	start := time.Now()
	res := e.RecognizePage(context.Background(), &fakePage{n: 2})

	assert.Equal(t, StatusTimeout, res.Status)
	assert.Equal(t, "[第2页OCR识别超时，内容可能缺失]", res.Text)
	assert.Less(t, time.Since(start), 5*time.Second)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned worker was not cancelled")
	}
}

func TestRecognizeHungRecognizerDoesNotStarveLaterPages(t *testing.T) {
	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })

	var calls int32
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		if atomic.AddInt32(&calls, 1) <= 4 {
			<-hang // ignores ctx
		}
		return []Fragment{{Text: "恢复", Confidence: 1}}, nil
	})
	const timeout = 100 * time.Millisecond
	e := NewEngineWithFactory(Config{Timeout: timeout, MaxConcurrent: 2}, staticFactory(rec), nil)

	for n := 1; n <= 4; n++ {
		start := time.Now()
		res := e.RecognizePage(context.Background(), &fakePage{n: n})
		elapsed := time.Since(start)

		assert.Equal(t, StatusTimeout, res.Status, "page %d", n)
		assert.Equal(t, TimeoutMarker(n), res.Text)
		assert.Less(t, elapsed, timeout+time.Second, "page %d blocked past its deadline", n)
	}

	res := e.RecognizePage(context.Background(), &fakePage{n: 5})
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "恢复", res.Text)
}

func TestRecognizeCancelledWhileWaitingForSlot(t *testing.T) {
	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		<-hang
		return nil, nil
	})
	e := NewEngineWithFactory(Config{Timeout: time.Minute, MaxConcurrent: 1}, staticFactory(rec), nil)

	go e.RecognizePage(context.Background(), &fakePage{n: 1})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := e.RecognizePage(ctx, &fakePage{n: 2})
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailureMarker(2), res.Text)
}

func TestZeroMinConfidenceKeepsEveryFragment(t *testing.T) {
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		return []Fragment{{Text: "模糊", Confidence: 0.1}, {Text: "文字", Confidence: 0.9}}, nil
	})
	e := NewEngineWithFactory(Config{}, staticFactory(rec), nil)
	assert.Equal(t, "模糊文字", e.Recognize(context.Background(), &fakePage{n: 1}))
}

func TestRecognizeErrorsBecomeFailureMarker(t *testing.T) {
	boom := errors.New("boom")

	t.Run("recognizer error", func(t *testing.T) {
		rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) { return nil, boom })
		e := NewEngineWithFactory(Config{}, staticFactory(rec), nil)
		res := e.RecognizePage(context.Background(), &fakePage{n: 1})
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, FailureMarker(1), res.Text)
	})

	t.Run("render error", func(t *testing.T) {
		e := NewEngineWithFactory(Config{}, staticFactory(recognizerFunc(nil)), nil)
		res := e.RecognizePage(context.Background(), &fakePage{n: 4, err: boom})
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, "[第4页OCR识别失败，内容可能缺失]", res.Text)
	})

	t.Run("construction error is cached", func(t *testing.T) {
		var builds int32
		e := NewEngineWithFactory(Config{}, func() (Recognizer, error) {
			atomic.AddInt32(&builds, 1)
			return nil, boom
		}, nil)
		page := &fakePage{n: 5}
		assert.Equal(t, FailureMarker(5), e.Recognize(context.Background(), page))
		assert.Equal(t, FailureMarker(5), e.Recognize(context.Background(), page))
		assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
		assert.Zero(t, page.renders)
	})
}

func TestRecognizerBuiltOnceUnderConcurrency(t *testing.T) {
	var builds, inFlight, peak int32
	rec := recognizerFunc(func(ctx context.Context, png []byte) ([]Fragment, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return []Fragment{{Text: "ok", Confidence: 1}}, nil
	})
	e := NewEngineWithFactory(Config{MaxConcurrent: 2, Timeout: 5 * time.Second}, func() (Recognizer, error) {
		atomic.AddInt32(&builds, 1)
		return rec, nil
	}, nil)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.Equal(t, "ok", e.Recognize(context.Background(), &fakePage{n: n}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestIsFailureMarker(t *testing.T) {
	assert.True(t, IsFailureMarker("前文\n"+TimeoutMarker(12)))
	assert.True(t, IsFailureMarker(FailureMarker(1)))
	assert.False(t, IsFailureMarker("第1页OCR识别正常"))
}

func TestParseTSV(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t10\t10\t20\t20\t96.5\t招标\n" +
		"5\t1\t1\t1\t1\t2\t30\t10\t20\t20\t40\t公告\n" +
		"5\t1\t1\t1\t2\t1\t10\t40\t20\t20\t88\tGB50300\n" +
		"5\t1\t1\t1\t2\t2\t10\t40\t20\t20\t70\t \n"

	frags, err := parseTSV([]byte(tsv))
	require.NoError(t, err)
	require.Len(t, frags, 3)
	assert.Equal(t, Fragment{Text: "招标", Confidence: 0.965, Line: 0}, frags[0])
	assert.Equal(t, 0, frags[1].Line)
	assert.InDelta(t, 0.4, frags[1].Confidence, 1e-9)
	assert.Equal(t, 1, frags[2].Line)
}

type fakeRunner struct {
	name string
	args []string
	out  []byte
	err  error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.name, r.args = name, args
	return r.out, []byte("stderr"), r.err
}

func TestTesseractRecognizeUsesRunner(t *testing.T) {
	r := &fakeRunner{out: []byte("level\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t91\t合同\n")}
	tess, err := NewTesseract(TesseractConfig{PSM: 6, TessdataDir: "/td"}, r, nil)
	require.NoError(t, err)

	frags, err := tess.Recognize(context.Background(), []byte("png"))
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "合同", frags[0].Text)

	assert.Equal(t, "tesseract", r.name)
	assert.Equal(t, []string{"stdout", "-l", "chi_sim+eng", "--psm", "6", "--tessdata-dir", "/td", "tsv"}, r.args[1:])

	r.err = errors.New("exit 1")
	_, err = tess.Recognize(context.Background(), []byte("png"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	in := "第一章\t总则\r\n-----\n\n\n\n正文  内容   \n"
	assert.Equal(t, "第一章 总则\n\n正文 内容", Normalize(in))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(common.DefaultConfig().OCR)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, int64(2), cfg.MaxConcurrent)
	assert.Equal(t, "chi_sim+eng", cfg.Tesseract.Lang)
	assert.Equal(t, "tesseract", cfg.Tesseract.Binary)
}
