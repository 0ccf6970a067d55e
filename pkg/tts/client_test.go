package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"aichat-go/internal/config"
)

type fakeSovits struct {
	mu          sync.Mutex
	switches    []string
	inputs      []inferenceInput
	gptLoaded   string
	failWeights string
}

func (f *fakeSovits) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/set_gpt_weights", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.switches = append(f.switches, "gpt:"+r.URL.Query().Get("weights_path"))
		f.gptLoaded = r.URL.Query().Get("weights_path")
		f.mu.Unlock()
		_, _ = w.Write([]byte(`"success"`))
	})
	mux.HandleFunc("/set_sovits_weights", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.switches = append(f.switches, "sovits:"+r.URL.Query().Get("weights_path"))
		fail := r.URL.Query().Get("weights_path") == f.failWeights
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"load failed"}`))
			return
		}
		_, _ = w.Write([]byte(`"success"`))
	})
	mux.HandleFunc("/tts", func(w http.ResponseWriter, r *http.Request) {
		var in inferenceInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode tts input: %v", err)
		}
		f.mu.Lock()
		f.inputs = append(f.inputs, in)
		f.mu.Unlock()
		if in.Text == "fail" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"tts failed"}`))
			return
		}
		_, _ = w.Write([]byte("RIFF....WAVE"))
	})
	return mux
}

func (f *fakeSovits) loadedGPT() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gptLoaded
}

func newTestTTS(t *testing.T) (Client, *fakeSovits) {
	t.Helper()
	fake := &fakeSovits{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(config.TTSConfig{
		ServerURL: srv.URL,
		Timeout:   time.Second,
		Voices: []config.VoiceConfig{
			{Name: "hutao", GPTWeights: "hu.ckpt", SoVITSWeights: "hu.pth", RefAudioPath: "hu.wav"},
			{Name: "furina", GPTWeights: "fu.ckpt", SoVITSWeights: "fu.pth", RefAudioPath: "fu.wav", PromptText: "参考文本"},
		},
	})
	return c, fake
}

func TestSynthesizeSwitchesVoiceOnce(t *testing.T) {
	c, fake := newTestTTS(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := c.Synthesize(ctx, Request{Text: "你好", Seed: 7})
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if res.Voice != "hutao" || res.Seed != 7 || string(res.Audio) != "RIFF....WAVE" {
			t.Fatalf("result = %+v", res)
		}
	}
	if len(fake.switches) != 2 {
		t.Fatalf("switches = %v, want one gpt + one sovits switch", fake.switches)
	}

	if _, err := c.Synthesize(ctx, Request{Text: "你好", Voice: "furina", Seed: 1}); err != nil {
		t.Fatalf("Synthesize furina: %v", err)
	}
	if len(fake.switches) != 4 || fake.switches[2] != "gpt:fu.ckpt" || fake.switches[3] != "sovits:fu.pth" {
		t.Fatalf("switches = %v", fake.switches)
	}

	last := fake.inputs[len(fake.inputs)-1]
	if last.TextLang != "all_zh" || last.TextSplitMethod != "cut1" || last.RefAudioPath != "fu.wav" || last.PromptText != "参考文本" {
		t.Fatalf("inference input = %+v", last)
	}
	if last.RepetitionPenalty != 1.35 || last.SampleSteps != 32 || last.ReturnFragment {
		t.Fatalf("inference params = %+v", last)
	}
}

func TestSynthesizeReloadsAfterPartialSwitch(t *testing.T) {
	c, fake := newTestTTS(t)
	ctx := context.Background()

	if _, err := c.Synthesize(ctx, Request{Text: "你好", Voice: "hutao", Seed: 1}); err != nil {
		t.Fatalf("Synthesize hutao: %v", err)
	}

	// GPT 权重已换成 furina，SoVITS 权重加载失败
	fake.mu.Lock()
	fake.failWeights = "fu.pth"
	fake.mu.Unlock()
	if _, err := c.Synthesize(ctx, Request{Text: "你好", Voice: "furina", Seed: 1}); err == nil {
		t.Fatal("expected error when sovits weights fail to load")
	}
	if got := fake.loadedGPT(); got != "fu.ckpt" {
		t.Fatalf("gpt loaded = %q", got)
	}

	if _, err := c.Synthesize(ctx, Request{Text: "你好", Voice: "hutao", Seed: 1}); err != nil {
		t.Fatalf("Synthesize hutao again: %v", err)
	}
	if got := fake.loadedGPT(); got != "hu.ckpt" {
		t.Fatalf("hutao synthesized with gpt weights %q", got)
	}
}

func TestSynthesizeRandomSeed(t *testing.T) {
	c, fake := newTestTTS(t)
	res, err := c.Synthesize(context.Background(), Request{Text: "你好", Seed: -1})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Seed < 0 || fake.inputs[0].Seed != res.Seed {
		t.Fatalf("seed = %d, sent = %d", res.Seed, fake.inputs[0].Seed)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	c, _ := newTestTTS(t)
	if _, err := c.Synthesize(context.Background(), Request{Text: "x", Voice: "nobody"}); !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("err = %v, want ErrUnknownVoice", err)
	}
	if _, err := c.Synthesize(context.Background(), Request{Text: "fail"}); err == nil {
		t.Fatal("expected error on non-200 tts response")
	}
}

func TestVoicesKeepsConfigOrder(t *testing.T) {
	c, _ := newTestTTS(t)
	got := c.Voices()
	if len(got) != 2 || got[0] != "hutao" || got[1] != "furina" {
		t.Fatalf("voices = %v", got)
	}
}
