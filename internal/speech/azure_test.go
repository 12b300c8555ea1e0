package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/i474232898/audible-weather/internal/common"
)

type recordingPlayer struct {
	played [][]byte
	err    error
}

func (p *recordingPlayer) Play(ctx context.Context, audio []byte) error {
	p.played = append(p.played, audio)
	return p.err
}

func newTestSpeech(t *testing.T, handler http.HandlerFunc, player Player) *AzureSpeech {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAzureSpeech(srv.Client(), Config{Key: "speech-key", Endpoint: srv.URL}, player)
}

func TestSynthesizeToStreamSendsSSML(t *testing.T) {
	var body string
	s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "speech-key" {
			t.Errorf("unexpected key header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/ssml+xml" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get("X-Microsoft-OutputFormat"); got != DefaultOutputFormat {
			t.Errorf("unexpected output format %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = w.Write([]byte("RIFF-audio"))
	}, nil)

	var out bytes.Buffer
	if err := s.SynthesizeToStream(context.Background(), "Rain & wind <tonight>", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "RIFF-audio" {
		t.Fatalf("unexpected audio %q", out.String())
	}

	want := "<speak version='1.0' xml:lang='en-US'><voice name='en-US-AvaNeural'>Rain &amp; wind &lt;tonight&gt;</voice></speak>"
	if body != want {
		t.Fatalf("unexpected ssml:\n got: %s\nwant: %s", body, want)
	}
}

func TestSynthesizeToStreamWritesNothingOnFailure(t *testing.T) {
	s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	var out bytes.Buffer
	err := s.SynthesizeToStream(context.Background(), "hello", &out)
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no audio written, got %d bytes", out.Len())
	}
}

func TestSynthesizeRequiresKey(t *testing.T) {
	s := NewAzureSpeech(http.DefaultClient, Config{Region: "eastus"}, nil)
	if err := s.SynthesizeToStream(context.Background(), "hello", io.Discard); err == nil {
		t.Fatalf("expected error without key")
	}
	if s.endpoint != "https://eastus.tts.speech.microsoft.com/cognitiveservices/v1" {
		t.Fatalf("unexpected endpoint %q", s.endpoint)
	}
}

func TestSpeakOnDefaultDevice(t *testing.T) {
	player := &recordingPlayer{}
	s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pcm"))
	}, player)

	if err := s.SpeakOnDefaultDevice(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(player.played) != 1 || string(player.played[0]) != "pcm" {
		t.Fatalf("unexpected playback: %q", player.played)
	}
}

func TestSpeakOnDefaultDeviceErrors(t *testing.T) {
	t.Run("no player", func(t *testing.T) {
		s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("synthesis must not run without a player")
		}, nil)
		if err := s.SpeakOnDefaultDevice(context.Background(), "hello"); err == nil {
			t.Fatalf("expected error without player")
		}
	})

	t.Run("player failure", func(t *testing.T) {
		playErr := errors.New("device busy")
		s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pcm"))
		}, &recordingPlayer{err: playErr})
		if err := s.SpeakOnDefaultDevice(context.Background(), "hello"); !errors.Is(err, playErr) {
			t.Fatalf("expected %v, got %v", playErr, err)
		}
	})

	t.Run("synthesis failure skips playback", func(t *testing.T) {
		player := &recordingPlayer{}
		s := newTestSpeech(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, player)
		if err := s.SpeakOnDefaultDevice(context.Background(), "hello"); err == nil {
			t.Fatalf("expected error")
		}
		if len(player.played) != 0 {
			t.Fatalf("player must not run after failed synthesis")
		}
	})
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"riff-24khz-16bit-mono-pcm":       "audio/wav",
		"audio-24khz-48kbitrate-mono-mp3": "audio/mpeg",
		"ogg-24khz-16bit-mono-opus":       "audio/ogg",
		"webm-24khz-16bit-mono-opus":      "audio/webm",
		"raw-24khz-16bit-mono-pcm":        "application/octet-stream",
	}
	for format, want := range tests {
		if got := ContentType(format); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestVoiceLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US-AvaNeural":   "en-US",
		"de-DE-KatjaNeural": "de-DE",
		"custom":            "en-US",
	}
	for voice, want := range tests {
		if got := voiceLanguage(voice); got != want {
			t.Errorf("voiceLanguage(%q) = %q, want %q", voice, got, want)
		}
	}
}

func TestNewAzureSpeechDefaults(t *testing.T) {
	s := NewAzureSpeech(http.DefaultClient, Config{Key: "k", Region: "westeurope"}, nil)
	if s.cfg.Voice != DefaultVoice || s.cfg.OutputFormat != DefaultOutputFormat {
		t.Fatalf("unexpected defaults: %+v", s.cfg)
	}
	if !strings.HasPrefix(s.ContentType(), "audio/") {
		t.Fatalf("unexpected content type %q", s.ContentType())
	}
}
