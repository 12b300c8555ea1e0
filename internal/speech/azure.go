// Package speech talks to the Azure Speech text-to-speech REST API and plays
// the synthesized audio on the local output device.
package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/audible-weather/internal/common"
)

const (
	DefaultVoice        = "en-US-AvaNeural"
	DefaultOutputFormat = "riff-24khz-16bit-mono-pcm"

	userAgent = "audible-weather"
)

// Player plays an encoded audio clip and returns once playback has finished.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Config holds the Azure Speech settings.
type Config struct {
	Key    string
	Region string
	// Endpoint overrides the regional endpoint derived from Region.
	Endpoint     string
	Voice        string
	OutputFormat string
}

// AzureSpeech synthesizes text through Azure Speech.
type AzureSpeech struct {
	cfg      Config
	endpoint string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	player   Player
}

// NewAzureSpeech creates a client. player may be nil when only stream
// synthesis is used.
func NewAzureSpeech(client *http.Client, cfg Config, player Player) *AzureSpeech {
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	return &AzureSpeech{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		circuit:  common.NewCircuitBreaker("azurespeech"),
		player:   player,
	}
}

// ContentType returns the MIME type of the audio produced by the configured
// output format.
func (s *AzureSpeech) ContentType() string {
	return ContentType(s.cfg.OutputFormat)
}

// ContentType maps an Azure output format name onto a MIME type.
func ContentType(format string) string {
	switch {
	case common.HasAny(format, "riff", "wav"):
		return "audio/wav"
	case common.HasAny(format, "mp3"):
		return "audio/mpeg"
	case common.HasAny(format, "webm"):
		return "audio/webm"
	case common.HasAny(format, "ogg", "opus"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

// SynthesizeToStream synthesizes text and writes the audio to w. Nothing is
// written unless synthesis succeeds completely.
func (s *AzureSpeech) SynthesizeToStream(ctx context.Context, text string, w io.Writer) error {
	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return err
	}
	if _, err := w.Write(audio); err != nil {
		return fmt.Errorf("write synthesized audio: %w", err)
	}
	return nil
}

// SpeakOnDefaultDevice synthesizes text and blocks until the player has
// finished playing it.
func (s *AzureSpeech) SpeakOnDefaultDevice(ctx context.Context, text string) error {
	if s.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, audio)
}

func (s *AzureSpeech) synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.cfg.Key == "" {
		return nil, fmt.Errorf("azure speech key is not configured")
	}

	body, err := s.ssml(text)
	if err != nil {
		return nil, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", s.cfg.Key)
		req.Header.Set("Content-Type", "application/ssml+xml")
		req.Header.Set("X-Microsoft-OutputFormat", s.cfg.OutputFormat)
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	}

	resp, err := common.DoRequest(ctx, s.client, s.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("azure speech synthesize: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure speech read audio: %w", err)
	}
	return audio, nil
}

// ssml wraps text in a single-voice SSML document.
func (s *AzureSpeech) ssml(text string) ([]byte, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return nil, fmt.Errorf("escape ssml text: %w", err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<speak version='1.0' xml:lang='%s'>", voiceLanguage(s.cfg.Voice))
	fmt.Fprintf(&b, "<voice name='%s'>", s.cfg.Voice)
	b.Write(escaped.Bytes())
	b.WriteString("</voice></speak>")
	return b.Bytes(), nil
}

// voiceLanguage extracts the locale prefix of a voice name, e.g.
// "en-US-AvaNeural" -> "en-US".
func voiceLanguage(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
