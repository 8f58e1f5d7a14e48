package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

// GradioTTS calls a gradio-hosted text-to-speech space through its
// predict endpoint
type GradioTTS struct {
	httpClient *http.Client
	url        string
	language   string
	speaker    string
}

func NewGradioTTS() *GradioTTS {
	return &GradioTTS{
		httpClient: &http.Client{Timeout: time.Second * 120},
		url:        viper.GetString("tts.url"),
		language:   viper.GetString("tts.language"),
		speaker:    viper.GetString("tts.speaker"),
	}
}

type gradioResponse struct {
	Data []json.RawMessage `json:"data"`
}

func (t *GradioTTS) Synthesize(ctx context.Context, text string) (string, error) {
	payload := map[string]any{
		"data": []any{text, t.language, t.speaker},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url+"/run/predict", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tts request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("tts request answered %d, %s", resp.StatusCode, body)
	}

	var res gradioResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("malformed tts response, %w", err)
	}

	if len(res.Data) == 0 {
		return "", nil
	}

	// The space answers either a plain path or a file object,
	// anything else counts as no audio
	var path string
	if err := json.Unmarshal(res.Data[0], &path); err == nil {
		return path, nil
	}

	var file struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(res.Data[0], &file); err == nil {
		return file.Name, nil
	}

	return "", nil
}
