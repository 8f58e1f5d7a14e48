package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/99-kofi/Obala-Twi-API/model"
	"github.com/99-kofi/Obala-Twi-API/upstream"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usedCount(t *testing.T, a *API, apiKey string) int {
	t.Helper()

	var u model.User
	require.NoError(t, a.DB.First(&u, "api_key = ?", apiKey).Error)

	return u.RequestsUsed
}

func TestChat(t *testing.T) {
	a := newTestAPI(t)

	key := signupUser(t, a, "a@x.com", "password123")

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "Ɛte sɛn!", res["response"])
	assert.Equal(t, "/tmp/audio.wav", res["audio"])

	usage := res["usage"].(map[string]any)
	assert.Equal(t, float64(1), usage["used"])
	assert.Equal(t, float64(200), usage["limit"])
	assert.Equal(t, "free", usage["plan"])

	rr, res = doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello again"}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), res["usage"].(map[string]any)["used"])
}

func TestChatMissingKey(t *testing.T) {
	a := newTestAPI(t)

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "API key required", res["error"])
}

func TestChatInvalidKey(t *testing.T) {
	a := newTestAPI(t)

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": "bogus"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Invalid API key", res["error"])
}

func TestChatExpiredKey(t *testing.T) {
	a := newTestAPI(t)

	// Expired and exhausted at once, expiry must win
	require.NoError(t, a.DB.Create(&model.User{
		ID:           "expired-user",
		Email:        "expired@x.com",
		PasswordHash: "x",
		APIKey:       "expired-key",
		Plan:         model.PlanFree,
		RequestsUsed: 200,
		RequestLimit: 200,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}).Error)

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": "expired-key"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "API key expired", res["error"])
}

func TestChatLimitReached(t *testing.T) {
	a := newTestAPI(t)

	require.NoError(t, a.DB.Create(&model.User{
		ID:           "drained-user",
		Email:        "drained@x.com",
		PasswordHash: "x",
		APIKey:       "drained-key",
		Plan:         model.PlanFree,
		RequestsUsed: 200,
		RequestLimit: 200,
		ExpiresAt:    time.Now().Add(time.Hour),
	}).Error)

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": "drained-key"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Usage limit reached. Upgrade plan.", res["error"])
	assert.Equal(t, 200, usedCount(t, a, "drained-key"))
}

func TestChatEmptyPrompt(t *testing.T) {
	a := newTestAPI(t)

	key := signupUser(t, a, "a@x.com", "password123")

	for _, prompt := range []string{"", "   "} {
		rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": prompt}, map[string]string{"X-API-Key": key})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Prompt required", res["error"])
	}

	// Rejected requests never charge
	assert.Equal(t, 0, usedCount(t, a, key))
}

func TestChatAuthIsIdempotent(t *testing.T) {
	a := newTestAPI(t)

	key := signupUser(t, a, "a@x.com", "password123")

	// Requests that fail validation pass through authentication and
	// the quota pre-check without moving the counter
	for range 3 {
		rr, _ := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": ""}, map[string]string{"X-API-Key": key})
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	assert.Equal(t, 0, usedCount(t, a, key))
}

func TestChatGenerationFailSoft(t *testing.T) {
	a := newTestAPI(t)
	a.Generator = &stubGenerator{err: errors.New("upstream down")}

	key := signupUser(t, a, "a@x.com", "password123")

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, upstream.FallbackReply, res["response"])

	// The fallback reply still counts as a served request
	assert.Equal(t, 1, usedCount(t, a, key))
}

func TestChatSpeechFailSoft(t *testing.T) {
	a := newTestAPI(t)
	a.Speech = &stubSpeech{err: errors.New("tts down")}

	key := signupUser(t, a, "a@x.com", "password123")

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "Ɛte sɛn!", res["response"])
	assert.Nil(t, res["audio"])
	assert.Equal(t, 1, usedCount(t, a, key))
}

func TestChatNoAudioPath(t *testing.T) {
	a := newTestAPI(t)
	a.Speech = &stubSpeech{path: ""}

	key := signupUser(t, a, "a@x.com", "password123")

	rr, res := doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, res["audio"])
}

func TestSignupLoginChatEndToEnd(t *testing.T) {
	a := newTestAPI(t)

	viper.Set("quota.free_limit", 5)
	defer viper.Set("quota.free_limit", 200)

	key := signupUser(t, a, "a@x.com", "password123")

	rr, res := doJSON(t, a, "POST", "/login", gin.H{
		"email":    "a@x.com",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, key, res["api_key"])

	for i := 1; i <= 5; i++ {
		rr, res = doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(i), res["usage"].(map[string]any)["used"])
	}

	rr, _ = doJSON(t, a, "POST", "/obala_chat", gin.H{"prompt": "hello"}, map[string]string{"X-API-Key": key})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 5, usedCount(t, a, key))
}
