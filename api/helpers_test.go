package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/99-kofi/Obala-Twi-API/middleware"
	"github.com/99-kofi/Obala-Twi-API/model"
	"github.com/99-kofi/Obala-Twi-API/quota"
	"github.com/99-kofi/Obala-Twi-API/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Reply(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

type stubSpeech struct {
	path string
	err  error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text string) (string, error) {
	return s.path, s.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.User{}))

	return db
}

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("quota.free_limit", 200)
	viper.Set("quota.key_ttl_days", 30)

	db := newTestDB(t)

	a := &API{
		DB:        db,
		Argon:     security.New(),
		Quota:     quota.NewEnforcer(db),
		Generator: &stubGenerator{reply: "Ɛte sɛn!"},
		Speech:    &stubSpeech{path: "/tmp/audio.wav"},
	}

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware())
	r.GET("/", a.Index)
	r.POST("/signup", a.Signup)
	r.POST("/login", a.Login)
	r.POST("/obala_chat", middleware.NewAPIKeyMiddleware(db), a.ObalaChat)
	a.Router = r

	return a
}

func doJSON(t *testing.T, a *API, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)

	var res map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	}

	return rr, res
}

func signupUser(t *testing.T, a *API, email, password string) string {
	t.Helper()

	rr, res := doJSON(t, a, "POST", "/signup", gin.H{
		"full_name": "Test Developer",
		"email":     email,
		"password":  password,
	}, nil)
	require.Equal(t, 201, rr.Code)

	key, ok := res["api_key"].(string)
	require.True(t, ok)

	return key
}
