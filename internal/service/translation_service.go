package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"studyshare_backend/internal/config"
	"studyshare_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TranslationService 界面文案翻译，结果缓存在 Redis。
// 缓存是注入的依赖而非包级全局，多实例共享同一份缓存。
type TranslationService struct {
	cfg    config.TranslateConfig
	redis  *redis.Client
	client *http.Client
}

func NewTranslationService(cfg config.TranslateConfig, rdb *redis.Client) *TranslationService {
	return &TranslationService{
		cfg:    cfg,
		redis:  rdb,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

func translateCacheKey(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translate:%s:%s:%s", sourceLang, targetLang, hex.EncodeToString(sum[:16]))
}

// Translate 优先命中缓存；外部翻译服务不可用时原样返回文本，不中断调用方
func (s *TranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error) {
	if text == "" || sourceLang == targetLang {
		return text, false, nil
	}

	key := translateCacheKey(text, sourceLang, targetLang)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			return cached, true, nil
		}
	}

	translated, err := s.callUpstream(ctx, text, sourceLang, targetLang)
	if err != nil {
		logger.Log.Warn("翻译服务调用失败", zap.Error(err))
		return text, false, nil
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, translated, s.cfg.CacheTTL).Err(); err != nil {
			logger.Log.Warn("翻译缓存写入失败", zap.Error(err))
		}
	}
	return translated, false, nil
}

func (s *TranslationService) callUpstream(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if s.cfg.Endpoint == "" {
		return "", fmt.Errorf("translate endpoint not configured")
	}

	body, err := json.Marshal(translateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate upstream status %d", resp.StatusCode)
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}
	return result.TranslatedText, nil
}
