package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const codeDigits = 6

// RedisVerifier issues codes itself and keeps them in Redis. Codes are only
// logged, so it suits local development and tests.
type RedisVerifier struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisVerifier constructs the local verifier.
func NewRedisVerifier(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisVerifier {
	return &RedisVerifier{client: client, ttl: ttl, logger: logger}
}

func codeKey(phone string) string {
	return "verify:code:" + phone
}

// SendCode stores a fresh code, replacing any earlier one.
func (v *RedisVerifier) SendCode(ctx context.Context, phone string) error {
	code, err := randomCode(codeDigits)
	if err != nil {
		return err
	}
	if err := v.client.Set(ctx, codeKey(phone), code, v.ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	v.logger.Debug("verification code issued",
		zap.String("phone", phone),
		zap.String("code", code),
		zap.Duration("ttl", v.ttl))
	return nil
}

// CheckCode compares and consumes the stored code.
func (v *RedisVerifier) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	stored, err := v.client.Get(ctx, codeKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read verification code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	if err := v.client.Del(ctx, codeKey(phone)).Err(); err != nil {
		v.logger.Warn("failed to delete verification code", zap.String("phone", phone), zap.Error(err))
	}
	return true, nil
}

func randomCode(digits int) (string, error) {
	buf := make([]byte, digits)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
