package app

import (
	"strings"
	"time"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/platform/objstore"
	"github.com/yungbote/lessonforge-backend/internal/utils"
)

type Config struct {
	Port             string
	StorageMode      objstore.Mode
	Bucket           string
	EmulatorHost     string
	KeyPrefix        string
	SectionsFile     string
	DebounceDelay    time.Duration
	ResultTTL        time.Duration
	RedisAddr        string
	RedisChannel     string
	CORSOrigins      []string
	AuthSharedSecret string
	ProtectedLessons []string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	storageMode := utils.GetEnv("OBJECT_STORAGE_MODE", string(objstore.ModeGCS), log)
	bucket := utils.GetEnv("LESSON_GCS_BUCKET_NAME", "", log)
	emulatorHost := utils.GetEnv("STORAGE_EMULATOR_HOST", "", log)
	keyPrefix := utils.GetEnv("LESSON_KEY_PREFIX", "client_data", log)
	sectionsFile := utils.GetEnv("LESSON_SECTIONS_FILE", "", log)
	debounceMS := utils.GetEnvAsInt("MUTATION_DEBOUNCE_MS", 1000, log)
	resultTTLSeconds := utils.GetEnvAsInt("MUTATION_RESULT_TTL", 60, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	redisChannel := utils.GetEnv("REDIS_CHANNEL", "lesson-events", log)
	corsOrigins := utils.GetEnv("CORS_ORIGINS", "", log)
	authSecret := utils.GetEnv("AUTH_SHARED_SECRET", "", log)
	protectedLessons := utils.GetEnv("PROTECTED_LESSON_IDS", "", log)

	return Config{
		Port:             port,
		StorageMode:      objstore.Mode(storageMode),
		Bucket:           bucket,
		EmulatorHost:     emulatorHost,
		KeyPrefix:        keyPrefix,
		SectionsFile:     sectionsFile,
		DebounceDelay:    time.Duration(debounceMS) * time.Millisecond,
		ResultTTL:        time.Duration(resultTTLSeconds) * time.Second,
		RedisAddr:        redisAddr,
		RedisChannel:     redisChannel,
		CORSOrigins:      splitList(corsOrigins),
		AuthSharedSecret: authSecret,
		ProtectedLessons: splitList(protectedLessons),
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			values = append(values, value)
		}
	}
	return values
}
