package gateway

import "github.com/yungbote/lessonforge-backend/internal/store"

// Argument maps arrive straight from JSON tool calls, so values are the
// loose encoding/json shapes (string, bool, float64, []any, map[string]any).

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func optString(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func optBool(args map[string]any, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

func argItems(args map[string]any, key string) []any {
	if v, ok := args[key].([]any); ok {
		return v
	}
	return nil
}

func optExerciseConfig(args map[string]any, key string) store.ExerciseConfig {
	raw, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	cfg := store.ExerciseConfig{}
	for name, v := range raw {
		switch n := v.(type) {
		case float64:
			cfg[name] = int(n)
		case int:
			cfg[name] = n
		}
	}
	return cfg
}
