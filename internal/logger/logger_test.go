package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		env     string
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "development default", env: "development", enabled: zapcore.DebugLevel},
		{name: "production default", env: "production", enabled: zapcore.InfoLevel},
		{name: "override", env: "production", level: "warn", enabled: zapcore.WarnLevel},
		{name: "bad level", env: "production", level: "loud", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.env, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !log.Core().Enabled(tc.enabled) {
				t.Fatalf("level %s not enabled", tc.enabled)
			}
			if tc.enabled > zapcore.DebugLevel && log.Core().Enabled(tc.enabled-1) {
				t.Fatalf("level below %s enabled", tc.enabled)
			}
		})
	}
}
