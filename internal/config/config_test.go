package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TIMEZONE", "ORDER_CUTOFF", "TODAY_OPEN_HOUR", "BOOKING_HORIZON_DAYS", "OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT", "R2_ACCOUNT_ID"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if policy.Location.String() != "Asia/Taipei" {
		t.Fatalf("location = %s", policy.Location)
	}
	if policy.CutoffMinutes != 23*60+15 || policy.TodayOpenHour != 12 || policy.HorizonDays != 7 {
		t.Fatalf("unexpected policy: %+v", policy)
	}
	if cfg.ObjectStoreEnabled() {
		t.Fatalf("object store enabled without endpoint")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ORDER_CUTOFF", "22:30")
	t.Setenv("TODAY_OPEN_HOUR", "99")
	t.Setenv("BOOKING_HORIZON_DAYS", "3")
	t.Setenv("JWT_EXPIRY", "60")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_S3_ENDPOINT", "")

	cfg := Load()
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if policy.CutoffMinutes != 22*60+30 {
		t.Fatalf("cutoff = %d", policy.CutoffMinutes)
	}
	if policy.TodayOpenHour != 12 {
		t.Fatalf("out of range open hour not reset: %d", policy.TodayOpenHour)
	}
	if policy.HorizonDays != 3 {
		t.Fatalf("horizon = %d", policy.HorizonDays)
	}
	if cfg.JWTExpiry() != time.Minute {
		t.Fatalf("jwt expiry = %s", cfg.JWTExpiry())
	}
	if len(cfg.CorsAllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CorsAllowedOrigins)
	}
	if cfg.ObjectStoreEndpoint != "https://acct.r2.cloudflarestorage.com" {
		t.Fatalf("endpoint = %q", cfg.ObjectStoreEndpoint)
	}
}

func TestPolicyErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "bad timezone", cfg: Config{Timezone: "Mars/Olympus", OrderCutoff: "23:15"}},
		{name: "bad cutoff", cfg: Config{Timezone: "UTC", OrderCutoff: "late"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.cfg.Policy(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
