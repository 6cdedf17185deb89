package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"breakfast-order-service/internal/order"
)

const testSecret = "test-secret"

func TestVerifyAccessToken(t *testing.T) {
	staff, err := IssueToken(testSecret, RoleStaff, "desk-1", "Amy", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := IssueToken(testSecret, RoleKiosk, "kiosk-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	unknown, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{name: "valid", token: staff, secret: testSecret},
		{name: "empty", token: "", secret: testSecret, wantErr: true},
		{name: "wrong secret", token: staff, secret: "other", wantErr: true},
		{name: "expired", token: expired, secret: testSecret, wantErr: true},
		{name: "unknown role", token: unknown, secret: testSecret, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := VerifyAccessToken(tc.token, tc.secret)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if claims.Subject != "desk-1" || claims.Role != RoleStaff {
				t.Fatalf("unexpected claims: %+v", claims)
			}
		})
	}
}

func TestClaimsActor(t *testing.T) {
	staff := (&Claims{Role: RoleStaff, Name: " Amy "}).Actor()
	if staff != order.Staff("Amy") {
		t.Fatalf("staff actor = %+v", staff)
	}
	if got := (&Claims{Role: RoleKiosk, Name: "lobby"}).Actor(); got.IsStaff() {
		t.Fatalf("kiosk mapped to staff")
	}
	var nilClaims *Claims
	if nilClaims.Actor().IsStaff() {
		t.Fatalf("nil claims mapped to staff")
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "",
		"Token abc":   "",
		"":            "",
	}
	for header, want := range cases {
		if got := ParseBearerToken(header); got != want {
			t.Fatalf("ParseBearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestStaffOnly(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   bool
	}{
		{method: "DELETE", path: "/api/dates/2026-03-11/rooms/101/sets/default-0", want: true},
		{method: "POST", path: "/api/dates/2026-03-11/rooms/101/sets", want: false},
		{method: "POST", path: "/api/dates/2026-03-11/rooms/101/breakfast", want: true},
		{method: "GET", path: "/api/availability", want: false},
		{method: "put", path: "/api/availability", want: true},
		{method: "GET", path: "/api/dates/2026-03-11/report.pdf", want: true},
		{method: "POST", path: "/api/dates/2026-03-11/report/archive", want: true},
		{method: "GET", path: "/api/dates/2026-03-11", want: false},
		{method: "POST", path: "/api/dates/2026-03-11/rooms/101/submit", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			if got := StaffOnly(tc.method, tc.path); got != tc.want {
				t.Fatalf("StaffOnly = %v, want %v", got, tc.want)
			}
		})
	}
}
