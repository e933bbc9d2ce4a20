package user

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testService() *Service {
	return NewService(nil, "test-secret", 24*time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testService()
	u := &User{ID: 7, Email: "b@kampus.ac.id", IsAdmin: true}

	token, err := svc.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken() error: %v", err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "b@kampus.ac.id" || !claims.IsAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("claims.ID (jti) is empty")
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	svc := testService()
	u := &User{ID: 1, Email: "a@kampus.ac.id"}

	expired := testService()
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expiredToken, _ := expired.issueToken(u)

	otherSecret := NewService(nil, "other-secret", 24*time.Hour)
	foreignToken, _ := otherSecret.issueToken(u)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"expired", expiredToken},
		{"wrong secret", foreignToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.VerifyToken(tt.token); err != ErrInvalidToken {
				t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcryptCost)
	u := &User{password: string(hash)}

	if !u.CheckPassword("rahasia123") {
		t.Error("CheckPassword() rejected the correct password")
	}
	if u.CheckPassword("salah") {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
