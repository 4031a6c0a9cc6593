package auth

import (
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"lowercase bearer", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing token", "Bearer ", "", true},
		{"no scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	a, err := NewJWTAuth("test-secret", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuth: %v", err)
	}

	access, refresh, err := a.GenerateTokens("user-1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	user, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if user.ID != "user-1" || user.Email != "user@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	claims, err := a.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("refresh claims UserID = %q, want user-1", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Error("refresh token missing token ID")
	}

	// Access tokens must not pass as refresh tokens
	if _, err := a.VerifyRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	a, err := NewJWTAuth("test-secret", -1*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuth: %v", err)
	}

	access, _, err := a.GenerateTokens("user-1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a.VerifyAccessToken(access); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	a1, _ := NewJWTAuth("secret-one", 0, 0)
	a2, _ := NewJWTAuth("secret-two", 0, 0)

	access, _, err := a1.GenerateTokens("user-1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a2.VerifyAccessToken(access); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword(hash, "Sup3rSecret")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword(hash, "wrong-password")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}

	if _, err := VerifyPassword("not-a-hash", "anything"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Sup3rSecret", false},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoNumbersHere", true},
	}

	for _, tt := range tests {
		if err := ValidatePassword(tt.password); (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
