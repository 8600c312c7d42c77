package jwt

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	token, err := GenerateToken(42, "editor@example.com", "editor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "editor@example.com" || claims.Role != "editor" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestInitChangesSigningSecret(t *testing.T) {
	Init("first-secret")
	token, err := GenerateToken(1, "a@example.com", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Init("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed under the old secret must not validate")
	}
}

func TestInitIgnoresEmptySecret(t *testing.T) {
	Init("keep-me")
	Init("")

	token, err := GenerateToken(1, "a@example.com", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token); err != nil {
		t.Errorf("empty Init must leave the secret unchanged: %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	Init("test-secret")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token must not validate")
	}
}
