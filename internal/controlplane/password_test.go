package controlplane

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !checkPassword(hash, "correct-horse-battery-staple") {
		t.Error("checkPassword rejected the password it was hashed from")
	}
	if checkPassword(hash, "wrong-password") {
		t.Error("checkPassword accepted the wrong password")
	}
}
