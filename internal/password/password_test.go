package password

import "testing"

func TestHashAndMatches(t *testing.T) {
	hash, err := Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("hash equals the plaintext")
	}

	if !Matches("s3cret", hash) {
		t.Fatalf("expected plaintext to match its own hash")
	}
	if Matches("wrong", hash) {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestMatches_MalformedHash(t *testing.T) {
	if Matches("anything", "not-a-bcrypt-hash") {
		t.Fatalf("expected mismatch for malformed hash")
	}
}

func TestHash_Salted(t *testing.T) {
	a, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical; salt missing")
	}
}
