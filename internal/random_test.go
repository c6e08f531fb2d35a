package internal

import "testing"

func TestNewSessionTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		tok, err := NewSessionToken()
		if err != nil {
			t.Fatalf("NewSessionToken: %v", err)
		}
		if !ValidSessionToken(tok) {
			t.Fatalf("token %q failed shape check", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestValidSessionTokenRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!", "aGVsbG8="} {
		if ValidSessionToken(in) {
			t.Fatalf("expected %q rejected", in)
		}
	}
}

func TestHashSessionTokenStable(t *testing.T) {
	a := HashSessionToken("token")
	if a != HashSessionToken("token") {
		t.Fatal("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
	if a == HashSessionToken("token2") {
		t.Fatal("distinct tokens must not collide")
	}
}

func TestHashIdentifierNormalises(t *testing.T) {
	if HashIdentifier(" Alice@Example.com ") != HashIdentifier("alice@example.com") {
		t.Fatal("identifier hash must ignore case and surrounding space")
	}
}

// FuzzValidSessionToken checks the shape check never panics.
func FuzzValidSessionToken(f *testing.F) {
	if tok, err := NewSessionToken(); err == nil {
		f.Add(tok)
	}
	f.Add("")
	f.Add("!!!not-base64!!!")
	f.Fuzz(func(t *testing.T, in string) {
		_ = ValidSessionToken(in)
	})
}
