package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func TestComputeChecksum(t *testing.T) {
	// Known SHA-256 vector: sha256("hello") = 2cf24dba...
	data := []byte("hello")
	expected := sha256.Sum256(data)
	expectedStr := ChecksumPrefix + hex.EncodeToString(expected[:])

	got := ComputeChecksum(data)
	if string(got) != expectedStr {
		t.Errorf("ComputeChecksum(%q) = %s, want %s", data, got, expectedStr)
	}
	if len(got) != ChecksumLen {
		t.Errorf("len = %d, want %d", len(got), ChecksumLen)
	}
}

func TestComputeChecksum_Empty(t *testing.T) {
	// SHA-256 of empty input
	expected := sha256.Sum256(nil)
	expectedStr := ChecksumPrefix + hex.EncodeToString(expected[:])

	got := ComputeChecksum(nil)
	if string(got) != expectedStr {
		t.Errorf("ComputeChecksum(nil) = %s, want %s", got, expectedStr)
	}
}

func TestVerifyChecksum_Match(t *testing.T) {
	data := []byte("verify me")
	if err := VerifyChecksum(data, ComputeChecksum(data)); err != nil {
		t.Errorf("VerifyChecksum should succeed: %v", err)
	}
}

func TestVerifyChecksum_Mismatch(t *testing.T) {
	wrongChecksum := ComputeChecksum([]byte("different content"))
	err := VerifyChecksum([]byte("actual content"), wrongChecksum)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got: %v", err)
	}
}

func TestVerifyChecksum_Malformed(t *testing.T) {
	err := VerifyChecksum([]byte("x"), Checksum("md5:abc"))
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("expected ErrInvalidChecksum, got: %v", err)
	}
}

func TestFormatChecksum(t *testing.T) {
	raw := sha256.Sum256([]byte("test"))
	c := FormatChecksum(raw[:])

	if len(c) != len(ChecksumPrefix)+64 {
		t.Errorf("unexpected checksum length: %d", len(c))
	}
	if string(c[:len(ChecksumPrefix)]) != ChecksumPrefix {
		t.Errorf("checksum missing prefix: %s", c)
	}
}

func TestParseChecksum_Valid(t *testing.T) {
	data := []byte("parse test")
	c := ComputeChecksum(data)

	hexStr, err := ParseChecksum(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(hexStr) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(hexStr))
	}
}

func TestParseChecksum_MissingPrefix(t *testing.T) {
	_, err := ParseChecksum(Checksum("abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"))
	if err == nil {
		t.Error("expected error for missing prefix")
	}
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("expected ErrInvalidChecksum, got: %v", err)
	}
}

func TestParseChecksum_WrongLength(t *testing.T) {
	_, err := ParseChecksum(Checksum(ChecksumPrefix + "tooshort"))
	if err == nil {
		t.Error("expected error for wrong length")
	}
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("expected ErrInvalidChecksum, got: %v", err)
	}
}

func TestParseChecksum_InvalidHex(t *testing.T) {
	_, err := ParseChecksum(Checksum(ChecksumPrefix + "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
	if err == nil {
		t.Error("expected error for invalid hex")
	}
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("expected ErrInvalidChecksum, got: %v", err)
	}
}
