package security

import (
	"bytes"
	"testing"
)

func TestSealOpenFrame_往返(t *testing.T) {
	key := "0123456789abcdef"
	plain := []byte(`{"command":"list_sessions"}`)

	frame, err := SealFrame(plain, key)
	if err != nil {
		t.Fatalf("SealFrame err=%v", err)
	}
	got, err := OpenFrame(frame, key)
	if err != nil {
		t.Fatalf("OpenFrame err=%v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("往返结果不符, got=%q", got)
	}
}

func TestAesCBCEncrypt_密钥长度校验(t *testing.T) {
	if _, err := AesCBCEncrypt([]byte("x"), []byte("short"), []byte("short")); err != ErrKeyLength {
		t.Fatalf("期望 ErrKeyLength, got=%v", err)
	}
}

func TestZip_往返(t *testing.T) {
	raw := bytes.Repeat([]byte("nightfall"), 100)
	z, err := Zip(raw)
	if err != nil {
		t.Fatalf("Zip err=%v", err)
	}
	back, err := UnZip(z)
	if err != nil || !bytes.Equal(back, raw) {
		t.Fatalf("UnZip 结果不符, err=%v", err)
	}
}
