package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidReceipt is returned when a stored receipt cannot be decoded.
var ErrInvalidReceipt = errors.New("invalid receipt")

type ReceiptType byte

const (
	ReceiptJPEG    ReceiptType = 'J'
	ReceiptPNG     ReceiptType = 'P'
	ReceiptPDF     ReceiptType = 'D'
	ReceiptUnknown ReceiptType = 'U'
)

func (t ReceiptType) valid() bool {
	switch t {
	case ReceiptJPEG, ReceiptPNG, ReceiptPDF, ReceiptUnknown:
		return true
	}
	return false
}

// Extension returns the file extension matching the receipt type.
func (t ReceiptType) Extension() string {
	switch t {
	case ReceiptJPEG:
		return ".jpg"
	case ReceiptPNG:
		return ".png"
	case ReceiptPDF:
		return ".pdf"
	}
	return ".bin"
}

// Receipt is an attached document. The zero value means no receipt.
type Receipt struct {
	Type ReceiptType
	Data []byte
}

func (r Receipt) IsEmpty() bool { return len(r.Data) == 0 }

// Encode produces the stored form: base64 of the tag byte followed by the data.
func (r Receipt) Encode() string {
	if r.IsEmpty() {
		return ""
	}
	t := r.Type
	if !t.valid() {
		t = ReceiptUnknown
	}
	buf := make([]byte, 0, len(r.Data)+1)
	buf = append(buf, byte(t))
	buf = append(buf, r.Data...)
	return base64.StdEncoding.EncodeToString(buf)
}

// Clone returns a receipt that shares no memory with r.
func (r Receipt) Clone() Receipt {
	if r.IsEmpty() {
		return Receipt{}
	}
	return Receipt{Type: r.Type, Data: append([]byte(nil), r.Data...)}
}

// DecodeReceipt reverses Encode. An empty string is the empty receipt.
func DecodeReceipt(s string) (Receipt, error) {
	if s == "" {
		return Receipt{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}
	if len(raw) == 0 {
		return Receipt{}, nil
	}
	t := ReceiptType(raw[0])
	if !t.valid() {
		return Receipt{}, fmt.Errorf("%w: unknown type tag %q", ErrInvalidReceipt, raw[0])
	}
	return Receipt{Type: t, Data: raw[1:]}, nil
}

// ReceiptFromFile loads a receipt, typed by extension or by sniffing the content.
func ReceiptFromFile(path string) (Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Receipt{}, fmt.Errorf("read receipt: %w", err)
	}
	t := ReceiptUnknown
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		t = ReceiptJPEG
	case ".png":
		t = ReceiptPNG
	case ".pdf":
		t = ReceiptPDF
	default:
		switch http.DetectContentType(data) {
		case "image/jpeg":
			t = ReceiptJPEG
		case "image/png":
			t = ReceiptPNG
		case "application/pdf":
			t = ReceiptPDF
		}
	}
	return Receipt{Type: t, Data: data}, nil
}

// Save writes the receipt next to base, adding the extension for its type.
func (r Receipt) Save(base string) (string, error) {
	if r.IsEmpty() {
		return "", errors.New("receipt is empty")
	}
	path := strings.TrimSuffix(base, filepath.Ext(base)) + r.Type.Extension()
	if err := os.WriteFile(path, r.Data, 0o600); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}
