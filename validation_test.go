package cryptbackend

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
)

// TestConfig_Validate tests the Config validation
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
			errMsg:  "config cannot be nil",
		},
		{
			name:    "empty provider selects default",
			config:  &Config{},
			wantErr: false,
		},
		{
			name:    "go provider",
			config:  &Config{Provider: ProviderGo},
			wantErr: false,
		},
		{
			name:    "kernel provider",
			config:  &Config{Provider: ProviderKernel},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			config:  &Config{Provider: "gcrypt"},
			wantErr: true,
			errMsg:  "unknown crypto provider",
		},
		{
			name:    "memory cap",
			config:  &Config{MaxKDFMemoryKiB: 1024},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Config.Validate() error = %q, want message containing %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestCheckCipherParams(t *testing.T) {
	tests := []struct {
		name    string
		cipher  string
		mode    string
		keyLen  int
		wantErr error
	}{
		{"xts 256", CipherAES, ModeXTS, 32, nil},
		{"xts 512", CipherAES, ModeXTS, 64, nil},
		{"xts 384", CipherAES, ModeXTS, 48, ErrInvalidKeyLength},
		{"cbc 128", CipherAES, ModeCBC, 16, nil},
		{"cbc 192", CipherAES, ModeCBC, 24, nil},
		{"cbc 256", CipherAES, ModeCBC, 32, nil},
		{"cbc 512", CipherAES, ModeCBC, 64, ErrInvalidKeyLength},
		{"ecb 128", CipherAES, ModeECB, 16, nil},
		{"ecb 15", CipherAES, ModeECB, 15, ErrInvalidKeyLength},
		{"gcm", CipherAES, "gcm", 32, ErrUnsupportedMode},
		{"twofish", "twofish", ModeXTS, 64, ErrUnsupportedCipher},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCipherParams("cipher_init", ProviderGo, tt.cipher, tt.mode, tt.keyLen)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("checkCipherParams() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("checkCipherParams() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCipherKeySizes(t *testing.T) {
	sizes := CipherKeySizes(ModeXTS)
	if len(sizes) != 2 || sizes[0] != 32 || sizes[1] != 64 {
		t.Errorf("CipherKeySizes(xts) = %v, want [32 64]", sizes)
	}

	// The returned slice is a copy
	sizes[0] = 48
	if CipherKeySizes(ModeXTS)[0] != 32 {
		t.Error("CipherKeySizes exposed the internal table")
	}

	if CipherKeySizes("ctr") != nil {
		t.Error("CipherKeySizes(ctr) should be nil")
	}
	if got := CipherModes(); len(got) != 3 {
		t.Errorf("CipherModes() = %v, want 3 modes", got)
	}
}

func TestCheckTransform(t *testing.T) {
	iv := make([]byte, 16)
	buf := make([]byte, 96)

	tests := []struct {
		name    string
		mode    string
		dst     []byte
		src     []byte
		iv      []byte
		wantErr error
	}{
		{"valid xts", ModeXTS, make([]byte, 32), make([]byte, 32), iv, nil},
		{"valid in place", ModeCBC, buf[:32], buf[:32], iv, nil},
		{"larger dst", ModeCBC, make([]byte, 64), make([]byte, 32), iv, nil},
		{"ecb without iv", ModeECB, make([]byte, 16), make([]byte, 16), nil, nil},
		{"empty cbc", ModeCBC, nil, nil, iv, nil},
		{"short dst", ModeCBC, make([]byte, 16), make([]byte, 32), iv, ErrInvalidLength},
		{"short iv", ModeXTS, make([]byte, 32), make([]byte, 32), iv[:12], ErrInvalidArgument},
		{"missing iv", ModeCBC, make([]byte, 16), make([]byte, 16), nil, ErrInvalidArgument},
		{"partial block", ModeECB, make([]byte, 17), make([]byte, 17), nil, ErrFailedTransform},
		{"empty xts", ModeXTS, nil, nil, iv, ErrFailedTransform},
		{"overlap", ModeCBC, buf[16:48], buf[0:32], iv, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTransform("cipher_encrypt", ProviderGo, tt.mode, tt.dst, tt.src, tt.iv)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("checkTransform() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("checkTransform() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckArgon2(t *testing.T) {
	valid := func() *KDFRequest {
		return &KDFRequest{
			KDF:        KDFArgon2id,
			Salt:       make([]byte, 16),
			Iterations: 4,
			Memory:     64 * 1024,
			Parallel:   4,
		}
	}

	tests := []struct {
		name    string
		modify  func(*KDFRequest)
		keyLen  int
		wantErr error
		errMsg  string
	}{
		{
			name:   "valid",
			modify: func(r *KDFRequest) {},
			keyLen: 64,
		},
		{
			name:    "zero time",
			modify:  func(r *KDFRequest) { r.Iterations = 0 },
			keyLen:  64,
			wantErr: ErrInvalidArgument,
			errMsg:  "time cost must be at least 1",
		},
		{
			name:    "zero parallel",
			modify:  func(r *KDFRequest) { r.Parallel = 0 },
			keyLen:  64,
			wantErr: ErrInvalidArgument,
			errMsg:  "parallelism must be between 1 and 255",
		},
		{
			name:   "max parallel",
			modify: func(r *KDFRequest) { r.Parallel = 255 },
			keyLen: 64,
		},
		{
			name:    "memory below 8 KiB per lane",
			modify:  func(r *KDFRequest) { r.Memory = 31 },
			keyLen:  64,
			wantErr: ErrInvalidArgument,
			errMsg:  "at least 8 KiB per lane",
		},
		{
			name:   "memory exactly 8 KiB per lane",
			modify: func(r *KDFRequest) { r.Memory = 32 },
			keyLen: 64,
		},
		{
			name:    "memory above cap",
			modify:  func(r *KDFRequest) { r.Memory = 2 * 1024 * 1024 },
			keyLen:  64,
			wantErr: ErrOutOfMemory,
			errMsg:  "exceeds limit",
		},
		{
			name:    "short salt",
			modify:  func(r *KDFRequest) { r.Salt = r.Salt[:7] },
			keyLen:  64,
			wantErr: ErrInvalidArgument,
			errMsg:  "salt must be at least 8 bytes",
		},
		{
			name:    "short output",
			modify:  func(r *KDFRequest) {},
			keyLen:  3,
			wantErr: ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(req)
			err := checkArgon2("derive_key", req, tt.keyLen, 1024*1024)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("checkArgon2() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("checkArgon2() error = %v, want %v", err, tt.wantErr)
			}
			if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("checkArgon2() error = %q, want message containing %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestCheckPBKDF2(t *testing.T) {
	if err := checkPBKDF2("derive_key", &KDFRequest{Iterations: 1}); err != nil {
		t.Errorf("checkPBKDF2(1) unexpected error = %v", err)
	}
	if err := checkPBKDF2("derive_key", &KDFRequest{Iterations: 0}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("checkPBKDF2(0) error = %v, want ErrInvalidArgument", err)
	}

	// Counts that do not fit an int are refused rather than wrapped
	for _, n := range []uint32{math.MaxInt32, math.MaxInt32 + 1, math.MaxUint32} {
		err := checkPBKDF2("derive_key", &KDFRequest{Iterations: n})
		fits := uint64(n) <= math.MaxInt
		switch {
		case fits && err != nil:
			t.Errorf("checkPBKDF2(%d) unexpected error = %v", n, err)
		case !fits && !errors.Is(err, ErrInvalidArgument):
			t.Errorf("checkPBKDF2(%d) on %d-bit int error = %v, want ErrInvalidArgument", n, strconv.IntSize, err)
		}
	}
}

func TestInexactOverlap(t *testing.T) {
	buf := make([]byte, 64)
	tests := []struct {
		name string
		x, y []byte
		want bool
	}{
		{"identical", buf[:32], buf[:32], false},
		{"disjoint", buf[:32], buf[32:], false},
		{"shifted", buf[8:40], buf[:32], true},
		{"separate", make([]byte, 16), make([]byte, 16), false},
		{"empty", buf[:0], buf[:32], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inexactOverlap(tt.x, tt.y); got != tt.want {
				t.Errorf("inexactOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}
