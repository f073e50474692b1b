package triple

import "testing"

func TestParse(t *testing.T) {
	host := Triple{Arch: "x86_64", Vendor: "unknown", OS: "linux", Env: "gnu"}

	tests := []struct {
		name    string
		input   string
		want    Triple
		wantErr bool
	}{
		{
			name:  "full triple",
			input: "x86_64-pc-windows-msvc",
			want:  Triple{Arch: "x86_64", Vendor: "pc", OS: "windows", Env: "msvc"},
		},
		{
			name:  "gnu variant distinct from msvc",
			input: "x86_64-pc-windows-gnu",
			want:  Triple{Arch: "x86_64", Vendor: "pc", OS: "windows", Env: "gnu"},
		},
		{
			name:  "darwin triple without env",
			input: "aarch64-apple-darwin",
			want:  Triple{Arch: "aarch64", Vendor: "apple", OS: "darwin"},
		},
		{
			name:  "arch only, rest from host",
			input: "aarch64",
			want:  Triple{Arch: "aarch64", Vendor: "unknown", OS: "linux", Env: "gnu"},
		},
		{
			name:    "unknown arch",
			input:   "nonsense",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, host)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTripleEqualDistinguishesEnv(t *testing.T) {
	msvc := Triple{Arch: "x86_64", Vendor: "pc", OS: "windows", Env: "msvc"}
	gnu := Triple{Arch: "x86_64", Vendor: "pc", OS: "windows", Env: "gnu"}

	if msvc.Equal(gnu) {
		t.Fatal("msvc and gnu triples must not compare equal despite shared host")
	}
}

func TestHostProducesKnownArch(t *testing.T) {
	h := Host()
	if !IsKnownArch(h.Arch) {
		t.Fatalf("Host() produced unrecognised arch %q", h.Arch)
	}
	if h.OS == "" {
		t.Fatal("Host() produced empty OS")
	}
}
