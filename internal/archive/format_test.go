package archive

import "testing"

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"a.zip":     Zip,
		"a.tar":     Tar,
		"a.tar.gz":  TarGzip,
		"a.tgz":     TarGzip,
		"a.tar.zst": TarZstd,
		"a.tzst":    TarZstd,
		"a.tar.xz":  TarXz,
		"a.txz":     TarXz,
		"a.tar.lz":  TarLzip,
		"a.bin":     Unknown,
	}
	for name, want := range cases {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %v, want %v", name, got, want)
		}
	}
}
