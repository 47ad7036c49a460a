package compression

import (
	"bytes"
	"testing"
)

func TestCompressorRoundTrip(t *testing.T) {
	algorithms := []Algorithm{None, LZ4, Zstd, Snappy, S2}
	original := bytes.Repeat([]byte("point record bytes, quite repetitive repetitive repetitive "), 200)

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}

			compressed, err := compressor.Compress(original)
			if err != nil {
				t.Fatalf("Failed to compress: %v", err)
			}

			decompressed, err := compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}

			if !bytes.Equal(original, decompressed) {
				t.Errorf("Decompressed data doesn't match original")
			}

			if alg != None && len(compressed) >= len(original) {
				t.Logf("Warning: compressed size (%d) is not smaller than original (%d)",
					len(compressed), len(original))
			}
		})
	}
}

func TestCompressorStreamRoundTrip(t *testing.T) {
	algorithms := []Algorithm{None, LZ4, Zstd, Snappy, S2}
	original := bytes.Repeat([]byte("streaming point data "), 500)

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: alg, Level: Fastest})
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}

			var compressed bytes.Buffer
			w, err := compressor.NewStreamWriter(&compressed)
			if err != nil {
				t.Fatalf("Failed to open stream writer: %v", err)
			}
			if _, err := w.Write(original); err != nil {
				t.Fatalf("Failed to write stream: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Failed to close stream: %v", err)
			}

			r, err := compressor.NewStreamReader(&compressed)
			if err != nil {
				t.Fatalf("Failed to open stream reader: %v", err)
			}
			defer r.Close()

			var decompressed bytes.Buffer
			if _, err := decompressed.ReadFrom(r); err != nil {
				t.Fatalf("Failed to read stream: %v", err)
			}

			if !bytes.Equal(original, decompressed.Bytes()) {
				t.Errorf("Stream decompressed data doesn't match original")
			}
		})
	}
}

func TestCompressionLevels(t *testing.T) {
	levels := []Level{Fastest, Default, Best}
	testData := bytes.Repeat([]byte("test data for compression "), 100)

	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: Zstd, Level: level})
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}

			compressed, err := compressor.Compress(testData)
			if err != nil {
				t.Fatalf("Failed to compress: %v", err)
			}

			decompressed, err := compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}

			if !bytes.Equal(testData, decompressed) {
				t.Errorf("Decompressed data doesn't match original for level %v", level)
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	if _, err := ParseAlgorithm("zstd"); err != nil {
		t.Errorf("zstd rejected: %v", err)
	}
	if _, err := ParseAlgorithm("brotli"); err == nil {
		t.Error("unknown algorithm accepted")
	}
}

func TestDefaultConfig(t *testing.T) {
	compressor, err := NewCompressor(nil)
	if err != nil {
		t.Fatalf("Failed to create default compressor: %v", err)
	}
	if compressor.Algorithm() != Zstd {
		t.Errorf("default algorithm = %s, want zstd", compressor.Algorithm())
	}
	if compressor.Level() != Default {
		t.Errorf("default level = %d, want %d", compressor.Level(), Default)
	}
}
