package secretstore

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
)

// Snapshot file layout:
//
//	[Magic: 4 bytes "LXSN"] [Version: 1 byte] [Salt fingerprint: 32 bytes]
//	[Nonce: 24 bytes] [XChaCha20-Poly1305 ciphertext+tag]
//
// The first 37 bytes are authenticated as additional data. The
// plaintext is zstd-compressed deterministic CBOR of body.
var snapshotMagic = [4]byte{'L', 'X', 'S', 'N'}

const snapshotVersion byte = 0x01

const (
	headerSize   = len(snapshotMagic) + 1 + 32
	minSealedLen = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
)

// maxBodySize bounds decompression of a snapshot body.
const maxBodySize = 16 << 20

type body struct {
	Clients map[string]map[string][]byte `cbor:"clients"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("secretstore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		MaxMapPairs: 1 << 16,
	}.DecMode()
	if err != nil {
		panic("secretstore: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("secretstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBodySize))
	if err != nil {
		panic("secretstore: zstd decoder initialization failed: " + err.Error())
	}
}

func header(fingerprint [32]byte) []byte {
	h := make([]byte, 0, headerSize)
	h = append(h, snapshotMagic[:]...)
	h = append(h, snapshotVersion)
	h = append(h, fingerprint[:]...)
	return h
}

// seal encodes, compresses and encrypts b under key.
func seal(b *body, key []byte, fingerprint [32]byte) ([]byte, error) {
	plain, err := encMode.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	compressed := zstdEncoder.EncodeAll(plain, nil)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	aad := header(fingerprint)
	out := make([]byte, 0, len(aad)+len(nonce)+len(compressed)+aead.Overhead())
	out = append(out, aad...)
	out = append(out, nonce[:]...)
	return aead.Seal(out, nonce[:], compressed, aad), nil
}

// checkHeader validates framing and the salt fingerprint without
// touching the key.
func checkHeader(sealed []byte, fingerprint [32]byte) error {
	if len(sealed) < minSealedLen {
		return fmt.Errorf("%w: %d bytes, minimum is %d", ErrCorruptSnapshot, len(sealed), minSealedLen)
	}
	if !bytes.Equal(sealed[:len(snapshotMagic)], snapshotMagic[:]) {
		return fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}
	if v := sealed[len(snapshotMagic)]; v != snapshotVersion {
		return fmt.Errorf("%w: version %d is not supported (expected %d)", ErrCorruptSnapshot, v, snapshotVersion)
	}
	if !bytes.Equal(sealed[len(snapshotMagic)+1:headerSize], fingerprint[:]) {
		return ErrSaltMismatch
	}
	return nil
}

// open reverses seal.
func open(sealed []byte, key []byte, fingerprint [32]byte) (*body, error) {
	if err := checkHeader(sealed, fingerprint); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	aad := sealed[:headerSize]
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[headerSize+chacha20poly1305.NonceSizeX:]

	compressed, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}

	plain, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing: %v", ErrCorruptSnapshot, err)
	}

	var b body
	if err := decMode.Unmarshal(plain, &b); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrCorruptSnapshot, err)
	}
	if b.Clients == nil {
		b.Clients = make(map[string]map[string][]byte)
	}
	return &b, nil
}
