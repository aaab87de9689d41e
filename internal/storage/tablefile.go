package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/pierrec/lz4/v4"

	"DerivLex/internal/scan"
)

// TableFileExt is the file extension of scanner table files.
const TableFileExt = ".dlxt"

// Table file layout:
//
//	magic     "DLXT"
//	version   uint8
//	flags     uint8, bit 0 set if the payload is lz4 compressed
//	size      uint32 big-endian, length of the uncompressed payload
//	checksum  "sha256:" + 64 hex digits over the uncompressed payload
//	payload   lz4 block, or the raw payload if it did not compress
const (
	tableFileVersion = 1
	flagLZ4          = 1 << 0
	headerLen        = 4 + 1 + 1 + 4 + ChecksumLen

	// maxPayload bounds the allocation made for a claimed payload size.
	maxPayload = 1 << 30
)

var tableMagic = []byte("DLXT")

var ErrBadTableFile = errors.New("bad table file")

// EncodeTable serializes t into the table file format.
func EncodeTable(t *scan.Table) ([]byte, error) {
	payload, err := t.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}

	buf := make([]byte, headerLen+lz4.CompressBlockBound(len(payload)))
	copy(buf, tableMagic)
	buf[4] = tableFileVersion
	binary.BigEndian.PutUint32(buf[6:], uint32(len(payload)))
	copy(buf[10:headerLen], string(ComputeChecksum(payload)))

	n, err := lz4.CompressBlock(payload, buf[headerLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("compress table: %w", err)
	}
	if n == 0 {
		// Not compressible.
		n = copy(buf[headerLen:], payload)
	} else {
		buf[5] = flagLZ4
	}
	return buf[:headerLen+n], nil
}

// DecodeTable parses data written by EncodeTable, verifying its checksum.
func DecodeTable(data []byte) (*scan.Table, error) {
	if len(data) < headerLen || !bytes.Equal(data[:4], tableMagic) {
		return nil, fmt.Errorf("%w: missing header", ErrBadTableFile)
	}
	if v := data[4]; v != tableFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadTableFile, v)
	}
	flags := data[5]
	size := binary.BigEndian.Uint32(data[6:])
	sum := Checksum(data[10:headerLen])
	body := data[headerLen:]

	var payload []byte
	switch flags {
	case 0:
		payload = body
	case flagLZ4:
		if size > maxPayload {
			return nil, fmt.Errorf("%w: payload of %d bytes", ErrBadTableFile, size)
		}
		payload = make([]byte, size)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrBadTableFile, err)
		}
		payload = payload[:n]
	default:
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrBadTableFile, flags)
	}
	if len(payload) != int(size) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrBadTableFile, len(payload), size)
	}
	if err := VerifyChecksum(payload, sum); err != nil {
		return nil, err
	}

	var t scan.Table
	if err := t.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTableFile, err)
	}
	return &t, nil
}

// WriteTableFile atomically writes t to path.
func WriteTableFile(path string, t *scan.Table) error {
	data, err := EncodeTable(t)
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, data)
}

// ReadTableFile reads and verifies the table file at path.
func ReadTableFile(path string) (*scan.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table file: %w", err)
	}
	t, err := DecodeTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
