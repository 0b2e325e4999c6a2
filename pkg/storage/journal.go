package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yevheniihorbatyuk/recordkit/pkg/codec"
	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// ErrJournalCorrupt is returned when a journal frame cannot be read or
// fails its checksum.
var ErrJournalCorrupt = errors.New("journal corruption detected")

// maxFrameSize bounds a single journal frame. A frame length beyond this
// is treated as corruption rather than an allocation request.
const maxFrameSize = 16 * 1024 * 1024

// JournalConfig holds configuration for the journal writer.
type JournalConfig struct {
	FilePath      string        // Path to the journal file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	BufferSize    int           // Write buffer size (0 = bufio default)
}

// JournalWriter appends binary-encoded user records to a file. Each
// record is written as a length-prefixed frame:
//
//	[FrameLen(4, LE)][binary codec blob holding one record]
//
// The blob carries its own magic, version and CRC32, so the reader can
// detect a torn or corrupt tail and recovery can truncate to the last
// good frame.
type JournalWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *codec.BinaryCodec
	fsyncTimer *time.Timer
	config     JournalConfig
	mutex      sync.Mutex
	offset     int64
}

// NewJournalWriter opens the journal file for appending, creating it and
// its directory as needed.
func NewJournalWriter(config JournalConfig) (*JournalWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	bufSize := config.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}

	w := &JournalWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, bufSize),
		codec:  codec.NewBinaryCodec(),
		config: config,
		offset: stat.Size(),
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, w.timedSync)
	}

	return w, nil
}

func (w *JournalWriter) timedSync() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.sync() // errors surface on the next Append or Close
	if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}
}

// Append writes one record to the journal and returns the offset its
// frame starts at.
func (w *JournalWriter) Append(u *record.User) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	blob, err := w.codec.Encode([]*record.User{u})
	if err != nil {
		return 0, err
	}

	var frameLen [4]byte
	binary.LittleEndian.PutUint32(frameLen[:], uint32(len(blob)))

	frameOffset := w.offset
	if _, err := w.writer.Write(frameLen[:]); err != nil {
		return 0, err
	}
	if _, err := w.writer.Write(blob); err != nil {
		return 0, err
	}
	w.offset += int64(4 + len(blob))

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	}
	return frameOffset, nil
}

// Sync flushes the buffer and fsyncs the file.
func (w *JournalWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *JournalWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Size returns the journal size in bytes including buffered frames.
func (w *JournalWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Close flushes, fsyncs and closes the journal.
func (w *JournalWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
		w.fsyncTimer = nil
	}
	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// JournalReader provides sequential access to the records in a journal
// file.
type JournalReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *codec.BinaryCodec
	offset int64
}

// NewJournalReader opens a journal file for reading from the start.
func NewJournalReader(path string) (*JournalReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &JournalReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  codec.NewBinaryCodec(),
	}, nil
}

// ReadNext reads the next record. It returns io.EOF at a clean end of
// the journal and ErrJournalCorrupt (wrapped, with the frame offset) for
// a torn or invalid frame.
func (r *JournalReader) ReadNext() (*record.User, error) {
	frameOffset := r.offset

	var frameLen [4]byte
	if _, err := io.ReadFull(r.reader, frameLen[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("torn frame header at offset %d: %w", frameOffset, ErrJournalCorrupt)
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(frameLen[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("frame size %d at offset %d: %w", size, frameOffset, ErrJournalCorrupt)
	}

	blob := make([]byte, size)
	if _, err := io.ReadFull(r.reader, blob); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("torn frame at offset %d: %w", frameOffset, ErrJournalCorrupt)
		}
		return nil, err
	}
	r.offset += int64(4 + size)

	users, err := r.codec.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("frame at offset %d: %w", frameOffset, ErrJournalCorrupt)
	}
	if len(users) != 1 {
		return nil, fmt.Errorf("frame at offset %d holds %d records: %w", frameOffset, len(users), ErrJournalCorrupt)
	}
	return users[0], nil
}

// ReadAll reads every remaining record in order.
func (r *JournalReader) ReadAll() ([]*record.User, error) {
	var users []*record.User
	for {
		u, err := r.ReadNext()
		if err == io.EOF {
			return users, nil
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
}

// Offset returns the byte offset of the next unread frame.
func (r *JournalReader) Offset() int64 {
	return r.offset
}

// Close closes the journal reader.
func (r *JournalReader) Close() error {
	return r.file.Close()
}

// RecoveryResult reports what RecoverJournal found and did.
type RecoveryResult struct {
	RecordsValidated int64
	Truncated        bool
	FileSizeBefore   int64
	FileSizeAfter    int64
	RecoveryTime     time.Duration
}

// RecoverJournal validates a journal file and truncates it at the first
// corrupt frame, so a writer can safely append after a crash. A missing
// file is not an error.
func RecoverJournal(path string) (*RecoveryResult, error) {
	start := time.Now()

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(start)}, nil
		}
		return nil, err
	}
	sizeBefore := stat.Size()

	reader, err := NewJournalReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var validated int64
	var lastValidOffset int64
	corrupt := false
	for {
		_, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrJournalCorrupt) {
				corrupt = true
				break
			}
			return nil, err
		}
		validated++
		lastValidOffset = reader.Offset()
	}

	sizeAfter := sizeBefore
	if corrupt {
		file, err := os.OpenFile(path, os.O_RDWR, 0600)
		if err != nil {
			return nil, err
		}
		if err := file.Truncate(lastValidOffset); err != nil {
			file.Close()
			return nil, err
		}
		if err := file.Close(); err != nil {
			return nil, err
		}
		sizeAfter = lastValidOffset
	}

	return &RecoveryResult{
		RecordsValidated: validated,
		Truncated:        corrupt,
		FileSizeBefore:   sizeBefore,
		FileSizeAfter:    sizeAfter,
		RecoveryTime:     time.Since(start),
	}, nil
}
