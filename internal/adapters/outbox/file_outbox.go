package outbox

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

const (
	recordHeaderLen = 12

	logName  = "outbox.log"
	metaName = "outbox.meta"
)

// FileOutbox is an append-only log of reports. Each record is
// [8 bytes id][4 bytes len][len bytes json]; the highest delivered id lives
// in a sidecar meta file.
type FileOutbox struct {
	mu        sync.Mutex
	dir       string
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	nextID    ports.OutboxEntryID
	committed ports.OutboxEntryID
	sizeBytes int64
}

func NewFileOutbox(dir string) (*FileOutbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	o := &FileOutbox{
		dir:      dir,
		path:     filepath.Join(dir, logName),
		metaPath: filepath.Join(dir, metaName),
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	if err := o.bootstrap(); err != nil {
		o.file.Close()
		return nil, err
	}
	return o, nil
}

func (o *FileOutbox) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	o.file = f
	o.writer = bufio.NewWriterSize(f, 64<<10)
	return nil
}

func (o *FileOutbox) bootstrap() error {
	if err := o.scanExisting(); err != nil {
		return err
	}
	if err := o.loadCommitted(); err != nil {
		return err
	}
	if o.nextID < o.committed {
		o.nextID = o.committed
	}
	_, err := o.file.Seek(0, io.SeekEnd)
	return err
}

// scanExisting finds the last complete record and cuts off a torn tail left
// by a crash mid-append.
func (o *FileOutbox) scanExisting() error {
	rf, err := os.Open(o.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID ports.OutboxEntryID
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("outbox scan header: %w", err)
		}
		id := ports.OutboxEntryID(binary.BigEndian.Uint64(hdr[0:8]))
		length := int64(binary.BigEndian.Uint32(hdr[8:12]))

		if _, err := io.CopyN(io.Discard, reader, length); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("outbox scan body: %w", err)
		}
		offset += recordHeaderLen + length
		lastID = id
	}

	if err := o.file.Truncate(offset); err != nil {
		return err
	}
	o.sizeBytes = offset
	o.nextID = lastID
	return nil
}

func (o *FileOutbox) loadCommitted() error {
	data, err := os.ReadFile(o.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("outbox meta parse: %w", err)
	}
	o.committed = ports.OutboxEntryID(u)
	return nil
}

// Append writes r and syncs it to disk before returning its id.
func (o *FileOutbox) Append(r *domain.Report) (ports.OutboxEntryID, error) {
	if r == nil {
		return 0, errors.New("outbox: nil report")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID + 1
	if err := o.writeRecord(o.writer, id, b); err != nil {
		return 0, err
	}
	if err := o.writer.Flush(); err != nil {
		return 0, err
	}
	if err := o.file.Sync(); err != nil {
		return 0, err
	}

	o.nextID = id
	o.sizeBytes += int64(recordHeaderLen + len(b))
	return id, nil
}

func (o *FileOutbox) writeRecord(w io.Writer, id ports.OutboxEntryID, b []byte) error {
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Iterate calls fn for every record with id >= from, in append order. It
// stops at the first error fn returns. fn runs with the outbox locked and
// must not block on I/O; Append waits for it.
func (o *FileOutbox) Iterate(from ports.OutboxEntryID, fn func(id ports.OutboxEntryID, r *domain.Report) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writer.Flush(); err != nil {
		return err
	}
	return o.each(func(id ports.OutboxEntryID, b []byte) error {
		if id < from {
			return nil
		}
		var r domain.Report
		if err := json.Unmarshal(b, &r); err != nil {
			return fmt.Errorf("corrupt outbox entry %d: %w", id, err)
		}
		return fn(id, &r)
	})
}

func (o *FileOutbox) each(fn func(id ports.OutboxEntryID, b []byte) error) error {
	f, err := os.Open(o.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("outbox truncated header: %w", err)
		}
		id := ports.OutboxEntryID(binary.BigEndian.Uint64(hdr[0:8]))
		b := make([]byte, binary.BigEndian.Uint32(hdr[8:12]))
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("corrupt outbox: %w", err)
		}
		if err := fn(id, b); err != nil {
			return err
		}
	}
}

func (o *FileOutbox) Commit(upto ports.OutboxEntryID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if upto > o.nextID {
		upto = o.nextID
	}
	if upto <= o.committed {
		return nil
	}
	o.committed = upto
	return o.persistMetaLocked()
}

// Compact rewrites the log without the committed records.
func (o *FileOutbox) Compact() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writer.Flush(); err != nil {
		return err
	}

	tmpPath := o.path + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	var size int64
	err = o.each(func(id ports.OutboxEntryID, b []byte) error {
		if id <= o.committed {
			return nil
		}
		size += int64(recordHeaderLen + len(b))
		return o.writeRecord(w, id, b)
	})
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("outbox compact: %w", err)
	}

	if err := o.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, o.path); err != nil {
		return err
	}
	o.sizeBytes = size
	return o.open()
}

func (o *FileOutbox) Stats() ports.OutboxStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ports.OutboxStats{
		OldestUncommitted: o.committed + 1,
		LatestAppended:    o.nextID,
		SizeBytes:         o.sizeBytes,
	}
}

func (o *FileOutbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return nil
	}
	err := o.writer.Flush()
	if cerr := o.file.Close(); err == nil {
		err = cerr
	}
	o.file = nil
	return err
}

func (o *FileOutbox) persistMetaLocked() error {
	data := []byte(fmt.Sprintf("%d\n", o.committed))
	return os.WriteFile(o.metaPath, data, 0o644)
}

var _ ports.Outbox = (*FileOutbox)(nil)
