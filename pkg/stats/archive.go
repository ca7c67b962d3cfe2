package stats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sasha-s/go-deadlock"
)

// Archive appends match snapshots to zstd compressed JSON lines files,
// starting a new file every hour.
type Archive struct {
	dir    string
	prefix string
	now    func() time.Time

	mutex   deadlock.Mutex
	current string
	file    *os.File
	encoder *zstd.Encoder
	writer  *bufio.Writer
}

func NewArchive(dir string) *Archive {
	return &Archive{
		dir:    dir,
		prefix: "matches",
		now:    time.Now,
	}
}

func (a *Archive) pathFor(hour string) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s-%s.jsonl.zst", a.prefix, hour))
}

func (a *Archive) Write(snapshot Snapshot) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	hour := a.now().UTC().Format("2006-01-02-15")
	if hour != a.current {
		if err := a.rotate(hour); err != nil {
			return err
		}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if _, err := a.writer.Write(data); err != nil {
		return err
	}
	if err := a.writer.WriteByte('\n'); err != nil {
		return err
	}
	if err := a.writer.Flush(); err != nil {
		return err
	}
	return a.encoder.Flush()
}

func (a *Archive) rotate(hour string) error {
	if err := a.close(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(a.pathFor(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return err
	}

	a.file = file
	a.encoder = encoder
	a.writer = bufio.NewWriter(encoder)
	a.current = hour
	return nil
}

func (a *Archive) close() error {
	var err error
	if a.writer != nil {
		_ = a.writer.Flush()
		a.writer = nil
	}
	if a.encoder != nil {
		err = a.encoder.Close()
		a.encoder = nil
	}
	if a.file != nil {
		_ = a.file.Close()
		a.file = nil
	}
	a.current = ""
	return err
}

func (a *Archive) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.close()
}

// ReadArchive decodes every snapshot stored in one archive file.
func ReadArchive(path string) ([]Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var snapshots []Snapshot
	scanner := bufio.NewScanner(decoder)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var snapshot Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, scanner.Err()
}
