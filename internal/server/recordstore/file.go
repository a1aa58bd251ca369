package recordstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/filex"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/syncx"
)

// row is one line of a collection file. item is nil for a line that does not
// parse; such lines are written back unchanged on rewrite.
type row struct {
	key  Key
	item item
	raw  []byte
}

// FileStore keeps each collection as newline-delimited JSON in
// <dir>/<collection>.jsonl. Every operation holds the collection lock (an
// in-process mutex plus an flock on <dir>/<collection>.lock) across its whole
// read-modify-write, so concurrent servers sharing dir stay consistent.
type FileStore struct {
	dir    string
	logger logging.Logger
	locks  syncx.KeyedMutex
}

func NewFileStore(dir string, logger logging.Logger) (*FileStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return &FileStore{dir: abs, logger: logger}, nil
}

// Dir returns the absolute data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) dataPath(c Collection) string {
	return filepath.Join(s.dir, c.Name+".jsonl")
}

func (s *FileStore) withCollection(ctx context.Context, c Collection, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(c.Name)
	defer unlock()

	release, err := lockFile(ctx, filepath.Join(s.dir, c.Name+".lock"))
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return unavailable("lock", c, err)
	}
	defer release()

	return fn()
}

func (s *FileStore) readRows(ctx context.Context, c Collection) ([]row, error) {
	f, err := os.Open(s.dataPath(c))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("open", c, err)
	}
	defer f.Close()

	var rows []row
	index := make(map[Key]int)
	r := bufio.NewReader(f)
	for line := 1; ; line++ {
		b, err := r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, unavailable("read", c, err)
		}
		if raw := bytes.TrimSpace(b); len(raw) > 0 {
			raw = append([]byte(nil), raw...)
			it, perr := parseItem(raw)
			var k Key
			if perr == nil {
				k, perr = it.key(c)
			}
			switch {
			case perr != nil:
				s.logger.Warn(ctx, "skipping corrupt record", "collection", c.Name, "line", line, "error", perr.Error())
				rows = append(rows, row{raw: raw})
			default:
				// Duplicate keys: the later line wins but keeps the first position.
				if i, ok := index[k]; ok {
					rows[i] = row{key: k, item: it, raw: raw}
				} else {
					index[k] = len(rows)
					rows = append(rows, row{key: k, item: it, raw: raw})
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
	}
}

func (s *FileStore) writeRows(c Collection, rows []row) error {
	var buf bytes.Buffer
	for _, r := range rows {
		line := r.raw
		if line == nil {
			b, err := r.item.encode()
			if err != nil {
				return fmt.Errorf("%w: %v", common.ErrValidation, err)
			}
			line = b
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := filex.WriteFileAtomic(s.dataPath(c), buf.Bytes(), 0o600); err != nil {
		return unavailable("write", c, err)
	}
	return nil
}

// appendLine adds one record at the end of the file. A missing trailing
// newline (an interrupted earlier write) is repaired first so the new record
// lands on its own line.
func (s *FileStore) appendLine(c Collection, line []byte) error {
	path := s.dataPath(c)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return unavailable("open", c, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return unavailable("stat", c, err)
	}
	var buf bytes.Buffer
	if st.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, st.Size()-1); err != nil {
			return unavailable("read", c, err)
		}
		if last[0] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	if _, err := f.Write(buf.Bytes()); err != nil {
		return unavailable("append", c, err)
	}
	if err := f.Sync(); err != nil {
		return unavailable("sync", c, err)
	}
	return nil
}

func find(rows []row, k Key) int {
	for i, r := range rows {
		if r.item != nil && r.key == k {
			return i
		}
	}
	return -1
}

func (s *FileStore) write(ctx context.Context, c Collection, v any, createOnly bool) error {
	it, err := toItem(v)
	if err != nil {
		return err
	}
	k, err := it.key(c)
	if err != nil {
		return err
	}
	line, err := it.encode()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	return s.withCollection(ctx, c, func() error {
		rows, err := s.readRows(ctx, c)
		if err != nil {
			return err
		}
		i := find(rows, k)
		if i < 0 {
			return s.appendLine(c, line)
		}
		if createOnly {
			return fmt.Errorf("insert %s %s: %w", c.Name, k, common.ErrAlreadyExists)
		}
		rows[i] = row{key: k, item: it, raw: line}
		return s.writeRows(c, rows)
	})
}

func (s *FileStore) Put(ctx context.Context, c Collection, v any) error {
	return s.write(ctx, c, v, false)
}

func (s *FileStore) Insert(ctx context.Context, c Collection, v any) error {
	return s.write(ctx, c, v, true)
}

func (s *FileStore) Get(ctx context.Context, c Collection, k Key, v any) error {
	var found item
	err := s.withCollection(ctx, c, func() error {
		rows, err := s.readRows(ctx, c)
		if err != nil {
			return err
		}
		if i := find(rows, k); i >= 0 {
			found = rows[i].item
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("get %s %s: %w", c.Name, k, common.ErrorNotFound)
	}
	return found.decode(v)
}

func (s *FileStore) Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error {
	var matched []item
	err := s.withCollection(ctx, c, func() error {
		rows, err := s.readRows(ctx, c)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.item != nil && r.item.matches(f) {
				matched = append(matched, r.item)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, it := range matched {
		if err := visitRecord(ctx, s.logger, c, it.decoder(), visit); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, c Collection, k Key, u *Update, v any) error {
	if u.empty() {
		return errEmptyUpdate
	}

	var next item
	err := s.withCollection(ctx, c, func() error {
		rows, err := s.readRows(ctx, c)
		if err != nil {
			return err
		}
		i := find(rows, k)
		if i < 0 {
			return fmt.Errorf("update %s %s: %w", c.Name, k, common.ErrorNotFound)
		}
		next, err = rows[i].item.apply(u)
		if err != nil {
			return fmt.Errorf("update %s %s: %w", c.Name, k, err)
		}
		rows[i] = row{key: k, item: next}
		return s.writeRows(c, rows)
	})
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return next.decode(v)
}

func (s *FileStore) Delete(ctx context.Context, c Collection, k Key) error {
	return s.withCollection(ctx, c, func() error {
		rows, err := s.readRows(ctx, c)
		if err != nil {
			return err
		}
		kept := rows[:0]
		removed := false
		for _, r := range rows {
			if r.item != nil && r.key == k {
				removed = true
				continue
			}
			kept = append(kept, r)
		}
		if !removed {
			return nil
		}
		return s.writeRows(c, kept)
	})
}

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("ping: %w: %w", common.ErrStorageUnavailable, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("ping: %w: %s is not a directory", common.ErrStorageUnavailable, s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
