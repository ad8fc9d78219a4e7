// Package storage provides a persistent BlockStorage backend on top of
// github.com/df-mc/goleveldb, grounded on oriumgames-pile's use of the same
// driver for its world database. It implements voxel.BlockStorage one chunk
// column at a time, keyed by a short binary prefix so a single database can
// back every chunk in a world.
package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"

	"voxelworld/internal/codec"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

// DB wraps one goleveldb handle shared by every chunk's LevelDBStorage, the
// way a single *leveldb.DB backs an entire world directory.
type DB struct {
	ldb *leveldb.DB
	reg *registry.Registry
}

func Open(path string, reg *registry.Registry) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &DB{ldb: ldb, reg: reg}, nil
}

func (db *DB) Close() error { return db.ldb.Close() }

// ForChunk returns a BlockStorage scoped to one chunk's columns, all sharing
// db's underlying handle.
func (db *DB) ForChunk(cx, cz int, dim uint8) voxel.BlockStorage {
	return &levelDBStorage{db: db, cx: cx, cz: cz, dim: dim}
}

// Factory adapts db to voxel.StorageFactory, so it can be passed directly as
// the storage argument to voxel.NewWorld/voxel.LoadWorld in place of the
// nil-defaulted in-memory backend.
func (db *DB) Factory() voxel.StorageFactory {
	return func(pos voxel.ChunkPosition) voxel.BlockStorage {
		return db.ForChunk(pos.X, pos.Z, uint8(pos.Dimension))
	}
}

type levelDBStorage struct {
	db     *DB
	cx, cz int
	dim    uint8
}

func (s *levelDBStorage) key(idx int) []byte {
	var k [13]byte
	binary.BigEndian.PutUint32(k[0:4], uint32(s.cx))
	binary.BigEndian.PutUint32(k[4:8], uint32(s.cz))
	k[8] = s.dim
	binary.BigEndian.PutUint32(k[9:13], uint32(idx))
	return k[:]
}

func (s *levelDBStorage) LoadColumn(idx int) ([]voxel.BlockData, bool, error) {
	raw, err := s.db.ldb.Get(s.key(idx), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: load column %d: %w", idx, err)
	}
	col, err := decodeColumn(raw, s.db.reg)
	if err != nil {
		return nil, false, err
	}
	return col, true, nil
}

func (s *levelDBStorage) SaveColumn(idx int, col []voxel.BlockData) error {
	raw, err := encodeColumn(col)
	if err != nil {
		return fmt.Errorf("storage: save column %d: %w", idx, err)
	}
	if err := s.db.ldb.Put(s.key(idx), raw, nil); err != nil {
		return fmt.Errorf("storage: put column %d: %w", idx, err)
	}
	return nil
}

func (s *levelDBStorage) Delete(idx int) error {
	if err := s.db.ldb.Delete(s.key(idx), nil); err != nil {
		return fmt.Errorf("storage: delete column %d: %w", idx, err)
	}
	return nil
}

func (s *levelDBStorage) ForEach(fn func(idx int, col []voxel.BlockData) bool) error {
	prefix := make([]byte, 9)
	binary.BigEndian.PutUint32(prefix[0:4], uint32(s.cx))
	binary.BigEndian.PutUint32(prefix[4:8], uint32(s.cz))
	prefix[8] = s.dim

	it := s.db.ldb.NewIterator(nil, nil)
	defer it.Release()
	for ok := it.Seek(prefix); ok; ok = it.Next() {
		key := it.Key()
		if len(key) != 13 || string(key[:9]) != string(prefix) {
			break
		}
		idx := int(binary.BigEndian.Uint32(key[9:13]))
		col, err := decodeColumn(it.Value(), s.db.reg)
		if err != nil {
			return err
		}
		if !fn(idx, col) {
			break
		}
	}
	return it.Error()
}

func (s *levelDBStorage) Close() error { return nil }

func encodeColumn(col []voxel.BlockData) ([]byte, error) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	table := codec.NewInternTable()
	if err := w.WriteU32(uint32(len(col))); err != nil {
		return nil, err
	}
	for _, b := range col {
		if err := b.Write(w, table); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeColumn(raw []byte, reg *registry.Registry) ([]voxel.BlockData, error) {
	r := codec.NewReader(bytes.NewReader(raw))
	table := codec.NewInternTable()
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	col := make([]voxel.BlockData, n)
	for i := range col {
		b, err := voxel.ReadBlockData(r, table, reg)
		if err != nil {
			return nil, err
		}
		col[i] = b
	}
	return col, nil
}
