package descriptor

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// File layout of a mapped descriptor tensor:
//
//	magic   [4]byte "SGDF"
//	version uint32
//	ndata   uint64
//	natmax  uint64
//	nfeat   uint64
//	data    float64 × ndata×natmax×nfeat, row-major
//
// All integers and floats are little endian.
const (
	fileMagic   = "SGDF"
	fileVersion = 1
	headerSize  = 4 + 4 + 3*8
)

// MappedStore reads descriptors from a memory-mapped file, one atom vector
// at a time, so datasets larger than memory can be used.
type MappedStore struct {
	file   *os.File
	mmap   mmap.MMap
	ndata  int
	natmax int
	nfeat  int
	mu     sync.RWMutex
	closed bool
}

// OpenMapped maps the descriptor file at path read-only.
func OpenMapped(path string) (*MappedStore, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfigurationError("salted.featurefile", "descriptor file is not readable", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "stat descriptor file")
	}
	if info.Size() < headerSize {
		_ = file.Close()
		return nil, errors.NewParseError(path, 0, "file shorter than descriptor header")
	}

	m, err := mmap.MapRegion(file, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "mmap descriptor file")
	}

	s := &MappedStore{file: file, mmap: m}
	if err := s.readHeader(path, info.Size()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *MappedStore) readHeader(path string, size int64) error {
	if string(s.mmap[:4]) != fileMagic {
		return errors.NewParseError(path, 0, "not a descriptor file")
	}
	if v := binary.LittleEndian.Uint32(s.mmap[4:8]); v != fileVersion {
		return errors.NewParseError(path, 0, "unsupported descriptor file version "+strconv.Itoa(int(v)))
	}
	ndata := binary.LittleEndian.Uint64(s.mmap[8:16])
	natmax := binary.LittleEndian.Uint64(s.mmap[16:24])
	nfeat := binary.LittleEndian.Uint64(s.mmap[24:32])
	if ndata == 0 || natmax == 0 || nfeat == 0 {
		return errors.NewParseError(path, 0, "descriptor tensor has an empty dimension")
	}
	want := uint64(headerSize) + ndata*natmax*nfeat*8
	if uint64(size) != want {
		return errors.NewParseError(path, 0, "file size "+strconv.FormatInt(size, 10)+" does not match header, want "+strconv.FormatUint(want, 10))
	}
	s.ndata, s.natmax, s.nfeat = int(ndata), int(natmax), int(nfeat)
	return nil
}

func (s *MappedStore) NumStructures() int { return s.ndata }
func (s *MappedStore) MaxAtoms() int      { return s.natmax }
func (s *MappedStore) NumFeatures() int   { return s.nfeat }

// Atom copies one descriptor vector out of the mapping. Safe for concurrent use.
func (s *MappedStore) Atom(iconf, iat int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.New("descriptor store is closed")
	}
	if err := checkAtom(s, iconf, iat); err != nil {
		return nil, err
	}

	offset := headerSize + ((iconf*s.natmax+iat)*s.nfeat)*8
	out := make([]float64, s.nfeat)
	for j := range out {
		bits := binary.LittleEndian.Uint64(s.mmap[offset+j*8 : offset+j*8+8])
		out[j] = math.Float64frombits(bits)
	}
	return out, nil
}

// Close unmaps and closes the file.
func (s *MappedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.mmap.Unmap(); err != nil {
		_ = s.file.Close()
		return errors.Wrap(err, "unmap descriptor file")
	}
	return s.file.Close()
}

// WriteMapped writes the content of src to path in the mapped layout.
func WriteMapped(path string, src Store) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create descriptor file %s", path)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(file)
	var header [headerSize]byte
	copy(header[:4], fileMagic)
	binary.LittleEndian.PutUint32(header[4:8], fileVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(src.NumStructures()))
	binary.LittleEndian.PutUint64(header[16:24], uint64(src.MaxAtoms()))
	binary.LittleEndian.PutUint64(header[24:32], uint64(src.NumFeatures()))
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "write descriptor header")
	}

	var buf [8]byte
	for iconf := 0; iconf < src.NumStructures(); iconf++ {
		for iat := 0; iat < src.MaxAtoms(); iat++ {
			v, err := src.Atom(iconf, iat)
			if err != nil {
				return err
			}
			for _, x := range v {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
				if _, err := w.Write(buf[:]); err != nil {
					return errors.Wrap(err, "write descriptor data")
				}
			}
		}
	}
	return w.Flush()
}

func itoa(i int) string { return strconv.Itoa(i) }
