package neighbors

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hanush21/anime-recommender/internal/models"
)

const partialSuffix = ".partial"

var fileHeader = []string{"src_id", "dst_id", "correlation", "common"}

// FileStore guarda cada generación como <dir>/<key>.csv. Mientras se escribe
// el archivo se llama <key>.csv.partial y recién en Commit se renombra.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Path(gen Generation) string {
	return filepath.Join(s.dir, gen.Key()+".csv")
}

func (s *FileStore) Location(gen Generation) string { return s.Path(gen) }

func (s *FileStore) Exists(ctx context.Context, gen Generation) (bool, error) {
	fi, err := os.Stat(s.Path(gen))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

func (s *FileStore) Create(ctx context.Context, gen Generation) (Writer, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("neighbors: creando %s: %w", s.dir, err)
	}
	final := s.Path(gen)
	f, err := os.Create(final + partialSuffix)
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	buf := bufio.NewWriterSize(f, 1<<16)
	w := &fileWriter{f: f, buf: buf, csv: csv.NewWriter(buf), final: final}
	if err := w.csv.Write(fileHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	return w, nil
}

type fileWriter struct {
	f     *os.File
	buf   *bufio.Writer
	csv   *csv.Writer
	final string
	row   [4]string
	done  bool
}

func (w *fileWriter) Append(ctx context.Context, src int, list models.NeighborList) error {
	for _, e := range list {
		w.row[0] = strconv.Itoa(src)
		w.row[1] = strconv.Itoa(e.DstID)
		w.row[2] = strconv.FormatFloat(e.Correlation, 'g', -1, 64)
		w.row[3] = strconv.Itoa(e.Common)
		if err := w.csv.Write(w.row[:]); err != nil {
			return err
		}
	}
	// flush por ítem: un corte deja filas completas en el .partial
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *fileWriter) Commit(ctx context.Context) error {
	if w.done {
		return errors.New("neighbors: writer cerrado")
	}
	w.done = true
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	return os.Rename(w.final+partialSuffix, w.final)
}

func (w *fileWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	w.csv.Flush()
	_ = w.buf.Flush()
	return w.f.Close()
}

func (s *FileStore) Read(ctx context.Context, gen Generation) (Lists, error) {
	f, err := os.Open(s.Path(gen))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(bufio.NewReaderSize(f, 1<<16))
}

func readCSV(r io.Reader) (Lists, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range fileHeader {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("falta la columna %q", h)
		}
	}

	lists := Lists{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		src, err1 := strconv.Atoi(rec[col["src_id"]])
		dst, err2 := strconv.Atoi(rec[col["dst_id"]])
		corr, err3 := strconv.ParseFloat(rec[col["correlation"]], 64)
		common, err4 := strconv.Atoi(rec[col["common"]])
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		lists[src] = append(lists[src], models.SimilarityEdge{
			SrcID:       src,
			DstID:       dst,
			Correlation: corr,
			Common:      common,
		})
	}
	return lists, nil
}
