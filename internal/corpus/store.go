// Package corpus loads the fixed hymn corpus: an embedding matrix, a label
// table and a passage text table, all row-aligned. The store is immutable
// after Load and safe for concurrent readers without locking.
package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"hymnsearch/internal/domain"
)

// Paths locates the offline-produced corpus files.
type Paths struct {
	Embeddings string
	Labels     string
	Texts      string
	// LabelDelimiter separates columns in the label table; the first column is
	// the label. Defaults to ','.
	LabelDelimiter rune
}

// Store holds the aligned corpus tables.
type Store struct {
	labels    []domain.PassageID
	texts     []string
	vectors   [][]float32
	norms     []float64
	dimension int
}

// Load reads and cross-checks the three corpus tables. Any read error or
// row-count disagreement is reported as domain.ErrDataLoad.
func Load(p Paths) (*Store, error) {
	vectors, dim, err := loadMatrix(p.Embeddings)
	if err != nil {
		return nil, err
	}
	labels, err := loadLabels(p.Labels, p.LabelDelimiter)
	if err != nil {
		return nil, err
	}
	texts, err := loadTexts(p.Texts)
	if err != nil {
		return nil, err
	}
	return New(labels, texts, vectors, dim)
}

// New builds a store from in-memory tables, applying the same alignment
// checks as Load.
func New(labels []domain.PassageID, texts []string, vectors [][]float32, dim int) (*Store, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty embedding matrix", domain.ErrDataLoad)
	}
	if len(labels) != len(vectors) || len(texts) != len(vectors) {
		return nil, fmt.Errorf("%w: row counts differ (embeddings=%d labels=%d texts=%d)",
			domain.ErrDataLoad, len(vectors), len(labels), len(texts))
	}
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: embedding row %d has %d columns, want %d", domain.ErrDataLoad, i, len(v), dim)
		}
		norms[i] = l2(v)
	}
	return &Store{labels: labels, texts: texts, vectors: vectors, norms: norms, dimension: dim}, nil
}

// Len returns the number of passages.
func (s *Store) Len() int { return len(s.vectors) }

// Dimension returns the embedding dimension D.
func (s *Store) Dimension() int { return s.dimension }

// Matrix returns the embedding rows. Callers must not modify them.
func (s *Store) Matrix() [][]float32 { return s.vectors }

// Norm returns the precomputed L2 norm of row i.
func (s *Store) Norm(i int) float64 { return s.norms[i] }

// LabelAt returns the label of row i.
func (s *Store) LabelAt(i int) domain.PassageID { return s.labels[i] }

// TextAt returns the raw text of row i, including its line terminator.
func (s *Store) TextAt(i int) string { return s.texts[i] }

// Passage returns row i as a Passage.
func (s *Store) Passage(i int) domain.Passage {
	return domain.Passage{Label: s.labels[i], Text: s.texts[i], Embedding: s.vectors[i]}
}

// FitText reads the full raw corpus text used to fit term weights.
func FitText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read corpus text %s: %v", domain.ErrDataLoad, path, err)
	}
	return string(b), nil
}

func loadMatrix(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: cannot open embeddings %s: %v", domain.ErrDataLoad, path, err)
	}
	defer f.Close()

	var rows [][]float32
	dim := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if dim == 0 {
			dim = len(fields)
		} else if len(fields) != dim {
			return nil, 0, fmt.Errorf("%w: embeddings %s line %d has %d columns, want %d",
				domain.ErrDataLoad, path, line, len(fields), dim)
		}
		row := make([]float32, len(fields))
		for j, fld := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(fld), 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: embeddings %s line %d column %d: %v", domain.ErrDataLoad, path, line, j+1, err)
			}
			row[j] = float32(v)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: cannot read embeddings %s: %v", domain.ErrDataLoad, path, err)
	}
	return rows, dim, nil
}

func loadLabels(path string, delim rune) ([]domain.PassageID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open labels %s: %v", domain.ErrDataLoad, path, err)
	}
	defer f.Close()

	if delim == 0 {
		delim = ','
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []domain.PassageID
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid label table %s: %v", domain.ErrDataLoad, path, err)
		}
		out = append(out, domain.PassageID(strings.TrimSpace(rec[0])))
	}
	return out, nil
}

func loadTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open texts %s: %v", domain.ErrDataLoad, path, err)
	}
	defer f.Close()

	var out []string
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			out = append(out, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read texts %s: %v", domain.ErrDataLoad, path, err)
		}
	}
	return out, nil
}

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
