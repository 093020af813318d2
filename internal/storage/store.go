package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/eigensim/internal/experiment"
	"github.com/san-kum/eigensim/internal/logger"
	"github.com/san-kum/eigensim/internal/quantum"
	"github.com/san-kum/eigensim/internal/shooting"
)

const (
	metadataFile      = "metadata.json"
	levelsFile        = "levels.csv"
	wavefunctionsFile = "wavefunctions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type GridInfo struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Points int     `json:"points"`
}

type LevelInfo struct {
	Index         int       `json:"index"`
	Energy        float64   `json:"energy"`
	Reference     *float64  `json:"reference,omitempty"`
	RelError      *float64  `json:"rel_error,omitempty"`
	Nodes         int       `json:"nodes"`
	TurningPoints []float64 `json:"turning_points"`
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Model     string              `json:"model"`
	Timestamp time.Time           `json:"timestamp"`
	Params    quantum.Params      `json:"params"`
	Grid      GridInfo            `json:"grid"`
	Scan      shooting.ScanPolicy `json:"scan"`
	Seed      float64             `json:"seed"`
	Requested int                 `json:"requested"`
	Complete  bool                `json:"complete"`
	Levels    []LevelInfo         `json:"levels"`
	Warnings  []string            `json:"warnings,omitempty"`
	ElapsedMS float64             `json:"elapsed_ms"`
}

// Eigenvalues returns the saved level energies in order.
func (m *RunMetadata) Eigenvalues() []float64 {
	out := make([]float64, len(m.Levels))
	for i, l := range m.Levels {
		out[i] = l.Energy
	}
	return out
}

func newRunID(model string) string {
	return fmt.Sprintf("%s_%s", model, uuid.NewString()[:8])
}

// Metadata builds the run summary written to metadata.json.
func Metadata(id string, result *experiment.Result, cfg experiment.Config) RunMetadata {
	meta := RunMetadata{
		ID:        id,
		Model:     result.Model,
		Timestamp: time.Now(),
		Params:    result.Params,
		Grid: GridInfo{
			Min:    result.Grid.Min(),
			Max:    result.Grid.Max(),
			Step:   result.Grid.Step,
			Points: result.Grid.Len(),
		},
		Scan:      cfg.Scan,
		Seed:      cfg.Seed,
		Requested: cfg.Levels,
		Complete:  result.Scan != nil && result.Scan.Complete,
		Levels:    make([]LevelInfo, len(result.Levels)),
		Warnings:  result.Warnings,
		ElapsedMS: float64(result.Elapsed.Microseconds()) / 1000,
	}
	for i, l := range result.Levels {
		info := LevelInfo{
			Index:         l.Index,
			Energy:        l.Energy,
			Nodes:         l.Nodes,
			TurningPoints: l.TurningPoints,
		}
		if l.HasReference {
			ref, rel := l.Reference, l.RelError
			info.Reference, info.RelError = &ref, &rel
		}
		meta.Levels[i] = info
	}
	return meta
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (s *Store) Save(result *experiment.Result, cfg experiment.Config) (string, error) {
	runID := newRunID(result.Model)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := Metadata(runID, result, cfg)
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeLevels(filepath.Join(runDir, levelsFile), meta.Levels); err != nil {
		return "", err
	}
	if err := writeWavefunctions(filepath.Join(runDir, wavefunctionsFile), result); err != nil {
		return "", err
	}

	logger.Info("saved run %s (%d levels)", runID, len(result.Levels))
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeJSON(f, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func writeLevels(path string, levels []LevelInfo) error {
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		ref, rel := "", ""
		if l.Reference != nil {
			ref, rel = formatFloat(*l.Reference), formatFloat(*l.RelError)
		}
		rows = append(rows, []string{
			strconv.Itoa(l.Index),
			formatFloat(l.Energy),
			ref,
			rel,
			strconv.Itoa(l.Nodes),
			strconv.Itoa(len(l.TurningPoints)),
		})
	}
	return writeCSV(path, []string{"index", "energy", "reference", "rel_error", "nodes", "turning_points"}, rows)
}

func writeWavefunctions(path string, result *experiment.Result) error {
	header := []string{"x", "V"}
	for _, l := range result.Levels {
		header = append(header, fmt.Sprintf("psi_%d", l.Index))
	}

	rows := make([][]string, result.Grid.Len())
	for i, x := range result.Grid.Points {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(x), formatFloat(result.Potential[i]))
		for _, l := range result.Levels {
			row = append(row, formatFloat(l.Wavefunction[i]))
		}
		rows[i] = row
	}
	return writeCSV(path, header, rows)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			logger.Debug("skipping %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadWavefunctions reads the grid positions, the sampled potential and one
// column per saved level.
func (s *Store) LoadWavefunctions(runID string) ([]float64, []float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, wavefunctionsFile))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("run %s: empty %s", runID, wavefunctionsFile)
	}

	levels := len(records[0]) - 2
	if levels < 0 {
		return nil, nil, nil, fmt.Errorf("run %s: malformed header %v", runID, records[0])
	}

	n := len(records) - 1
	xs := make([]float64, n)
	vs := make([]float64, n)
	psis := make([][]float64, levels)
	for k := range psis {
		psis[k] = make([]float64, n)
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("run %s: row %d: %w", runID, i+1, err)
			}
			vals[j] = v
		}
		xs[i], vs[i] = vals[0], vals[1]
		for k := range psis {
			psis[k][i] = vals[k+2]
		}
	}
	return xs, vs, psis, nil
}

// Export writes the metadata together with the wavefunction table as one
// JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	xs, vs, psis, err := s.LoadWavefunctions(runID)
	if err != nil {
		return err
	}
	return encodeJSON(w, ExportData{
		RunMetadata:   *meta,
		X:             xs,
		Potential:     vs,
		Wavefunctions: psis,
	})
}

type ExportData struct {
	RunMetadata
	X             []float64   `json:"x"`
	Potential     []float64   `json:"potential"`
	Wavefunctions [][]float64 `json:"wavefunctions"`
}
