package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/san-kum/diceroll/internal/config"
	"github.com/san-kum/diceroll/internal/rigid"
	"github.com/san-kum/diceroll/internal/world"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var framesHeader = []string{"time", "die", "x", "y", "z", "qw", "qx", "qy", "qz", "state"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return eris.Wrapf(os.MkdirAll(s.baseDir, 0755), "create %s", s.baseDir)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Physics    rigid.Params       `json:"physics"`
	Dice       []config.DieConfig `json:"dice"`
	StepsTaken int                `json:"steps_taken"`
	SettledAt  map[string]float64 `json:"settled_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

// FrameRow is one die at one instant as stored in frames.csv.
type FrameRow struct {
	Time        float64
	Die         string
	Position    [3]float64
	Orientation [4]float64
	State       rigid.State
}

func (s *Store) Save(cfg *config.Config, result *world.Result) (string, error) {
	preset := cfg.Preset
	if preset == "" {
		preset = "custom"
	}
	runID := preset + "_" + uuid.NewString()[:8]
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", eris.Wrapf(err, "create run dir %s", runDir)
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     preset,
		Timestamp:  time.Now(),
		Dt:         cfg.Sim.Dt,
		Duration:   cfg.Sim.Duration,
		Physics:    cfg.Physics,
		Dice:       cfg.Dice,
		StepsTaken: result.StepsTaken,
		SettledAt:  result.SettledAt,
		Metrics:    result.Metrics,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "encode metadata")
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", eris.Wrap(err, "write metadata")
	}

	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

func writeFrames(path string, frames []world.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(framesHeader); err != nil {
		return eris.Wrap(err, "write header")
	}

	for _, frame := range frames {
		t := strconv.FormatFloat(frame.Time, 'f', 6, 64)
		for _, p := range frame.Poses {
			q := p.Orientation
			row := []string{
				t,
				p.Name,
				formatFloat(p.Position.X()),
				formatFloat(p.Position.Y()),
				formatFloat(p.Position.Z()),
				formatFloat(q.W),
				formatFloat(q.V.X()),
				formatFloat(q.V.Y()),
				formatFloat(q.V.Z()),
				p.State.String(),
			}
			if err := w.Write(row); err != nil {
				return eris.Wrap(err, "write frame")
			}
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "flush frames")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, eris.Wrapf(err, "read %s", s.baseDir)
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, eris.Wrapf(err, "load run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, eris.Wrapf(err, "decode run %s", runID)
	}
	return &meta, nil
}

// LoadFrames reads frames.csv back. Malformed rows are an error.
func (s *Store) LoadFrames(runID string) ([]FrameRow, error) {
	path := filepath.Join(s.baseDir, runID, framesFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open frames for %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(framesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "read frames for %s", runID)
	}
	if len(records) < 2 {
		return []FrameRow{}, nil
	}

	rows := make([]FrameRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		var nums [8]float64
		for j, idx := range []int{0, 2, 3, 4, 5, 6, 7, 8} {
			v, err := strconv.ParseFloat(rec[idx], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "frames row %d column %s", i+1, framesHeader[idx])
			}
			nums[j] = v
		}

		var st rigid.State
		if err := st.UnmarshalText([]byte(rec[9])); err != nil {
			return nil, eris.Wrapf(err, "frames row %d", i+1)
		}

		rows = append(rows, FrameRow{
			Time:        nums[0],
			Die:         rec[1],
			Position:    [3]float64{nums[1], nums[2], nums[3]},
			Orientation: [4]float64{nums[4], nums[5], nums[6], nums[7]},
			State:       st,
		})
	}
	return rows, nil
}

// Series groups the heights of each die over time.
func Series(rows []FrameRow) (names []string, times map[string][]float64, heights map[string][]float64) {
	times = make(map[string][]float64)
	heights = make(map[string][]float64)
	for _, r := range rows {
		if _, ok := heights[r.Die]; !ok {
			names = append(names, r.Die)
		}
		times[r.Die] = append(times[r.Die], r.Time)
		heights[r.Die] = append(heights[r.Die], r.Position[1])
	}
	return names, times, heights
}
