package storage

import (
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

type ExportDie struct {
	Name        string       `json:"name"`
	Times       []float64    `json:"times"`
	Positions   [][3]float64 `json:"positions"`
	Orientation [][4]float64 `json:"orientations"`
	States      []string     `json:"states"`
}

type ExportData struct {
	RunMetadata
	Trajectories []ExportDie `json:"trajectories"`
}

// Export assembles the metadata and per-die trajectories of a saved run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{RunMetadata: *meta}
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Die]
		if !ok {
			i = len(data.Trajectories)
			index[r.Die] = i
			data.Trajectories = append(data.Trajectories, ExportDie{Name: r.Die})
		}
		d := &data.Trajectories[i]
		d.Times = append(d.Times, r.Time)
		d.Positions = append(d.Positions, r.Position)
		d.Orientation = append(d.Orientation, r.Orientation)
		d.States = append(d.States, r.State.String())
	}
	return data, nil
}

func (s *Store) ExportJSON(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer file.Close()
	return s.WriteJSON(runID, file)
}

func (s *Store) WriteJSON(runID string, w io.Writer) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return eris.Wrapf(encoder.Encode(data), "encode run %s", runID)
}
