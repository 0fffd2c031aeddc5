package noc

import (
	"encoding/json"

	"noctrace/src/misc"
)

// traceChunk is the wire-format mirror of Chunk (§6 consumed task trace).
type traceChunk struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Start    int `json:"start"`
	End      int `json:"end"`
	BitWidth int `json:"bit_width"`
	Total    int `json:"total"`
	ImageID  int `json:"image_id"`
	LayerID  int `json:"layer_id"`
	InID     int `json:"in_id"`
	TileID   int `json:"tile_id"`
}

func (t traceChunk) toChunk() Chunk {
	return Chunk{
		X: t.X, Y: t.Y, Start: t.Start, End: t.End, BitWidth: t.BitWidth,
		Total: t.Total, ImageID: t.ImageID, LayerID: t.LayerID, InID: t.InID, TileID: t.TileID,
	}
}

type traceDependency struct {
	Wait    []traceChunk `json:"wait"`
	Output  []traceChunk `json:"output"`
	Drop    []traceChunk `json:"drop"`
	Latency float64      `json:"latency"`
}

type traceTile struct {
	TileID        int                `json:"tile_id"`
	LayerID       int                `json:"layer_id"`
	TargetTileIDs []int              `json:"target_tile_id"`
	SourceTileIDs []int              `json:"source_tile_id"`
	Dependencies  []traceDependency  `json:"dependence"`
}

// DecodeTaskTrace parses a JSON-encoded behavior trace (§6) into
// TileBehavior records, validating each one's structural invariants before
// returning. TaskID is left zero; callers loading multiple per-task traces
// (task_config_path_list, §6) should use DecodeTaskTraceForTask instead so
// every tile-behavior record is stamped with the task it belongs to.
func DecodeTaskTrace(raw []byte) ([]TileBehavior, error) {
	return DecodeTaskTraceForTask(raw, 0)
}

// DecodeTaskTraceForTask parses one task_config_path_list entry's trace,
// stamping every behavior record's TaskID so downstream mapping and
// communication wiring can scope tile ids per task (§3, §6): tile_id is
// only unique within a single task's own trace file.
func DecodeTaskTraceForTask(raw []byte, taskID int) ([]TileBehavior, error) {
	var tiles []traceTile
	if err := json.Unmarshal(raw, &tiles); err != nil {
		return nil, misc.NewConfigError("decode task trace: %v", err)
	}

	out := make([]TileBehavior, 0, len(tiles))
	for _, tt := range tiles {
		behavior := TileBehavior{
			TaskID:        taskID,
			TileID:        tt.TileID,
			LayerID:       tt.LayerID,
			TargetTileIDs: append([]int(nil), tt.TargetTileIDs...),
			SourceTileIDs: append([]int(nil), tt.SourceTileIDs...),
		}
		for _, dep := range tt.Dependencies {
			behavior.Dependencies = append(behavior.Dependencies, Dependency{
				Wait:    toChunks(dep.Wait),
				Output:  toChunks(dep.Output),
				Drop:    toChunks(dep.Drop),
				Latency: dep.Latency,
			})
		}
		if err := behavior.Validate(); err != nil {
			return nil, err
		}
		out = append(out, behavior)
	}
	return out, nil
}

func toChunks(in []traceChunk) []Chunk {
	out := make([]Chunk, len(in))
	for i, c := range in {
		out[i] = c.toChunk()
	}
	return out
}

// ExpandForImages returns a copy of behaviors in which every chunk's ImageID
// is rewritten to imageID; the input trace is not modified. The copy is built
// eagerly, not on demand.
func ExpandForImages(behaviors []TileBehavior, imageID int) []TileBehavior {
	out := make([]TileBehavior, len(behaviors))
	for i, b := range behaviors {
		nb := b
		nb.Dependencies = make([]Dependency, len(b.Dependencies))
		for j, dep := range b.Dependencies {
			nb.Dependencies[j] = Dependency{
				Wait:    withImage(dep.Wait, imageID),
				Output:  withImage(dep.Output, imageID),
				Drop:    withImage(dep.Drop, imageID),
				Latency: dep.Latency,
			}
		}
		out[i] = nb
	}
	return out
}

func withImage(chunks []Chunk, imageID int) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.WithImage(imageID)
	}
	return out
}

// ExpandForImageCount builds the single, already-concatenated dependency
// list the one physical Tile at behavior's grid position processes: the
// trace repeated back to back once per image, each repetition's chunks
// carrying that image's id (§3, §4.1 — "the dependency list is
// image_count x trace_length long"). Unlike ExpandForImages, which produces
// one per-image trace for a caller that still wants independent Tile
// objects, this is the one a single serializing compute resource consumes.
// The whole list is materialized, so its memory grows with
// image_count x trace_length.
func ExpandForImageCount(behaviors []TileBehavior, imageCount int) []TileBehavior {
	out := make([]TileBehavior, len(behaviors))
	for i, b := range behaviors {
		nb := b
		nb.Dependencies = make([]Dependency, 0, len(b.Dependencies)*imageCount)
		for image := 0; image < imageCount; image++ {
			expanded := ExpandForImages([]TileBehavior{b}, image)
			nb.Dependencies = append(nb.Dependencies, expanded[0].Dependencies...)
		}
		out[i] = nb
	}
	return out
}
